package query

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"QlistAPI/internal/logger"
)

var (
	filterKeyPattern = regexp.MustCompile(`^filter\[([^\[\]]+)\]$`)

	// Field names end up interpolated as SQL identifiers, so anything outside
	// this shape is dropped before it can reach the compiler.
	safeFieldPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// ErrInvalidDate marks a date_from/date_to value that does not parse as a
// calendar date. Unlike a disallowed sort or filter field this aborts the
// whole call: a silently dropped bound would leak rows outside the requested
// range.
var ErrInvalidDate = errors.New("invalid date")

const dateLayout = "2006-01-02"

// Parsed is the canonical form of one list request.
type Parsed struct {
	Window PageWindow
	Sort   SortSpec
	Filter FilterSpec
}

// Parse reads the pagination, sort, filter, search and date-range directives
// from the raw parameter map and produces the canonical query form.
//
// Malformed numeric input is corrected via defaulting; disallowed sort or
// filter fields are dropped silently (security control, not user-facing
// validation). Only malformed dates and resolver/store faults surface as
// errors.
func Parse(ctx context.Context, raw RawParams, cfg Config) (Parsed, error) {
	cfg = cfg.withDefaults()

	filter, err := parseFilter(ctx, raw, cfg)
	if err != nil {
		return Parsed{}, err
	}
	return Parsed{
		Window: parseWindow(raw, cfg),
		Sort:   parseSort(raw, cfg),
		Filter: filter,
	}, nil
}

func parseWindow(raw RawParams, cfg Config) PageWindow {
	page := intParam(raw.Query, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := intParam(raw.Query, "limit", cfg.DefaultLimit)
	if limit < 1 {
		limit = 1
	}
	// MaxLimit is a hard ceiling regardless of what the caller asks for.
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	return PageWindow{Page: page, Limit: limit, Skip: (page - 1) * limit}
}

func parseSort(raw RawParams, cfg Config) SortSpec {
	fallback := SortSpec{Field: cfg.DefaultSort, Desc: true}

	s, ok := stringParam(raw.Query, "sort")
	if !ok {
		return fallback
	}
	spec := SortSpec{Field: s}
	if strings.HasPrefix(s, "-") {
		spec = SortSpec{Field: s[1:], Desc: true}
	}
	if !safeFieldPattern.MatchString(spec.Field) || !cfg.AllowedSortFields.Allows(spec.Field) {
		logger.Debug("sort_field_rejected", map[string]any{"field": spec.Field})
		return fallback
	}
	return spec
}

func parseFilter(ctx context.Context, raw RawParams, cfg Config) (FilterSpec, error) {
	spec := NewFilterSpec()

	for field, rawVal := range filterSource(raw.Query) {
		if !safeFieldPattern.MatchString(field) {
			logger.Debug("filter_field_unsafe", map[string]any{"field": field})
			continue
		}
		if !cfg.AllowedFilterFields.Allows(field) {
			logger.Debug("filter_field_rejected", map[string]any{"field": field})
			continue
		}
		val, ok := toValue(rawVal)
		if !ok {
			logger.Debug("filter_value_unsupported", map[string]any{"field": field})
			continue
		}
		spec.Fields[field] = buildCondition(field, val)
	}

	if term, ok := stringParam(raw.Query, "search"); ok && len(cfg.SearchFields) > 0 {
		pattern := regexp.QuoteMeta(term)
		for _, f := range cfg.SearchFields {
			spec.AnyOf = append(spec.AnyOf, SearchCondition{Field: f, Pattern: pattern})
		}
	}

	if err := parseDateRange(raw, cfg, &spec); err != nil {
		return FilterSpec{}, err
	}
	if err := resolveCategory(ctx, raw, cfg, &spec); err != nil {
		return FilterSpec{}, err
	}

	return spec, nil
}

// filterSource reconciles the two accepted filter shapes: a pre-nested map
// under the "filter" key, or flat "filter[field]" keys synthesized into one
// map when the nested shape is absent or not a structured object.
func filterSource(q map[string]any) map[string]any {
	if nested, ok := q["filter"].(map[string]any); ok {
		return nested
	}
	out := map[string]any{}
	for key, val := range q {
		if m := filterKeyPattern.FindStringSubmatch(key); m != nil {
			out[m[1]] = val
		}
	}
	return out
}

func buildCondition(field string, val Value) Condition {
	switch val.Kind {
	case ValueString:
		if strings.Contains(val.Str, ",") {
			return In{Values: splitTrim(val.Str)}
		}
		// status is a closed enum in caller domains; match it verbatim.
		if field == "status" {
			return Exact{Value: val.Str}
		}
		return Substring{Pattern: regexp.QuoteMeta(val.Str)}
	case ValueList:
		return In{Values: trimAll(val.List)}
	}
	return Exact{Value: val.Scalar()}
}

func parseDateRange(raw RawParams, cfg Config, spec *FilterSpec) error {
	fromStr, hasFrom := stringParam(raw.Query, "date_from")
	toStr, hasTo := stringParam(raw.Query, "date_to")
	if !hasFrom && !hasTo {
		return nil
	}

	var r Range
	if hasFrom {
		t, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return fmt.Errorf("%w: date_from %q", ErrInvalidDate, fromStr)
		}
		r.GTE = &t
	}
	if hasTo {
		t, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return fmt.Errorf("%w: date_to %q", ErrInvalidDate, toStr)
		}
		// inclusive end of day
		end := t.Add(24*time.Hour - time.Millisecond)
		r.LTE = &end
	}
	spec.Fields[cfg.DateField] = r
	return nil
}

func resolveCategory(ctx context.Context, raw RawParams, cfg Config, spec *FilterSpec) error {
	if cfg.CategoryParam == "" || cfg.CategoryField == "" || cfg.Resolver == nil {
		return nil
	}
	name, ok := stringParam(raw.Query, cfg.CategoryParam)
	if !ok {
		return nil
	}
	id, found, err := cfg.Resolver.Resolve(ctx, name)
	if err != nil {
		return fmt.Errorf("resolve %s %q: %w", cfg.CategoryParam, name, err)
	}
	if !found {
		logger.Debug("category_not_found", map[string]any{"name": name})
		return nil
	}
	spec.Fields[cfg.CategoryField] = Exact{Value: id}
	return nil
}

func stringParam(q map[string]any, key string) (string, bool) {
	switch v := q[key].(type) {
	case string:
		if v != "" {
			return v, true
		}
	case []string:
		if len(v) > 0 && v[0] != "" {
			return v[0], true
		}
	}
	return "", false
}

func intParam(q map[string]any, key string, fallback int) int {
	s, ok := stringParam(q, key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	return trimAll(parts)
}

func trimAll(parts []string) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
