package query

import (
	"fmt"
	"net/url"
	"strconv"
)

// QueryInfo echoes the effective filter/sort back to the consumer.
type QueryInfo struct {
	FiltersApplied int    `json:"filters_applied"`
	SortBy         string `json:"sort_by"`
	SortDirection  string `json:"sort_direction"`
}

// Envelope is the standardized paginated response. Field names are part of
// the external contract and must not change.
type Envelope struct {
	Data           []Document `json:"data"`
	Total          int        `json:"total"`
	PerPage        int        `json:"per_page"`
	CurrentPage    int        `json:"current_page"`
	LastPage       int        `json:"last_page"`
	From           *int       `json:"from"`
	To             *int       `json:"to"`
	Path           string     `json:"path"`
	FirstPageURL   string     `json:"first_page_url"`
	LastPageURL    string     `json:"last_page_url"`
	NextPageURL    *string    `json:"next_page_url"`
	PrevPageURL    *string    `json:"prev_page_url"`
	CurrentPageURL string     `json:"current_page_url"`
	QueryInfo      QueryInfo  `json:"query_info"`
}

// BuildEnvelope composes the pagination metadata and navigation URLs for one
// executed request. Navigation URLs echo every original parameter unchanged
// except the page number.
func BuildEnvelope(raw RawParams, p Parsed, docs []Document, total int) Envelope {
	win := p.Window

	lastPage := 0
	if total > 0 {
		lastPage = (total + win.Limit - 1) / win.Limit
	}

	var from, to *int
	if total > 0 {
		f := win.Skip + 1
		t := win.Skip + win.Limit
		if t > total {
			t = total
		}
		from, to = &f, &t
	}

	base := raw.Proto + "://" + raw.Host + raw.BasePath + raw.Path
	pageURL := func(page int) string {
		return base + "?" + encodeQuery(raw.Query, page)
	}

	if docs == nil {
		docs = []Document{}
	}

	env := Envelope{
		Data:           docs,
		Total:          total,
		PerPage:        win.Limit,
		CurrentPage:    win.Page,
		LastPage:       lastPage,
		From:           from,
		To:             to,
		Path:           base,
		FirstPageURL:   pageURL(1),
		LastPageURL:    pageURL(lastPage),
		CurrentPageURL: pageURL(win.Page),
		QueryInfo: QueryInfo{
			FiltersApplied: p.Filter.Applied(),
			SortBy:         p.Sort.Field,
			SortDirection:  p.Sort.Direction(),
		},
	}
	if win.Page < lastPage {
		u := pageURL(win.Page + 1)
		env.NextPageURL = &u
	}
	if win.Page > 1 {
		u := pageURL(win.Page - 1)
		env.PrevPageURL = &u
	}
	return env
}

// encodeQuery rebuilds the query string with every original parameter intact
// and only the page number overridden. Parameters with empty values are
// omitted; a nested filter map is echoed back in bracket syntax.
func encodeQuery(q map[string]any, page int) string {
	values := url.Values{}
	for key, raw := range q {
		if key == "page" {
			continue
		}
		switch v := raw.(type) {
		case string:
			if v != "" {
				values.Set(key, v)
			}
		case []string:
			for _, item := range v {
				if item != "" {
					values.Add(key, item)
				}
			}
		case map[string]any:
			for sub, subVal := range v {
				if s := stringify(subVal); s != "" {
					values.Set(key+"["+sub+"]", s)
				}
			}
		default:
			if s := stringify(raw); s != "" {
				values.Set(key, s)
			}
		}
	}
	values.Set("page", strconv.Itoa(page))
	return values.Encode()
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
