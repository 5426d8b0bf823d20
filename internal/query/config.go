package query

import "context"

// Defaults applied when a Config field is left at its zero value.
const (
	DefaultLimit     = 10
	DefaultMaxLimit  = 100
	DefaultSortField = "createdAt"
	DefaultDateField = "createdAt"
)

// FieldSet is an allowlist of field names. The zero value allows everything;
// Restrict closes the set. The two states are an explicit sentinel so the
// security-relevant branch is type-checked instead of hanging off an empty
// slice.
type FieldSet struct {
	restricted bool
	members    map[string]struct{}
}

// Unrestricted returns a set that allows any field.
func Unrestricted() FieldSet { return FieldSet{} }

// Restrict returns a closed set allowing only the given fields.
func Restrict(fields ...string) FieldSet {
	m := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		m[f] = struct{}{}
	}
	return FieldSet{restricted: true, members: m}
}

// Allows reports whether the set permits the field.
func (s FieldSet) Allows(field string) bool {
	if !s.restricted {
		return true
	}
	_, ok := s.members[field]
	return ok
}

// IsRestricted reports whether the set is closed.
func (s FieldSet) IsRestricted() bool { return s.restricted }

// Resolver converts a human-readable lookup name into the internal id the
// filter matches against. ok=false means no such entry exists; the term is
// skipped and the rest of the query still runs.
type Resolver interface {
	Resolve(ctx context.Context, name string) (id any, ok bool, err error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(ctx context.Context, name string) (any, bool, error)

func (f ResolverFunc) Resolve(ctx context.Context, name string) (any, bool, error) {
	return f(ctx, name)
}

// Relation describes one reference expansion applied during a fetch: for
// every returned document, the row from Table whose ForeignField equals the
// document's LocalField is embedded under the As key.
type Relation struct {
	As           string
	Table        string
	LocalField   string
	ForeignField string
}

// Config is the per-call configuration for one list query. It is supplied
// fresh by the calling route and never mutated by the engine.
//
// CategoryParam names the query parameter carrying a human-readable category
// name; CategoryField is the document field the resolved id is matched
// against. Resolution only runs when both are set and a Resolver is wired.
type Config struct {
	DefaultLimit        int
	MaxLimit            int
	DefaultSort         string
	AllowedSortFields   FieldSet
	AllowedFilterFields FieldSet
	SearchFields        []string
	DateField           string
	CategoryParam       string
	CategoryField       string
	Resolver            Resolver
}

// withDefaults merges the documented defaults under the caller's overrides,
// field by field. Caller values win whenever they are set.
func (c Config) withDefaults() Config {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = DefaultMaxLimit
	}
	if c.DefaultSort == "" {
		c.DefaultSort = DefaultSortField
	}
	if c.DateField == "" {
		c.DateField = DefaultDateField
	}
	return c
}
