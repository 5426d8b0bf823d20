package query

import "time"

// Condition is one compiled-ready predicate on a single document field.
type Condition interface{ isCondition() }

// Exact matches the field value verbatim.
type Exact struct{ Value any }

// Substring matches case-insensitively anywhere in the field. Pattern has
// already had regex metacharacters escaped, so it only ever matches the
// literal text.
type Substring struct{ Pattern string }

// In matches when the field equals any of the listed values.
type In struct{ Values []string }

// Range matches inclusive bounds. A nil bound is unbounded on that side.
type Range struct {
	GTE *time.Time
	LTE *time.Time
}

func (Exact) isCondition()     {}
func (Substring) isCondition() {}
func (In) isCondition()        {}
func (Range) isCondition()     {}

// SearchCondition is one branch of the global-search disjunction.
type SearchCondition struct {
	Field   string
	Pattern string
}

// FilterSpec holds every active predicate for one query. Field conditions
// are ANDed together; AnyOf is ORed internally and ANDed with the rest.
// Built once during parsing, never mutated afterwards.
type FilterSpec struct {
	Fields map[string]Condition
	AnyOf  []SearchCondition
}

// NewFilterSpec returns an empty spec ready to be populated.
func NewFilterSpec() FilterSpec {
	return FilterSpec{Fields: map[string]Condition{}}
}

// Applied counts the predicates reported in query_info: one per filtered
// field plus one for the search disjunction when present.
func (f FilterSpec) Applied() int {
	n := len(f.Fields)
	if len(f.AnyOf) > 0 {
		n++
	}
	return n
}

// SortSpec is the single (field, direction) pair a query sorts by.
type SortSpec struct {
	Field string
	Desc  bool
}

// Direction returns "asc" or "desc" for the response contract.
func (s SortSpec) Direction() string {
	if s.Desc {
		return "desc"
	}
	return "asc"
}

// OrderBy returns the SQL ORDER BY expression.
func (s SortSpec) OrderBy() string {
	if s.Desc {
		return s.Field + " DESC"
	}
	return s.Field + " ASC"
}

// PageWindow is the numeric page/limit/skip triple governing one fetch.
// Skip always equals (Page-1)*Limit.
type PageWindow struct {
	Page  int
	Limit int
	Skip  int
}
