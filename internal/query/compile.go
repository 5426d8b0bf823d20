package query

import (
	"sort"

	"github.com/Masterminds/squirrel"
)

// Compile translates a FilterSpec into a store-native predicate. This is a
// pure structural translation: every security and semantic decision already
// happened during parsing, so a different backend only needs to swap this
// file out.
//
// A spec with no active predicates compiles to nil.
func Compile(spec FilterSpec) squirrel.Sqlizer {
	var exprs []squirrel.Sqlizer

	fields := make([]string, 0, len(spec.Fields))
	for f := range spec.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields) // deterministic SQL for identical specs

	for _, field := range fields {
		if e := compileCondition(field, spec.Fields[field]); e != nil {
			exprs = append(exprs, e)
		}
	}

	if len(spec.AnyOf) > 0 {
		or := make(squirrel.Or, 0, len(spec.AnyOf))
		for _, sc := range spec.AnyOf {
			or = append(or, substringExpr(sc.Field, sc.Pattern))
		}
		exprs = append(exprs, or)
	}

	if len(exprs) == 0 {
		return nil
	}
	return squirrel.And(exprs)
}

func compileCondition(field string, c Condition) squirrel.Sqlizer {
	switch cond := c.(type) {
	case Exact:
		return squirrel.Eq{field: cond.Value}
	case In:
		return squirrel.Eq{field: cond.Values} // slice compiles to IN
	case Substring:
		return substringExpr(field, cond.Pattern)
	case Range:
		var bounds squirrel.And
		if cond.GTE != nil {
			bounds = append(bounds, squirrel.GtOrEq{field: *cond.GTE})
		}
		if cond.LTE != nil {
			bounds = append(bounds, squirrel.LtOrEq{field: *cond.LTE})
		}
		if len(bounds) == 0 {
			return nil
		}
		return bounds
	}
	return nil
}

// substringExpr matches the pattern case-insensitively anywhere in the
// column. Patterns were metacharacter-escaped upstream, so ~* only ever sees
// a literal. The text cast keeps the operator valid on non-text columns.
func substringExpr(field, pattern string) squirrel.Sqlizer {
	return squirrel.Expr(field+"::text ~* ?", pattern)
}
