package query

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
)

// Document is one row of a collection in generic form.
type Document = map[string]any

// Collection is an external queryable and countable store of documents. The
// engine never opens or owns the underlying connection; it only issues the
// two read operations below.
type Collection interface {
	// Count returns the number of documents matching the predicate,
	// independent of pagination. A nil predicate matches everything.
	Count(ctx context.Context, where squirrel.Sqlizer) (int, error)

	// Find applies sort before skip/limit (pagination is undefined in any
	// other order) and expands the given relations before returning.
	Find(ctx context.Context, where squirrel.Sqlizer, sort SortSpec, skip, limit int, populate []Relation) ([]Document, error)
}

// Execute runs the count and fetch for one parsed request against coll.
//
// The two statements share the predicate but not a snapshot: writes landing
// between them can make total drift from the returned page. The count is an
// explicitly best-effort figure; a caller needing strict consistency must
// provide it at the store layer.
func Execute(ctx context.Context, coll Collection, p Parsed, populate []Relation) ([]Document, int, error) {
	where := Compile(p.Filter)

	total, err := coll.Count(ctx, where)
	if err != nil {
		return nil, 0, fmt.Errorf("list query: count: %w", err)
	}

	docs, err := coll.Find(ctx, where, p.Sort, p.Window.Skip, p.Window.Limit, populate)
	if err != nil {
		return nil, 0, fmt.Errorf("list query: fetch: %w", err)
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, total, nil
}
