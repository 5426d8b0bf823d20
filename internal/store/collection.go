// Package store exposes PostgreSQL tables as generic document collections
// for the query engine.
package store

import (
	"context"
	"fmt"

	"QlistAPI/internal/logger"
	"QlistAPI/internal/query"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgCollection implements query.Collection for one table. The table name
// comes from the resource registry, never from request input.
type PgCollection struct {
	pool  *pgxpool.Pool
	table string
}

func New(pool *pgxpool.Pool, table string) *PgCollection {
	return &PgCollection{pool: pool, table: table}
}

func (c *PgCollection) Count(ctx context.Context, where squirrel.Sqlizer) (int, error) {
	sb := squirrel.Select("COUNT(*)").
		From(c.table).
		PlaceholderFormat(squirrel.Dollar)
	if where != nil {
		sb = sb.Where(where)
	}

	sqlStr, args, err := sb.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count for %s: %w", c.table, err)
	}
	logger.Debug("sql", map[string]any{"table": c.table, "sql": sqlStr, "args": args})

	var count int
	if err := c.pool.QueryRow(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.table, err)
	}
	return count, nil
}

func (c *PgCollection) Find(ctx context.Context, where squirrel.Sqlizer, sort query.SortSpec, skip, limit int, populate []query.Relation) ([]query.Document, error) {
	sb := squirrel.Select("*").
		From(c.table).
		PlaceholderFormat(squirrel.Dollar).
		OrderBy(sort.OrderBy())
	if where != nil {
		sb = sb.Where(where)
	}
	if skip > 0 {
		sb = sb.Offset(uint64(skip))
	}
	if limit > 0 {
		sb = sb.Limit(uint64(limit))
	}

	sqlStr, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select for %s: %w", c.table, err)
	}
	logger.Debug("sql", map[string]any{"table": c.table, "sql": sqlStr, "args": args})

	rows, err := c.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", c.table, err)
	}
	docs, err := scanDocuments(rows)
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", c.table, err)
	}

	if err := c.expandRelations(ctx, docs, populate); err != nil {
		return nil, err
	}
	return docs, nil
}

// scanDocuments turns a result set into generic documents keyed by column
// name, so the engine stays schema-agnostic.
func scanDocuments(rows pgx.Rows) ([]query.Document, error) {
	fields := rows.FieldDescriptions()
	docs := []query.Document{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		doc := make(query.Document, len(fields))
		for i, fd := range fields {
			doc[fd.Name] = vals[i]
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// expandRelations resolves reference fields inline with one batched lookup
// per relation: collect the distinct parent keys, fetch the referenced rows
// with a single IN query, then embed each match under rel.As. Dangling
// references are left unexpanded.
func (c *PgCollection) expandRelations(ctx context.Context, docs []query.Document, populate []query.Relation) error {
	if len(docs) == 0 {
		return nil
	}
	for _, rel := range populate {
		seen := make(map[any]struct{}, len(docs))
		keys := make([]any, 0, len(docs))
		for _, doc := range docs {
			v, ok := doc[rel.LocalField]
			if !ok || v == nil {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			keys = append(keys, v)
		}
		if len(keys) == 0 {
			continue
		}

		sb := squirrel.Select("*").
			From(rel.Table).
			Where(squirrel.Eq{rel.ForeignField: keys}).
			PlaceholderFormat(squirrel.Dollar)
		sqlStr, args, err := sb.ToSql()
		if err != nil {
			return fmt.Errorf("build populate %s: %w", rel.Table, err)
		}
		logger.Debug("sql", map[string]any{"table": rel.Table, "sql": sqlStr, "args": args})

		rows, err := c.pool.Query(ctx, sqlStr, args...)
		if err != nil {
			return fmt.Errorf("populate %s: %w", rel.Table, err)
		}
		related, err := scanDocuments(rows)
		rows.Close()
		if err != nil {
			return fmt.Errorf("scan populate %s: %w", rel.Table, err)
		}

		byKey := make(map[any]query.Document, len(related))
		for _, r := range related {
			byKey[r[rel.ForeignField]] = r
		}

		key := rel.As
		if key == "" {
			key = rel.LocalField
		}
		for _, doc := range docs {
			v, ok := doc[rel.LocalField]
			if !ok || v == nil {
				continue
			}
			if match, ok := byKey[v]; ok {
				doc[key] = match
			}
		}
	}
	return nil
}
