// Package catalog resolves human-readable category names to their internal
// ids for use as exact-match filters.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"QlistAPI/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CategoryResolver matches a requested name against the lookup table using
// primary-strength collation (case and diacritics ignored), with a
// Redis-backed cache of resolved ids in front of the table scan.
type CategoryResolver struct {
	pool     *pgxpool.Pool
	rdb      *redis.Client
	table    string
	cacheTTL time.Duration
	collator *collate.Collator
}

// NewCategoryResolver builds a resolver for one lookup table. An unknown
// locale falls back to English collation rules.
func NewCategoryResolver(pool *pgxpool.Pool, rdb *redis.Client, table, locale string, cacheTTL time.Duration) *CategoryResolver {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &CategoryResolver{
		pool:     pool,
		rdb:      rdb,
		table:    table,
		cacheTTL: cacheTTL,
		collator: collate.New(tag, collate.Loose),
	}
}

// Resolve returns the id of the entry whose name matches, or ok=false when
// no entry matches. A missing entry is not an error: the caller skips the
// filter and the rest of the query still runs.
func (r *CategoryResolver) Resolve(ctx context.Context, name string) (any, bool, error) {
	cacheKey := r.table + ":name:" + strings.ToLower(strings.TrimSpace(name))

	if r.rdb != nil {
		if cached, err := r.rdb.Get(ctx, cacheKey).Result(); err == nil {
			if id, err := strconv.ParseInt(cached, 10, 64); err == nil {
				return id, true, nil
			}
		}
	}

	rows, err := r.pool.Query(ctx, `SELECT id, name FROM `+r.table)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", r.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var candidate string
		if err := rows.Scan(&id, &candidate); err != nil {
			return nil, false, fmt.Errorf("scan %s: %w", r.table, err)
		}
		if !r.Matches(candidate, name) {
			continue
		}
		if r.rdb != nil {
			if err := r.rdb.Set(ctx, cacheKey, strconv.FormatInt(id, 10), r.cacheTTL).Err(); err != nil {
				logger.Warn("category_cache_set_failed", map[string]any{
					"table": r.table,
					"error": err.Error(),
				})
			}
		}
		return id, true, nil
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate %s: %w", r.table, err)
	}
	return nil, false, nil
}

// Matches reports whether two names are equal at primary collation strength.
func (r *CategoryResolver) Matches(a, b string) bool {
	return r.collator.CompareString(a, b) == 0
}
