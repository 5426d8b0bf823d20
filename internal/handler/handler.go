package handler

import (
	"net/http"
	"strings"
	"time"

	"QlistAPI/internal/catalog"
	"QlistAPI/internal/config"
	"QlistAPI/internal/db"
	"QlistAPI/internal/query"
	"QlistAPI/internal/resource"
)

var (
	basePath string
	locale   string
	cacheTTL time.Duration
)

// Init stores the request-independent settings the handlers need.
func Init(cfg *config.Config) {
	basePath = strings.TrimSuffix(cfg.BasePath, "/")
	locale = cfg.Locale
	cacheTTL = cfg.Category.CacheTTL
}

// Dispatch routes {basePath}/{resource} and {basePath}/{resource}/count to
// the list and count handlers.
func Dispatch(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, basePath), "/")
	parts := strings.Split(rest, "/")

	res, ok := resource.Registry[parts[0]]
	if !ok || parts[0] == "" {
		http.Error(w, "Unknown resource", http.StatusNotFound)
		return
	}

	switch {
	case len(parts) == 1:
		ListHandler(w, r, res)
	case len(parts) == 2 && parts[1] == "count":
		CountHandler(w, r, res)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// resolverFor wires a category resolver when the resource declares a lookup
// table; the engine treats it as an opaque capability.
func resolverFor(res *resource.Resource) query.Resolver {
	if res.CategoryParam == "" || res.CategoryTable == "" {
		return nil
	}
	return catalog.NewCategoryResolver(db.Pool, db.RDB, res.CategoryTable, locale, cacheTTL)
}
