package handler

import (
	"encoding/json"
	"net/http"

	"QlistAPI/internal/db"
	"QlistAPI/internal/logger"
	"QlistAPI/internal/query"
	"QlistAPI/internal/resource"
	"QlistAPI/internal/store"
)

// CountHandler serves GET {basePath}/{resource}/count: the same filter
// pipeline as the list endpoint, returning only the matching total.
func CountHandler(w http.ResponseWriter, r *http.Request, res *resource.Resource) {
	if r.Method != http.MethodGet {
		http.Error(w, "Only GET allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := query.FromRequest(r, basePath)
	parsed, err := query.Parse(r.Context(), raw, res.QueryConfig(resolverFor(res)))
	if err != nil {
		writeParseError(w, res.Name, err)
		return
	}

	coll := store.New(db.Pool, res.Table)
	count, err := coll.Count(r.Context(), query.Compile(parsed.Filter))
	if err != nil {
		logger.Error("count_failed", map[string]any{
			"resource": res.Name,
			"error":    err.Error(),
		})
		http.Error(w, "Failed to count: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"count": count})
}
