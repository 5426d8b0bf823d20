package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"QlistAPI/internal/db"
	"QlistAPI/internal/logger"
	"QlistAPI/internal/query"
	"QlistAPI/internal/resource"
	"QlistAPI/internal/store"
)

// ListHandler serves GET {basePath}/{resource}: it parses the query
// directives, executes count+fetch and writes the pagination envelope.
func ListHandler(w http.ResponseWriter, r *http.Request, res *resource.Resource) {
	if r.Method != http.MethodGet {
		logger.Warn("method_not_allowed", map[string]any{
			"resource": res.Name,
			"method":   r.Method,
		})
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
	docs, total, err := query.Execute(r.Context(), coll, parsed, res.Relations())
	if err != nil {
		logger.Error("list_failed", map[string]any{
			"resource": res.Name,
			"error":    err.Error(),
		})
		http.Error(w, "Failed to execute query: "+err.Error(), http.StatusInternalServerError)
		return
	}

	env := query.BuildEnvelope(raw, parsed, docs, total)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.Error("write_response_failed", map[string]any{
			"resource": res.Name,
			"error":    err.Error(),
		})
	}
}

func writeParseError(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, query.ErrInvalidDate) {
		logger.Warn("invalid_date_param", map[string]any{
			"resource": name,
			"error":    err.Error(),
		})
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.Error("parse_failed", map[string]any{
		"resource": name,
		"error":    err.Error(),
	})
	http.Error(w, "Failed to parse query: "+err.Error(), http.StatusInternalServerError)
}
