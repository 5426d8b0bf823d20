package query

import (
	"net/http"
	"net/url"
	"strings"
)

// RawParams is the read-only input of one list request: the flat query
// parameter map plus the request context used for URL composition. Values in
// Query are strings, string slices, or (for the "filter" key) a nested map.
type RawParams struct {
	Query    map[string]any
	Proto    string
	Host     string
	BasePath string
	Path     string
}

// ParamsFromValues converts url.Values into the flat map shape, collapsing
// single-element slices to plain strings so downstream code sees the same
// shapes regardless of how the request arrived.
func ParamsFromValues(v url.Values) map[string]any {
	q := make(map[string]any, len(v))
	for key, vals := range v {
		if len(vals) == 1 {
			q[key] = vals[0]
		} else {
			q[key] = append([]string(nil), vals...)
		}
	}
	return q
}

// FromRequest builds RawParams from an HTTP request. basePath is the prefix
// the handler is mounted under and is stripped from the echoed path.
func FromRequest(r *http.Request, basePath string) RawParams {
	return RawParams{
		Query:    ParamsFromValues(r.URL.Query()),
		Proto:    requestProto(r),
		Host:     r.Host,
		BasePath: basePath,
		Path:     strings.TrimPrefix(r.URL.Path, basePath),
	}
}

func requestProto(r *http.Request) string {
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
