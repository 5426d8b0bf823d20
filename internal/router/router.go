package router

import (
	"net/http"

	"QlistAPI/internal/config"
	"QlistAPI/internal/handler"
	"QlistAPI/internal/logger"

	"github.com/google/uuid"
)

// InitRoutes registers the API routes on the default mux.
func InitRoutes(cfg *config.Config) {
	handler.Init(cfg)
	prefix := cfg.BasePath
	if prefix == "" {
		prefix = "/api"
	}
	http.HandleFunc(prefix+"/", withCORS(cfg.CORS.AllowOrigin, cfg.CORS.AllowCredentials, withLogging(handler.Dispatch)))
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)

		level := "info"
		if sw.status >= 500 {
			level = "error"
		} else if sw.status >= 400 {
			level = "warn"
		}
		fields := map[string]any{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     sw.status,
		}
		switch level {
		case "error":
			logger.Error("response", fields)
		case "warn":
			logger.Warn("response", fields)
		default:
			logger.Info("response", fields)
		}
	}
}
