package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/spherical/statement-extractor/internal/observability"
)

// RouterConfig holds router settings.
type RouterConfig struct {
	ServiceName    string
	MaxUploadBytes int64
	// RequestTimeout bounds a whole extraction. 0 disables it.
	RequestTimeout time.Duration
}

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, pipeline domain.Pipeline, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = observability.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found", r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", r.Method)
	})

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "statement-extractor"
	}
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": serviceName})
	})

	extractHandler := NewExtractHandler(logger, pipeline, cfg.MaxUploadBytes)
	r.Post("/extract", extractHandler.Extract)

	return r
}
