package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/tillsync/internal/http/auth"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

// EntityRoutes is implemented by the per-entity sync handlers.
type EntityRoutes interface {
	Entity() record.Entity
	Routes(r chi.Router)
}

type Options struct {
	// Secret enables bearer auth on the sync routes when set.
	Secret      []byte
	CORSOrigins []string
	Health      func(ctx context.Context) error
}

func New(opts Options, handlers ...EntityRoutes) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	router.Get("/healthz", healthz(opts.Health))

	router.Route("/api/sync", func(r chi.Router) {
		if len(opts.Secret) > 0 {
			r.Use(auth.Middleware(opts.Secret))
		}

		for _, h := range handlers {
			r.Route("/"+h.Entity().String(), func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Routes(r)
			})
		}
	})

	return router
}

func healthz(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}

		if check != nil {
			if err := check(r.Context()); err != nil {
				slog.Error("health check failed", "error", err)

				status = http.StatusServiceUnavailable
				body["status"] = "unavailable"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)

		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}
