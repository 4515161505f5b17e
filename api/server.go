/*
server.go - HTTP router and middleware configuration

ROUTER: chi

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/people        Roster
  /api/sessions/*    Login, week view, navigation, save
  /api/admin/*       Admin gate (X-Admin-Secret), raw store access

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/timesheet/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
// allowedOrigins defaults to the local dev frontends when empty.
func NewRouter(h *Handler, allowedOrigins ...string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", AdminSecretHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/people", h.ListPeople)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)

				r.Get("/week", h.GetWeek)
				r.Put("/week", h.SaveWeek)
				r.Post("/week/next", h.NextWeek)
				r.Post("/week/previous", h.PreviousWeek)
				r.Post("/week/today", h.CurrentWeek)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.adminGate)
			r.Post("/unlock", h.UnlockAdmin)
			r.Get("/entries", h.ListEntries)
			r.Put("/entries", h.OverwriteEntries)
			r.Get("/export", h.ExportEntries)
			r.Post("/import", h.ImportEntries)
		})
	})

	return r
}

// adminGate rejects requests whose secret the Authorizer does not accept.
func (h *Handler) adminGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.Admin.Unlock(r.Header.Get(AdminSecretHeader)); err != nil {
			writeError(w, http.StatusUnauthorized, "Wrong passphrase", err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
