package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ledgerdesk/ledgerdesk/backend/internal/setup"
	mw "github.com/ledgerdesk/ledgerdesk/shared/middleware"
	"github.com/ledgerdesk/ledgerdesk/shared/middleware/metrics"
	rl "github.com/ledgerdesk/ledgerdesk/shared/middleware/ratelimiter"
)

// Backend CSP: JSON API only, nothing to load
const backendCSP = "default-src 'none'; frame-ancestors 'none'"

// New builds the HTTP API. Limiters attached with Use are shared by every
// route of that group.
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.SecurityHeadersWithCSP(deps.Config.Public.SecureCookies, backendCSP))

	h := deps.Handler

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.NeedAuth())
		r.Use(mw.RateLimit(rl.New(100, 200, time.Hour), mw.GetUserIDFromContext)) // 100 RPS per user

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", h.ListDocuments)
			r.Post("/", h.CreateDocument)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetDocument)
				r.Get("/participants", h.ListParticipants)
				r.Post("/status", h.SetStatus)
				r.Post("/replace", h.ReplaceDocument)
				r.Post("/supersede", h.SupersedeDocument)

				r.Get("/messages", h.ListMessages)
				r.With(mw.RateLimit(deps.MessageLimiter, mw.GetUserIDFromContext)).Post("/messages", h.SendMessage)
			})
		})

		r.Get("/messages/unread_count", h.UnreadCount)
		r.Post("/messages/{id}/read", h.MarkRead)
	})

	return r
}
