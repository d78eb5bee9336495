/**
 * @description
 * This file sets up the HTTP router for the registry. It defines the public, auth and
 * admin endpoints, associates them with their handlers and applies the middleware stack.
 * Streaming endpoints are registered outside the request timeout.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS handling for the browser client.
 */

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures the router around the handlers.
type RouterOptions struct {
	AllowedOrigins []string
	// UploadDir and UploadURLPrefix serve the local proof archive when set.
	UploadDir       string
	UploadURLPrefix string
	RequestTimeout  time.Duration
}

// NewRouter creates a new Chi router and registers the registry routes.
func NewRouter(h *Handlers, resolver SessionResolver, opts RouterOptions) *chi.Mux {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"https://*", "http://*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(SessionMiddleware(resolver, h.logger))

	if opts.UploadDir != "" {
		prefix := "/" + strings.Trim(opts.UploadURLPrefix, "/")
		if prefix == "/" {
			prefix = "/uploads"
		}
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(opts.UploadDir))))
	}

	// Server-sent event streams live as long as the client stays connected.
	r.Get("/stream/funding", h.handleStreamFunding)
	r.Get("/stream/gifts", h.handleStreamGifts)
	r.With(RequireAdmin(h.gate, h.logger)).Get("/admin/stream/contributions", h.handleStreamContributions)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))

		r.Get("/health", h.handleHealth)
		r.Get("/gifts", h.handleListGifts)
		r.Get("/gifts/{giftID}", h.handleGetGift)
		r.Get("/payment-methods", h.handlePaymentMethods)
		r.Post("/gifts/{giftID}/contributions", h.handleCreateContribution)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/sign-in", h.handleSignIn)
			r.Post("/sign-out", h.handleSignOut)
			r.Get("/me", h.handleMe)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(h.gate, h.logger))

			r.Get("/contributions", h.handleListContributions)
			r.Patch("/contributions/{contributionID}/status", h.handleSetContributionStatus)
			r.Delete("/contributions/{contributionID}", h.handleDeleteContribution)

			r.Post("/gifts", h.handleCreateGift)
			r.Patch("/gifts/{giftID}", h.handleUpdateGift)
			r.Delete("/gifts/{giftID}", h.handleDeleteGift)
		})
	})

	return r
}
