package router

import (
	"net/http"
	"time"

	"shophub/internal/handler"
	"shophub/internal/middleware"
	"shophub/internal/session"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Options carries the router settings taken from configuration.
type Options struct {
	AdminAPIKey    string
	AllowedOrigins []string
	SessionIdle    time.Duration
}

// New creates a new HTTP router with all routes and middleware configured.
func New(
	storeHandler *handler.StoreHandler,
	adminHandler *handler.AdminHandler,
	healthHandler *handler.HealthHandler,
	sessions *session.Manager,
	opts Options,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> RealIP -> Logging -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Health check endpoint (no session or authentication)
	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Session(sessions, opts.SessionIdle, logger))

		r.Route("/store", func(r chi.Router) {
			r.Get("/products", storeHandler.ListProducts)
			r.Get("/cart", storeHandler.GetCart)
			r.Delete("/cart", storeHandler.ClearCart)
			r.Post("/cart/items", storeHandler.AddItem)
			r.Delete("/cart/items/{productId}", storeHandler.RemoveItem)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(opts.AdminAPIKey, logger))

			r.Get("/products", adminHandler.ListProducts)
			r.Delete("/products/{productId}", adminHandler.DeleteProduct)

			r.Get("/draft", adminHandler.GetDraft)
			r.Post("/draft", adminHandler.StartCreate)
			r.Patch("/draft", adminHandler.UpdateDraft)
			r.Delete("/draft", adminHandler.CancelDraft)
			r.Post("/draft/submit", adminHandler.SubmitDraft)
			r.Post("/draft/{productId}", adminHandler.StartEdit)
		})
	})

	return r
}
