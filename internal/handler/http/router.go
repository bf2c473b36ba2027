package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sahilbhanushali/GharGrocerProd/pkg/health"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/middleware"
)

// RouterConfig holds the tunables of the HTTP surface.
type RouterConfig struct {
	CORS           middleware.CORSConfig
	RateLimitRPS   float64
	RateLimitBurst int
	PprofCIDRs     []string
}

// NewRouter creates a chi router with all storefront routes registered.
// ctx bounds background work owned by the router, such as rate limiter
// cleanup.
func NewRouter(
	ctx context.Context,
	h *Handler,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger, "/health/live", "/health/ready", "/metrics"))
	r.Use(middleware.PrometheusMetrics())
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(logger, func(*http.Request) string { return h.session.UserID() }))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Get("/", h.GetCart)
			r.Delete("/", h.ResetCart)
			r.Post("/hydrate", h.HydrateCart)

			r.Post("/items", h.AddCartItem)
			r.Get("/items/{productId}", h.GetCartItem)
			r.Put("/items/{productId}", h.UpdateCartItem)
			r.Delete("/items/{productId}", h.RemoveCartItem)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Get("/", h.GetWishlist)
			r.Delete("/", h.ClearWishlist)

			r.Post("/items", h.AddWishlistItem)
			r.Get("/items/{productId}", h.GetWishlistItem)
			r.Put("/items/{productId}", h.UpdateWishlistItem)
			r.Delete("/items/{productId}", h.RemoveWishlistItem)
		})

		r.Route("/session", func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Get("/", h.GetSession)
			r.Post("/", h.Login)
			r.Delete("/", h.Logout)
			r.Post("/validate", h.ValidateSession)

			r.With(middleware.RequireSession(h.session)).Patch("/profile", h.UpdateProfile)
		})

		r.Route("/products", func(r chi.Router) {
			r.Use(middleware.CacheControl(60))

			r.Get("/", h.ListProducts)
			r.Get("/feed", h.ProductFeed)
			r.Get("/{productId}", h.GetProduct)
		})
	})

	return r
}
