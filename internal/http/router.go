package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/blakestevenson/marquee/internal/auth"
	"github.com/blakestevenson/marquee/internal/catalog"
	"github.com/blakestevenson/marquee/internal/discovery"
	"github.com/blakestevenson/marquee/internal/http/handlers"
	"github.com/blakestevenson/marquee/internal/httputil"
	"github.com/blakestevenson/marquee/internal/review"
)

// RouterConfig holds the transport settings of the router
type RouterConfig struct {
	CORSOrigins    []string
	AuthRateLimit  int
	AuthRateWindow time.Duration
	CookieSecure   bool
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

// NewRouter creates and configures the HTTP router
func NewRouter(
	discoveryService *discovery.Service,
	reviewService *review.Service,
	authService auth.Service,
	cfg RouterConfig,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(RecoverMiddleware(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Compress(5))

	// Handlers
	mediaHandler := handlers.NewMediaHandler(discoveryService, logger)
	reviewHandler := handlers.NewReviewHandler(reviewService, logger)
	authHandler := handlers.NewAuthHandler(authService, handlers.CookieConfig{
		Secure:     cfg.CookieSecure,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, logger)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Public auth routes, rate limited per client IP
			r.Group(func(r chi.Router) {
				if cfg.AuthRateLimit > 0 {
					r.Use(httprate.Limit(cfg.AuthRateLimit, cfg.AuthRateWindow,
						httprate.WithKeyFuncs(httprate.KeyByIP),
						httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
							httputil.RespondErrorMessage(w, http.StatusTooManyRequests, "Too many requests")
						}),
					))
				}

				r.Post("/signup", authHandler.Signup)
				r.Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.RefreshToken)
				r.Post("/logout", authHandler.Logout)
			})

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(authService, logger))

				r.Get("/me", authHandler.Me)
				r.Put("/password", authHandler.ChangePassword)
			})
		})

		// Catalog and review routes see anonymous or authenticated state
		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(authService, logger))

			r.Get("/media", mediaHandler.ListMedia)
			r.Get("/search", mediaHandler.Search)

			r.Route("/movies", func(r chi.Router) {
				r.Get("/category", mediaHandler.ListMovieCategory)
				r.Get("/upcoming", mediaHandler.Category(catalog.MediaTypeMovie, catalog.CategoryUpcoming))
				r.Get("/search", mediaHandler.SearchMovies)
				r.Get("/{id}", mediaHandler.Details(catalog.MediaTypeMovie))
				r.Get("/{id}/related", mediaHandler.Related(catalog.MediaTypeMovie))
			})

			r.Route("/tv", func(r chi.Router) {
				r.Get("/popular", mediaHandler.Category(catalog.MediaTypeTV, catalog.CategoryPopular))
				r.Get("/top-rated", mediaHandler.Category(catalog.MediaTypeTV, catalog.CategoryTopRated))
				r.Get("/on-the-air", mediaHandler.Category(catalog.MediaTypeTV, catalog.CategoryOnTheAir))
				r.Get("/airing-today", mediaHandler.Category(catalog.MediaTypeTV, catalog.CategoryAiringToday))
				r.Get("/{id}", mediaHandler.Details(catalog.MediaTypeTV))
				r.Get("/{id}/related", mediaHandler.Related(catalog.MediaTypeTV))
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Post("/", reviewHandler.Submit)
				r.Get("/{mediaId}", reviewHandler.List)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondErrorMessage(w, http.StatusNotFound, "Not found")
	})

	return r
}
