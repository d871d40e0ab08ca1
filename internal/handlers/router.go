package handlers

import (
	"net/http"
	"time"

	"zeus-backend/internal/auth"
	"zeus-backend/internal/config"
	"zeus-backend/internal/infrastructure/observability"
	"zeus-backend/internal/middleware"
	"zeus-backend/internal/service/posts"
	"zeus-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Router wires every handler onto one chi router.
type Router struct {
	cfg     *config.Config
	manager *auth.Manager
	posts   posts.Service
	feed    CategoryFeed
	metrics *observability.Collector
	logger  *zap.Logger
}

func NewRouter(
	cfg *config.Config,
	manager *auth.Manager,
	postService posts.Service,
	feed CategoryFeed,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:     cfg,
		manager: manager,
		posts:   postService,
		feed:    feed,
		metrics: metrics,
		logger:  logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Recovery(rt.logger))
	router.Use(middleware.Logger(rt.logger))
	router.Use(observability.MetricsMiddleware(rt.metrics))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           rt.cfg.CORS.MaxAge,
	}))

	router.Get("/health", rt.healthCheck)
	if rt.cfg.Metrics.Enabled && rt.metrics != nil {
		router.Handle(rt.cfg.Metrics.Path, promhttp.HandlerFor(rt.metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	authHandler := NewAuthHandler(rt.manager, rt.logger)
	postHandler := NewPostHandler(rt.posts, rt.cfg.Server.MaxUploadSize, rt.logger)
	categoryHandler := NewCategoryHandler(rt.feed, rt.logger)
	feedHandler := NewFeedHandler(rt.feed, nil, rt.logger)

	mutations := func(r chi.Router) {
		if rt.cfg.Auth.RequireSession {
			r.Use(middleware.RequireSession(rt.manager))
		}
	}

	timeout := middleware.Timeout(rt.cfg.Server.RequestTimeout)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(timeout)
			r.Post("/sign-in", authHandler.SignIn)
			r.Post("/sign-up", authHandler.SignUp)
			r.Post("/sign-out", authHandler.SignOut)
			r.Get("/session", authHandler.Session)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Use(timeout)
			r.Get("/", postHandler.ListPosts)
			r.Get("/search", postHandler.SearchPosts)
			r.Get("/{postID}", postHandler.GetPost)

			r.Group(func(r chi.Router) {
				mutations(r)
				r.Post("/", postHandler.CreatePost)
				r.Put("/{postID}", postHandler.UpdatePost)
				r.Delete("/{postID}", postHandler.DeletePost)
			})
		})

		r.Route("/images", func(r chi.Router) {
			r.Use(timeout)
			mutations(r)
			r.Post("/", postHandler.UploadImage)
		})

		r.Route("/categories", func(r chi.Router) {
			// The feed is long-lived and stays outside the request timeout.
			r.Get("/feed", feedHandler.Stream)

			r.Group(func(r chi.Router) {
				r.Use(timeout)
				r.Get("/", categoryHandler.ListCategories)

				r.Group(func(r chi.Router) {
					mutations(r)
					r.Post("/", categoryHandler.CreateCategory)
					r.Delete("/", categoryHandler.DeleteCategory)
					r.Delete("/{name}", categoryHandler.DeleteCategory)
				})
			})
		})
	})

	return otelhttp.NewHandler(router, "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	_, loaded := rt.feed.Snapshot(r.Context())
	api.Success(w, http.StatusOK, api.HealthResponse{
		Status:      "healthy",
		Environment: string(rt.cfg.Environment),
		Categories:  loaded,
	})
}

// NewServer creates the HTTP server for handler.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}
