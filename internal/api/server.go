// Package api provides the HTTP API server and handlers for BookMate.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bookmate/bookmate-server/internal/ratelimit"
	"github.com/bookmate/bookmate-server/internal/search"
	"github.com/bookmate/bookmate-server/internal/service"
	"github.com/bookmate/bookmate-server/internal/store"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Auth           *service.AuthService
	Book           *service.BookService
	Query          *service.QueryService
	Dashboard      *service.DashboardService
	Export         *service.ExportService
	Recommendation *service.RecommendationService
	Search         *service.SearchService
}

// Options configures the HTTP surface.
type Options struct {
	CORSAllowedOrigins []string
	// AuthRateLimiter throttles register and login per client IP. Nil
	// disables throttling.
	AuthRateLimiter *ratelimit.Limiter
	// AccessLog enables chi's request logger.
	AccessLog bool
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       store.UserStore
	index       *search.Index
	services    *Services
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger
	authLimiter *ratelimit.Limiter
	now         func() time.Time
}

// NewServer creates a new HTTP server with all routes configured. index may
// be nil when search is unavailable.
func NewServer(st store.UserStore, index *search.Index, services *Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	router := chi.NewRouter()
	s := &Server{
		store:       st,
		index:       index,
		services:    services,
		router:      router,
		logger:      logger,
		authLimiter: opts.AuthRateLimiter,
		now:         time.Now,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("BookMate API", "1.0.0")
	humaConfig.Info.Description = "Personal book tracker: collections, reading progress, statistics and recommendations."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, for tests and OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	if opts.AccessLog {
		s.router.Use(middleware.Logger)
	}
	s.router.Use(middleware.Recoverer)

	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if s.services != nil && s.services.Auth != nil {
		s.router.Use(authMiddleware(s.services.Auth))
	}
}

// registerRoutes configures all HTTP routes.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerCatalogRoutes()
	s.registerBookRoutes()
	s.registerQueryRoutes()
	s.registerSearchRoutes()
	s.registerDashboardRoutes()
	s.registerRecommendationRoutes()
}

// bearerSecurity marks an operation as requiring an access token.
var bearerSecurity = []map[string][]string{{"bearer": {}}}
