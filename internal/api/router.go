package api

import (
	"fintrack/internal/api/handler"
	"fintrack/internal/api/middleware"
	"fintrack/internal/app/ratelimit"
	"fintrack/internal/app/service"
	"fintrack/internal/common"
	"fintrack/internal/common/security"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// MaxPerPage caps per_page on list requests; 0 leaves it unbounded.
	MaxPerPage int
}

type Deps struct {
	Logger       *zap.Logger
	Tokens       *security.TokenService
	AuthLimiter  ratelimit.Limiter
	HealthChecks map[string]handler.Check

	AuthService        *service.AuthService
	UserService        *service.UserService
	TransactionService *service.TransactionService
}

func NewRouter(opts Options, deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// Base Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recoverer(log))
	r.Use(chiMiddleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, common.NewError(common.ErrNotFound, "route not found"))
	})

	// Public health check
	r.Method(http.MethodGet, "/healthz", handler.NewHealthHandler(deps.HealthChecks))

	authHandler := handler.NewAuthHandler(deps.AuthService, log)
	userHandler := handler.NewUserHandler(deps.UserService, log)
	txHandler := handler.NewTransactionHandler(deps.TransactionService, log, opts.MaxPerPage)

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/auth", func(auth chi.Router) {
			auth.Use(middleware.RateLimit(deps.AuthLimiter, log))
			authHandler.RegisterRoutes(auth)
		})

		userHandler.RegisterPublicRoutes(v1)

		v1.Group(func(protected chi.Router) {
			protected.Use(middleware.Authenticator(deps.Tokens))
			userHandler.RegisterRoutes(protected)
			protected.Route("/transactions", txHandler.RegisterRoutes)
		})
	})

	return r
}
