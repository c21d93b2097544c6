package main

import (
	"context"
	"errors"
	"fintrack/internal/api"
	"fintrack/internal/api/handler"
	"fintrack/internal/app/notify"
	"fintrack/internal/app/ratelimit"
	"fintrack/internal/app/service"
	"fintrack/internal/common/security"
	"fintrack/internal/domain/repository"
	"fintrack/internal/platform/config"
	"fintrack/internal/platform/database"
	"fintrack/internal/platform/logger"
	"fintrack/internal/platform/queue"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fintrack: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 2. Initialize Logger
	log, err := logger.Init(logger.Config{Level: cfg.LogLevel, Dev: !cfg.IsProd(), Dir: cfg.LogDir})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.Check{}

	// 3. Initialize Repositories
	var (
		userRepo repository.UserRepository
		txRepo   repository.TransactionRepository
	)
	switch cfg.DataBackend {
	case config.BackendPostgres:
		db, err := database.Connect(ctx, cfg.DBConnStr)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(ctx, db.DB); err != nil {
			return err
		}
		log.Info("database connected and migrated")
		userRepo = repository.NewPgUserRepository(db)
		txRepo = repository.NewPgTransactionRepository(db)
		checks["postgres"] = db.PingContext
	default:
		log.Warn("using in-memory storage; data is lost on restart")
		userRepo = repository.NewMemoryUserRepository()
		txRepo = repository.NewMemoryTransactionRepository()
	}

	// 4. Initialize Redis
	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb, err = queue.Connect(ctx, queue.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		log.Info("redis connected", zap.String("addr", cfg.RedisAddr))
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	limiterCfg := ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}
	var limiter ratelimit.Limiter
	if cfg.RateLimitBackend == config.BackendRedis {
		limiter = ratelimit.NewRedisLimiter(rdb, limiterCfg)
	} else {
		memLimiter := ratelimit.NewMemoryLimiter(limiterCfg)
		defer memLimiter.Stop()
		limiter = memLimiter
	}

	var sender notify.CodeSender = notify.NewLogCodeSender(log)
	if cfg.ResetCodeQueue != "" {
		sender = notify.NewRedisCodeSender(rdb, cfg.ResetCodeQueue)
	}

	// 5. Initialize Services
	tokens := security.NewTokenService(cfg.JWTKey, cfg.JWTExp)
	authService := service.NewAuthService(userRepo, tokens, sender, service.AuthConfig{
		PasswordMinLen:  cfg.PasswordMinLen,
		ExposeResetCode: cfg.EnableDevResetCodes,
	})
	userService := service.NewUserService(userRepo, cfg.PasswordMinLen)
	txService := service.NewTransactionService(txRepo)

	if cfg.SeedDemoUsers {
		if err := userService.SeedDemoUsers(ctx, log); err != nil {
			return fmt.Errorf("seed demo users: %w", err)
		}
	}

	// 6. Initialize Router & HTTP Server
	router := api.NewRouter(api.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		MaxPerPage:     cfg.MaxPerPage,
	}, api.Deps{
		Logger:             log,
		Tokens:             tokens,
		AuthLimiter:        limiter,
		HealthChecks:       checks,
		AuthService:        authService,
		UserService:        userService,
		TransactionService: txService,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful Shutdown
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("env", cfg.Env),
			zap.String("data_backend", cfg.DataBackend),
			zap.String("rate_limit_backend", cfg.RateLimitBackend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}
