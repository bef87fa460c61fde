package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/mglynn/habitflow/internal/cache"
	"github.com/mglynn/habitflow/internal/config"
	"github.com/mglynn/habitflow/internal/database"
	"github.com/mglynn/habitflow/internal/handlers"
	"github.com/mglynn/habitflow/internal/logger"
	"github.com/mglynn/habitflow/internal/middleware"
	"github.com/mglynn/habitflow/internal/queue"
	"github.com/mglynn/habitflow/internal/services/oidc"
	"github.com/mglynn/habitflow/internal/state"
	"github.com/mglynn/habitflow/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	// The flag implies a terminal; console encoding is easier to read
	// there, while env-driven debug keeps JSON for log shipping.
	newLogger := logger.NewProductionLogger
	if *debugFlag {
		newLogger = logger.NewDevelopmentLogger
	}
	zapLogger, err := newLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry tracing if enabled
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "habitflow-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisLimiter.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	// RabbitMQ is optional; without it snapshot refreshes fall back to
	// synchronous computation behind the cache TTL.
	var jobQueue queue.JobQueue
	if cfg.RabbitMQURL != "" {
		jobQueue = connectQueueWithRetry(cfg.RabbitMQURL, zapLogger)
		if jobQueue != nil {
			defer func() {
				if err := jobQueue.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
		}
	} else {
		zapLogger.Warn("rabbitmq_not_configured_background_refresh_disabled")
	}

	// Repositories and per-user session state
	habitRepo := database.NewHabitRepository(db)
	friendRepo := database.NewFriendRepository(db)
	userRepo := database.NewUserRepository(db)
	sessions := state.NewManager(habitRepo, zapLogger)

	progressCache := cache.NewProgressCache(redisLimiter.Client(), time.Duration(cfg.ProgressCacheTTL)*time.Second)

	// OIDC token verification
	jwksManager := oidc.NewJWKSManager()
	verifier := oidc.NewVerifier(jwksManager, cfg.JWKSURL, cfg.OIDCIssuer)

	// Handlers
	habitHandler := handlers.NewHabitHandler(sessions, jobQueue, zapLogger)
	friendHandler := handlers.NewFriendHandler(friendRepo, habitRepo, userRepo, progressCache, zapLogger)
	tagHandler := handlers.NewTagHandler(sessions)
	userHandler := handlers.NewUserHandler(userRepo)

	var queueChecker handlers.QueueChecker
	if jobQueue != nil {
		queueChecker = jobQueue
	}
	healthChecker := handlers.NewHealthChecker(db, redisLimiter, queueChecker)

	r := mux.NewRouter()

	zapLogger.Info("setting_up_middleware")

	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("habitflow-api"))
		zapLogger.Info("otel_middleware_enabled")
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Recovery(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	rateLimitMW, err := middleware.RateLimit(redisLimiter, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Public routes (no rate limiting for health checks)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	// API v1 routes, all token protected
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	authMW := middleware.Auth(userRepo, verifier, zapLogger)

	habitsRouter := apiRouter.PathPrefix("/habits").Subrouter()
	habitsRouter.Use(authMW)
	habitsRouter.Use(rateLimitMW)
	habitHandler.RegisterRoutes(habitsRouter)

	friendsRouter := apiRouter.PathPrefix("/friends").Subrouter()
	friendsRouter.Use(authMW)
	friendsRouter.Use(rateLimitMW)
	friendHandler.RegisterRoutes(friendsRouter)

	tagsRouter := apiRouter.PathPrefix("/tags").Subrouter()
	tagsRouter.Use(authMW)
	tagsRouter.Use(rateLimitMW)
	tagHandler.RegisterRoutes(tagsRouter)

	usersRouter := apiRouter.PathPrefix("/users").Subrouter()
	usersRouter.Use(authMW)
	usersRouter.Use(rateLimitMW)
	userHandler.RegisterRoutes(usersRouter)

	// Catch-all OPTIONS handler so preflight requests get a response
	// even on routes without an explicit OPTIONS method
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectQueueWithRetry dials RabbitMQ with exponential backoff to ride
// out broker startup delays. Returns nil if all attempts fail.
func connectQueueWithRetry(amqpURL string, zapLogger *zap.Logger) queue.JobQueue {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue
		}

		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	zapLogger.Error("failed_to_connect_to_rabbitmq_after_retries", zap.Int("max_retries", maxRetries))
	return nil
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = err
	}
}
