package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/AnshRaj112/karmnik-backend/internal/config"
	"github.com/AnshRaj112/karmnik-backend/internal/database"
	"github.com/AnshRaj112/karmnik-backend/internal/handlers"
	"github.com/AnshRaj112/karmnik-backend/internal/logger"
	"github.com/AnshRaj112/karmnik-backend/internal/middleware"
	"github.com/AnshRaj112/karmnik-backend/internal/routes"
	"github.com/AnshRaj112/karmnik-backend/internal/services"
	"github.com/AnshRaj112/karmnik-backend/internal/store"
	"github.com/AnshRaj112/karmnik-backend/internal/view"
)

func main() {
	// Load env
	envErr := godotenv.Load()
	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.LogLevel))
	if envErr != nil {
		logger.Info("no .env file found", "module", "main")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feedings, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open feedings store", "module", "main", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Redis is optional: without it changes are only seen by this instance.
	if cfg.RedisEnabled() {
		if err := database.ConnectRedis(cfg.RedisURI); err != nil {
			logger.Error("failed to connect to redis", "module", "main", "error", err)
			os.Exit(1)
		}
		defer database.DisconnectRedis()
	} else {
		logger.Warn("REDIS_URI not set, live updates stay local to this instance", "module", "main")
	}

	hub := services.NewFeedingHub(feedings)
	go hub.Run(ctx)

	var notifier services.Notifier
	if database.RedisClient != nil {
		rn := services.NewRedisNotifier(database.RedisClient, hub)
		rn.Start(ctx)
		notifier = rn
	} else {
		notifier = services.NewLocalNotifier(hub)
	}

	if cfg.WatchStore {
		if w, ok := feedings.(store.Watcher); ok {
			services.StartStoreWatcher(ctx, w, hub)
			logger.Info("store watcher started", "module", "main", "backend", cfg.StoreBackend)
		} else {
			logger.Warn("WATCH_STORE ignored, backend cannot be watched", "module", "main", "backend", cfg.StoreBackend)
		}
	}

	formatter, err := view.NewFormatter(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, formatting in UTC", "module", "main", "timezone", cfg.Timezone, "error", err)
	}

	svc := services.NewFeedingService(feedings, notifier, hub)
	h := handlers.NewFeedingHandler(svc, hub, formatter, handlers.FeedingHandlerOptions{
		AllowedOrigins:   cfg.AllowedOrigins,
		WriteKeyRequired: cfg.WriteKeyHash != "",
	})

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → WriteRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		logger.Info("production security enabled", "module", "main", "host", cfg.AllowedHost)
	} else {
		r.Use(middleware.RedisRateLimit(database.RedisClient))
	}
	r.Use(middleware.WriteKey(cfg.WriteKeyHash))

	// Health check
	r.Get("/health", h.Health)

	routes.SetupRoutes(r, h)

	// No WriteTimeout: it would cut the WebSocket streams.
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("karmnik backend running", "module", "main", "port", cfg.Port, "env", cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "module", "main", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down", "module", "main")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "module", "main", "error", err)
	}
	logger.Info("server stopped", "module", "main")
}

// openStore connects the configured backend. cleanup releases its connection.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
			return nil, nil, err
		}
		return store.NewPostgresStore(database.PostgresDB, cfg.PostgresURI), func() { _ = database.DisconnectPostgres() }, nil

	case config.BackendMemory:
		logger.Warn("using in-memory store, feedings are lost on restart", "module", "main")
		return store.NewMemoryStore(), func() {}, nil

	default:
		if err := database.Connect(cfg.MongoURI); err != nil {
			return nil, nil, err
		}
		ms := store.NewMongoStore(database.DB)
		ictx, icancel := context.WithTimeout(ctx, 10*time.Second)
		defer icancel()
		if err := ms.EnsureIndexes(ictx); err != nil {
			logger.Warn("failed to ensure feedings indexes", "module", "main", "error", err)
		}
		return ms, func() { _ = database.Disconnect() }, nil
	}
}
