package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"go-market/internal/chat"
	"go-market/internal/config"
	"go-market/internal/db"
	"go-market/internal/events"
	"go-market/internal/favorite"
	"go-market/internal/identity"
	"go-market/internal/listing"
	myMiddleware "go-market/internal/middleware"
	"go-market/internal/platform/logger"
	"go-market/internal/platform/tracer"
)

const serviceName = "go-market"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet.
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// 1. Tracing
	shutdownTracer, err := tracer.Init(ctx, cfg.OTLPEndpoint, serviceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	// 2. Database
	database, err := db.NewDatabase(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer database.Close()
	log.Info("connected to PostgreSQL")

	if err := database.AutoMigrate(ctx); err != nil {
		return err
	}
	log.Info("database schema initialized")

	// 3. Redis listing cache
	var cache listing.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		cache = listing.NewRedisCache(redisClient, cfg.ListingCacheTTL)
		log.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
	}

	// 4. Domain events
	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		nats, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer nats.Close()
		publisher = nats
		log.Info("connected to NATS", zap.String("url", cfg.NATSURL))
	}

	// 5. Features
	identityService := identity.NewService(cfg.JWTSecret, cfg.JWTIssuer)
	identityHandler := identity.NewHandler(log)

	favoriteService := favorite.NewService(favorite.NewRepository(database.Conn), publisher, log)
	favoriteHandler := favorite.NewHandler(favoriteService, log)

	listingService := listing.NewService(listing.NewRepository(database.Conn), cache, publisher, log)
	listingHandler := listing.NewHandler(listingService, favoriteService, log)

	chatService := chat.NewService(chat.NewRepository(database.Conn), listingService, publisher, log)
	chatHandler := chat.NewHandler(chatService, log)

	authMiddleware := myMiddleware.NewAuthMiddleware(identityService, log)
	metrics := myMiddleware.NewMetrics("gomarket")

	// 6. Routes
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(myMiddleware.Logger(log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Handle)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.Conn.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)
		r.Get("/api/me", identityHandler.Me)
		listingHandler.Routes(r)
		chatHandler.Routes(r)
		favoriteHandler.Routes(r)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
