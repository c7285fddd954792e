package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/venuebook/venuebook/internal/auth"
	"github.com/venuebook/venuebook/internal/config"
	"github.com/venuebook/venuebook/internal/outbox"
	"github.com/venuebook/venuebook/internal/postgres"
	"github.com/venuebook/venuebook/internal/rabbit"
	redisx "github.com/venuebook/venuebook/internal/redis"
	postgresrepo "github.com/venuebook/venuebook/internal/repository/postgres"
	redisrepo "github.com/venuebook/venuebook/internal/repository/redis"
	"github.com/venuebook/venuebook/internal/service"
	"github.com/venuebook/venuebook/internal/service/availability"
	"github.com/venuebook/venuebook/internal/service/booking"
	httpgin "github.com/venuebook/venuebook/internal/transport/http/gin"
)

const sweepInterval = time.Minute

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	services   *service.Services
	outboxPub  *outbox.Publisher
	broker     *rabbit.Publisher
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redisx.New(context.Background(), redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	broker, err := rabbit.NewPublisher(cfg.Rabbit.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rabbitmq: %w", err)
	}

	authMgr, err := auth.NewManager(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisx.NewVenuesPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "rl", cfg.Booking.RateLimitPerMin, time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	// Initialize services
	services := service.NewServices(store, cache, pubsub, limiter, service.Config{
		Booking:      booking.Config{CancellationCutoff: cfg.Booking.CancellationCutoff},
		Availability: availability.Config{SlotGranularity: cfg.Booking.SlotGranularity},
	})

	// Initialize Gin router
	router := httpgin.NewRouter(services, idempotencyStore, authMgr, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		services:  services,
		outboxPub: outbox.NewPublisher(store, broker, logger),
		broker:    broker,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Drain staged events to the broker
	g.Go(func() error {
		a.outboxPub.Run(gCtx)
		return nil
	})

	// Flip elapsed confirmed bookings to completed
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				n, err := a.services.Booking.CompleteElapsed(gCtx)
				if err != nil {
					a.logger.Error("completion sweep failed", "error", err)
					continue
				}
				if n > 0 {
					a.logger.Info("bookings completed", "count", n)
				}
			}
		}
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		defer a.broker.Close()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
