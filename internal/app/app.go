package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samiunarno/Flight-management-Backend/internal/config"
	"github.com/samiunarno/Flight-management-Backend/internal/kafka"
	"github.com/samiunarno/Flight-management-Backend/internal/postgres"
	redisx "github.com/samiunarno/Flight-management-Backend/internal/redis"
	postgresrepo "github.com/samiunarno/Flight-management-Backend/internal/repository/postgres"
	redisrepo "github.com/samiunarno/Flight-management-Backend/internal/repository/redis"
	"github.com/samiunarno/Flight-management-Backend/internal/scheduler"
	"github.com/samiunarno/Flight-management-Backend/internal/service"
	"github.com/samiunarno/Flight-management-Backend/internal/service/booking"
	httpgin "github.com/samiunarno/Flight-management-Backend/internal/transport/http/gin"
	"github.com/samiunarno/Flight-management-Backend/internal/uow"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	scheduler  *scheduler.Scheduler
	producer   *kafka.Producer
	cache      *redisrepo.Cache
	pubsub     *redisx.FlightsPubSub
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: cfg.Postgres.DSN()})
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

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	txRunner := uow.NewUoW(store)
	cache := redisrepo.New(rdb)
	pubsub := redisx.NewFlightsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, redisx.RateLimitPrefix("bookings"), 10, 1*time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	producer := kafka.NewProducer(cfg.Kafka.Brokers)

	sched := scheduler.New(store.Bookings(), logger, scheduler.Config{
		SweepInterval: cfg.Worker.SweepInterval,
	})

	// Initialize services
	services := service.NewServices(store, txRunner, service.Deps{
		Cache:     cache,
		PubSub:    pubsub,
		Producer:  producer,
		Scheduler: sched,
	}, logger, service.Config{
		Booking: booking.Config{
			HoldDuration:       cfg.Booking.HoldDuration,
			EventsTopic:        cfg.Kafka.BookingEventsTopic,
			NotificationsTopic: cfg.Kafka.NotificationsTopic,
		},
	})

	// The scheduler drives the engine's release path and the engine arms the
	// scheduler's timers, so one side is attached after construction.
	sched.AttachReleaser(services.Booking)

	// Initialize Gin router
	router := httpgin.NewRouter(services, idempotencyStore, limiter, logger)

	return &App{
		cfg:       cfg,
		logger:    logger,
		scheduler: sched,
		producer:  producer,
		cache:     cache,
		pubsub:    pubsub,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
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

	// Reconcile lapsed holds at startup, then sweep periodically
	g.Go(func() error {
		if err := a.scheduler.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scheduler stopped: %w", err)
		}
		return nil
	})

	// Drop cached flight reads when another instance reports a change
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, flightID int64) {
			if err := a.cache.InvalidateFlight(ctx, flightID); err != nil {
				a.logger.Warn("invalidate flight cache failed", "flight_id", flightID, "error", err)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("flights subscription stopped: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")

		if err := a.producer.Close(); err != nil {
			a.logger.Warn("failed to close kafka producer", "error", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
