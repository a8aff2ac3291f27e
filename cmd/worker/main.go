package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samiunarno/Flight-management-Backend/internal/config"
	"github.com/samiunarno/Flight-management-Backend/internal/email"
	"github.com/samiunarno/Flight-management-Backend/internal/kafka"
	"github.com/samiunarno/Flight-management-Backend/internal/postgres"
	redisx "github.com/samiunarno/Flight-management-Backend/internal/redis"
	postgresrepo "github.com/samiunarno/Flight-management-Backend/internal/repository/postgres"
	redisrepo "github.com/samiunarno/Flight-management-Backend/internal/repository/redis"
	"github.com/samiunarno/Flight-management-Backend/internal/scheduler"
	"github.com/samiunarno/Flight-management-Backend/internal/service/booking"
	"github.com/samiunarno/Flight-management-Backend/internal/uow"
	kafkago "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"
)

// The worker runs everything that happens off the request path: the expiry
// sweep over lapsed seat holds, the notifications consumer feeding the email
// sender, and the departure reminder job.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgxPool, err := postgres.New(ctx, postgres.Config{DSN: cfg.Postgres.DSN()})
	if err != nil {
		logger.Error("failed to initialize postgres", "error", err)
		os.Exit(1)
	}
	defer pgxPool.Close()

	rdb, err := redisx.New(ctx, redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Error("failed to initialize redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	store := postgresrepo.NewStore(pgxPool)
	txRunner := uow.NewUoW(store)
	cache := redisrepo.New(rdb)
	pubsub := redisx.NewFlightsPubSub(rdb)

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	bookingSvc := booking.New(
		store.Flights(), store.Bookings(), store.Payments(),
		txRunner, logger,
		booking.Config{
			HoldDuration:       cfg.Booking.HoldDuration,
			EventsTopic:        cfg.Kafka.BookingEventsTopic,
			NotificationsTopic: cfg.Kafka.NotificationsTopic,
		},
		booking.WithProducer(producer),
		booking.WithCache(cache),
		booking.WithPubSub(pubsub),
	)

	sched := scheduler.New(store.Bookings(), logger, scheduler.Config{
		SweepInterval: cfg.Worker.SweepInterval,
	})
	sched.AttachReleaser(bookingSvc)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := email.NewSender(logger)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("expiry sweep started", "interval", cfg.Worker.SweepInterval)
		if err := sched.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("notifications consumer started", "topic", cfg.Kafka.NotificationsTopic)
		err := consumer.Consume(gCtx, func(ctx context.Context, msg kafkago.Message) error {
			var event kafka.BookingEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				logger.Warn("malformed notification", "error", err)
				return nil
			}
			if err := sender.Send(ctx, event); err != nil {
				logger.Warn("send notification failed",
					"type", event.Type, "booking_id", event.BookingID, "error", err)
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("reminder job started", "interval", cfg.Worker.ReminderInterval)
		runReminders(gCtx, bookingSvc, producer, cfg, logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker finished with error", "error", err)
		os.Exit(1)
	}
}

// runReminders publishes a flight_reminder event for every confirmed booking
// roughly 24 hours before departure. Each tick covers one interval-wide
// window, so a booking is reminded once.
func runReminders(
	ctx context.Context,
	bookingSvc *booking.Service,
	producer *kafka.Producer,
	cfg *config.Config,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(cfg.Worker.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			from := t.Add(24 * time.Hour)
			to := from.Add(cfg.Worker.ReminderInterval)

			upcoming, err := bookingSvc.UpcomingDepartures(ctx, from, to)
			if err != nil {
				logger.Error("list upcoming departures failed", "error", err)
				continue
			}

			for _, bf := range upcoming {
				event := kafka.BookingEvent{
					Type:         "flight_reminder",
					BookingID:    bf.Booking.ID.String(),
					UserID:       bf.Booking.UserID,
					FlightID:     bf.Flight.ID,
					FlightNumber: bf.Flight.FlightNumber,
					Route:        bf.Flight.DepartureAirport + "-" + bf.Flight.ArrivalAirport,
					SeatsBooked:  bf.Booking.SeatsBooked,
					TotalCents:   bf.Booking.TotalCents,
					DepartureAt:  bf.Flight.DepartureTime,
				}
				if err := producer.Publish(ctx, cfg.Kafka.NotificationsTopic, event.BookingID, event); err != nil {
					logger.Warn("publish reminder failed",
						"booking_id", event.BookingID, "error", err)
				}
			}

			if len(upcoming) > 0 {
				logger.Info("reminders published", "count", len(upcoming))
			}
		}
	}
}
