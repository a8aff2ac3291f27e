package service

import (
	"log/slog"

	postgres "github.com/samiunarno/Flight-management-Backend/internal/repository/postgres"
	redis "github.com/samiunarno/Flight-management-Backend/internal/repository/redis"
	"github.com/samiunarno/Flight-management-Backend/internal/service/admin"
	"github.com/samiunarno/Flight-management-Backend/internal/service/booking"
	"github.com/samiunarno/Flight-management-Backend/internal/service/flights"
	"github.com/samiunarno/Flight-management-Backend/internal/uow"
)

type Services struct {
	Booking *booking.Service
	Flights *flights.Service
	Admin   *admin.Service
}

type Config struct {
	Booking booking.Config
	Flights flights.Config
}

// Deps carries the optional infrastructure the services can run without:
// nil members degrade the matching feature instead of failing construction.
type Deps struct {
	Cache     *redis.Cache
	PubSub    booking.PubSub
	Producer  booking.Producer
	Scheduler booking.ExpiryScheduler
}

func NewServices(
	store *postgres.Store,
	txRunner *uow.UoW,
	deps Deps,
	logger *slog.Logger,
	cfg Config,
) *Services {
	bookingOpts := []booking.Option{}
	if deps.Scheduler != nil {
		bookingOpts = append(bookingOpts, booking.WithScheduler(deps.Scheduler))
	}
	if deps.Producer != nil {
		bookingOpts = append(bookingOpts, booking.WithProducer(deps.Producer))
	}
	if deps.Cache != nil {
		bookingOpts = append(bookingOpts, booking.WithCache(deps.Cache))
	}
	if deps.PubSub != nil {
		bookingOpts = append(bookingOpts, booking.WithPubSub(deps.PubSub))
	}

	adminOpts := []admin.Option{}
	if deps.Cache != nil {
		adminOpts = append(adminOpts, admin.WithCache(deps.Cache))
	}
	if deps.PubSub != nil {
		adminOpts = append(adminOpts, admin.WithPubSub(deps.PubSub))
	}

	return &Services{
		Booking: booking.New(
			store.Flights(), store.Bookings(), store.Payments(),
			txRunner, logger, cfg.Booking, bookingOpts...,
		),
		Flights: flights.New(store.Flights(), store.Airlines(), deps.Cache, cfg.Flights),
		Admin:   admin.New(store.Airlines(), store.Flights(), txRunner, logger, adminOpts...),
	}
}
