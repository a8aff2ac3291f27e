package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/samiunarno/Flight-management-Backend/internal/domain"
	"github.com/samiunarno/Flight-management-Backend/internal/repository"
	postgresrepo "github.com/samiunarno/Flight-management-Backend/internal/repository/postgres"
	"github.com/samiunarno/Flight-management-Backend/internal/uow"
)

var (
	airlineCode  = regexp.MustCompile(`^[A-Z0-9]{2,3}$`)
	airportCode  = regexp.MustCompile(`^[A-Z]{3}$`)
	flightNumber = regexp.MustCompile(`^[A-Z0-9]{2,3}-?[0-9]{1,4}$`)
)

// AirlineStore is the airline surface the admin service needs. Satisfied by
// postgres.AirlineRepo.
type AirlineStore interface {
	Create(ctx context.Context, db postgresrepo.DB, a *domain.Airline) (int64, error)
	GetByCode(ctx context.Context, db postgresrepo.DB, code string) (*domain.Airline, error)
}

// FlightStore is the flight surface the admin service needs. Satisfied by
// postgres.FlightRepo.
type FlightStore interface {
	Get(ctx context.Context, db postgresrepo.DB, id int64) (*domain.Flight, error)
	Create(ctx context.Context, db postgresrepo.DB, f *domain.Flight) (int64, error)
	Update(ctx context.Context, db postgresrepo.DB, id int64, p postgresrepo.FlightPatch) error
}

// TxRunner runs a function as one atomic unit of work. Satisfied by uow.UoW.
type TxRunner interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error) error
}

// FlightCache invalidates cached flight reads after an administrative edit.
type FlightCache interface {
	InvalidateFlight(ctx context.Context, flightID int64) error
}

// PubSub broadcasts flight changes to other API instances.
type PubSub interface {
	PublishFlightChanged(ctx context.Context, flightID int64) error
}

type Service struct {
	airlines AirlineStore
	flights  FlightStore
	uow      TxRunner
	cache    FlightCache
	pubsub   PubSub
	logger   *slog.Logger
}

type Option func(*Service)

func WithCache(c FlightCache) Option {
	return func(svc *Service) { svc.cache = c }
}

func WithPubSub(p PubSub) Option {
	return func(svc *Service) { svc.pubsub = p }
}

func New(airlines AirlineStore, flights FlightStore, txRunner TxRunner, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		airlines: airlines,
		flights:  flights,
		uow:      txRunner,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

type CreateAirlineInput struct {
	Name    string
	Code    string
	Country string
}

func (in CreateAirlineInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: airline name is required", ErrInvalidInput)
	}

	if !airlineCode.MatchString(in.Code) {
		return fmt.Errorf("%w: airline code must be 2-3 uppercase letters or digits", ErrInvalidInput)
	}

	if in.Country == "" {
		return fmt.Errorf("%w: country is required", ErrInvalidInput)
	}

	return nil
}

// CreateAirline registers an airline.
//
// Returns admin.ErrAirlineExists when the code is already taken.
func (s *Service) CreateAirline(ctx context.Context, in CreateAirlineInput) (*domain.Airline, error) {
	const op = "service.admin.CreateAirline"

	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a := &domain.Airline{
		Name:    in.Name,
		Code:    in.Code,
		Country: in.Country,
	}

	id, err := s.airlines.Create(ctx, nil, a)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrAirlineExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.ID = id
	s.logger.Info("airline created", "airline_id", id, "code", a.Code)

	return a, nil
}

type CreateFlightInput struct {
	AirlineCode      string
	FlightNumber     string
	DepartureAirport string
	ArrivalAirport   string
	DepartureTime    time.Time
	ArrivalTime      time.Time
	PriceCents       int64
	SeatsAvailable   int
	TotalSeats       int
	Class            domain.TravelClass
}

func (in CreateFlightInput) validate() error {
	if !flightNumber.MatchString(in.FlightNumber) {
		return fmt.Errorf("%w: malformed flight number", ErrInvalidInput)
	}

	if !airportCode.MatchString(in.DepartureAirport) || !airportCode.MatchString(in.ArrivalAirport) {
		return fmt.Errorf("%w: airport codes must be 3 uppercase letters", ErrInvalidInput)
	}

	if in.DepartureAirport == in.ArrivalAirport {
		return fmt.Errorf("%w: departure and arrival airports must differ", ErrInvalidInput)
	}

	if !in.ArrivalTime.After(in.DepartureTime) {
		return fmt.Errorf("%w: arrival must be after departure", ErrInvalidInput)
	}

	if in.PriceCents <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}

	if in.TotalSeats < 1 {
		return fmt.Errorf("%w: total seats must be positive", ErrInvalidInput)
	}

	if in.SeatsAvailable < 0 || in.SeatsAvailable > in.TotalSeats {
		return fmt.Errorf("%w: seats available must be between 0 and total seats", ErrInvalidInput)
	}

	switch in.Class {
	case domain.ClassEconomy, domain.ClassBusiness, domain.ClassFirst:
	default:
		return fmt.Errorf("%w: unknown travel class", ErrInvalidInput)
	}

	return nil
}

// CreateFlight registers a flight under an existing airline.
//
// Returns:
//   - admin.ErrAirlineNotFound when the airline code is unknown.
//   - admin.ErrFlightExists when the flight number is already taken.
func (s *Service) CreateFlight(ctx context.Context, in CreateFlightInput) (*domain.Flight, error) {
	const op = "service.admin.CreateFlight"

	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var created *domain.Flight

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		airline, err := s.airlines.GetByCode(ctx, tx, in.AirlineCode)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrAirlineNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		f := &domain.Flight{
			AirlineID:        airline.ID,
			FlightNumber:     in.FlightNumber,
			DepartureAirport: in.DepartureAirport,
			ArrivalAirport:   in.ArrivalAirport,
			DepartureTime:    in.DepartureTime,
			ArrivalTime:      in.ArrivalTime,
			PriceCents:       in.PriceCents,
			SeatsAvailable:   in.SeatsAvailable,
			TotalSeats:       in.TotalSeats,
			Class:            in.Class,
			Status:           domain.FlightScheduled,
		}

		id, err := s.flights.Create(ctx, tx, f)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrFlightExists)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		f.ID = id
		created = f

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("flight created",
		"flight_id", created.ID, "number", created.FlightNumber,
		"route", created.DepartureAirport+"-"+created.ArrivalAirport)

	return created, nil
}

type UpdateFlightInput struct {
	DepartureTime *time.Time
	ArrivalTime   *time.Time
	PriceCents    *int64
	Status        *domain.FlightStatus
}

func (in UpdateFlightInput) validate() error {
	if in.DepartureTime == nil && in.ArrivalTime == nil &&
		in.PriceCents == nil && in.Status == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	if in.PriceCents != nil && *in.PriceCents <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}

	if in.Status != nil {
		switch *in.Status {
		case domain.FlightScheduled, domain.FlightDelayed, domain.FlightCancelled, domain.FlightCompleted:
		default:
			return fmt.Errorf("%w: unknown flight status", ErrInvalidInput)
		}
	}

	return nil
}

// UpdateFlight applies a partial edit to a flight and evicts its cached
// reads once the change commits.
//
// Returns admin.ErrFlightNotFound when the flight does not exist.
func (s *Service) UpdateFlight(ctx context.Context, id int64, in UpdateFlightInput) (*domain.Flight, error) {
	const op = "service.admin.UpdateFlight"

	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var updated *domain.Flight

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		current, err := s.flights.Get(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrFlightNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		departure := current.DepartureTime
		if in.DepartureTime != nil {
			departure = *in.DepartureTime
		}
		arrival := current.ArrivalTime
		if in.ArrivalTime != nil {
			arrival = *in.ArrivalTime
		}
		if !arrival.After(departure) {
			return fmt.Errorf("%s: %w: arrival must be after departure", op, ErrInvalidInput)
		}

		patch := postgresrepo.FlightPatch{
			DepartureTime: in.DepartureTime,
			ArrivalTime:   in.ArrivalTime,
			PriceCents:    in.PriceCents,
			Status:        in.Status,
		}

		if err := s.flights.Update(ctx, tx, id, patch); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrFlightNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		f, err := s.flights.Get(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		updated = f

		after(func(ctx context.Context) {
			if s.cache != nil {
				if err := s.cache.InvalidateFlight(ctx, id); err != nil {
					s.logger.Warn("invalidate flight cache failed", "flight_id", id, "error", err)
				}
			}
			if s.pubsub != nil {
				if err := s.pubsub.PublishFlightChanged(ctx, id); err != nil {
					s.logger.Warn("publish flight change failed", "flight_id", id, "error", err)
				}
			}
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
