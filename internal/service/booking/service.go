package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samiunarno/Flight-management-Backend/internal/domain"
	"github.com/samiunarno/Flight-management-Backend/internal/kafka"
	"github.com/samiunarno/Flight-management-Backend/internal/repository"
	postgresrepo "github.com/samiunarno/Flight-management-Backend/internal/repository/postgres"
	"github.com/samiunarno/Flight-management-Backend/internal/uow"
)

const (
	maxSeatsPerBooking = 10
	// cancellationWindow is the minimum time before departure at which a
	// booking may still be cancelled.
	cancellationWindow = 24 * time.Hour
)

// InventoryStore is the flight-inventory surface the engine needs. Satisfied
// by postgres.FlightRepo.
type InventoryStore interface {
	Get(ctx context.Context, db postgresrepo.DB, id int64) (*domain.Flight, error)
	GetForUpdate(ctx context.Context, db postgresrepo.DB, id int64) (*domain.Flight, error)
	AdjustSeats(ctx context.Context, db postgresrepo.DB, id int64, delta int) error
}

// ReservationLedger is the booking-record surface the engine needs.
// Satisfied by postgres.BookingRepo.
type ReservationLedger interface {
	Insert(ctx context.Context, db postgresrepo.DB, b *domain.Booking) error
	Get(ctx context.Context, db postgresrepo.DB, id uuid.UUID) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, db postgresrepo.DB, id uuid.UUID) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, db postgresrepo.DB, id uuid.UUID, status domain.BookingStatus, paymentStatus domain.PaymentStatus) error
	ListByUser(ctx context.Context, db postgresrepo.DB, userID int64) ([]domain.Booking, error)
	ListConfirmedDeparting(ctx context.Context, db postgresrepo.DB, from, to time.Time) ([]domain.BookingWithFlight, error)
}

// PaymentStore is the payment-record surface the engine needs. Satisfied by
// postgres.PaymentRepo.
type PaymentStore interface {
	Insert(ctx context.Context, db postgresrepo.DB, p *domain.Payment) error
	GetByBooking(ctx context.Context, db postgresrepo.DB, bookingID uuid.UUID) (*domain.Payment, error)
	UpdateByBooking(ctx context.Context, db postgresrepo.DB, bookingID uuid.UUID, status domain.PaymentStatus, transactionID string) error
}

// TxRunner runs a function as one atomic unit of work across the stores.
// Satisfied by uow.UoW.
type TxRunner interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error) error
}

// ExpiryScheduler arms a deferred release check for a booking.
type ExpiryScheduler interface {
	ScheduleRelease(bookingID uuid.UUID, at time.Time)
}

// Producer publishes booking lifecycle events, best-effort.
type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// FlightCache invalidates cached flight reads after a seat-count change.
type FlightCache interface {
	InvalidateFlight(ctx context.Context, flightID int64) error
}

// PubSub broadcasts flight changes to other API instances.
type PubSub interface {
	PublishFlightChanged(ctx context.Context, flightID int64) error
}

type Config struct {
	// HoldDuration is the window between reservation creation and automatic
	// release of unpaid seats.
	HoldDuration       time.Duration
	EventsTopic        string
	NotificationsTopic string
}

type Service struct {
	flights   InventoryStore
	bookings  ReservationLedger
	payments  PaymentStore
	uow       TxRunner
	scheduler ExpiryScheduler
	producer  Producer
	cache     FlightCache
	pubsub    PubSub
	logger    *slog.Logger
	cfg       Config
	now       func() time.Time
}

type Option func(*Service)

func WithScheduler(s ExpiryScheduler) Option {
	return func(svc *Service) { svc.scheduler = s }
}

func WithProducer(p Producer) Option {
	return func(svc *Service) { svc.producer = p }
}

func WithCache(c FlightCache) Option {
	return func(svc *Service) { svc.cache = c }
}

func WithPubSub(p PubSub) Option {
	return func(svc *Service) { svc.pubsub = p }
}

func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

func New(
	flights InventoryStore,
	bookings ReservationLedger,
	payments PaymentStore,
	txRunner TxRunner,
	logger *slog.Logger,
	cfg Config,
	opts ...Option,
) *Service {
	if cfg.HoldDuration <= 0 {
		cfg.HoldDuration = 10 * time.Minute
	}

	svc := &Service{
		flights:  flights,
		bookings: bookings,
		payments: payments,
		uow:      txRunner,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

type CreateReservationInput struct {
	UserID     int64
	FlightID   int64
	Seats      int
	Passengers []domain.Passenger
	Method     domain.PaymentMethod
}

func (in CreateReservationInput) validate() error {
	if in.UserID <= 0 {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	if in.Seats < 1 || in.Seats > maxSeatsPerBooking {
		return fmt.Errorf("%w: seats must be between 1 and %d", ErrInvalidInput, maxSeatsPerBooking)
	}

	if len(in.Passengers) != in.Seats {
		return ErrPassengerCountMismatch
	}

	for i, p := range in.Passengers {
		if p.Name == "" {
			return fmt.Errorf("%w: passenger %d: name is required", ErrInvalidInput, i+1)
		}
		if p.Age < 1 || p.Age > 120 {
			return fmt.Errorf("%w: passenger %d: age must be between 1 and 120", ErrInvalidInput, i+1)
		}
		switch p.Gender {
		case domain.GenderMale, domain.GenderFemale, domain.GenderOther:
		default:
			return fmt.Errorf("%w: passenger %d: unknown gender", ErrInvalidInput, i+1)
		}
	}

	switch in.Method {
	case domain.MethodCreditCard, domain.MethodDebitCard, domain.MethodUPI, domain.MethodNetBanking:
	default:
		return fmt.Errorf("%w: unknown payment method", ErrInvalidInput)
	}

	return nil
}

// CreateReservation atomically reserves seats and opens a time-boxed hold:
// it decrements the flight's availability, inserts a pending booking and a
// pending payment record, and arms the deferred expiry check. Either every
// mutation commits or none does.
//
// Returns:
//   - booking.ErrFlightNotFound if the flight does not exist.
//   - booking.ErrFlightNotBookable if the flight is not scheduled or has
//     already departed.
//   - booking.ErrInsufficientSeats if fewer seats remain than requested.
func (s *Service) CreateReservation(ctx context.Context, in CreateReservationInput) (*domain.Booking, error) {
	const op = "service.booking.CreateReservation"

	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var created *domain.Booking

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		flight, err := s.flights.GetForUpdate(ctx, tx, in.FlightID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrFlightNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		now := s.now()
		if flight.Status != domain.FlightScheduled || !flight.DepartureTime.After(now) {
			return fmt.Errorf("%s: %w", op, ErrFlightNotBookable)
		}

		if flight.SeatsAvailable < in.Seats {
			return fmt.Errorf("%s: %w", op, ErrInsufficientSeats)
		}

		if err := s.flights.AdjustSeats(ctx, tx, flight.ID, -in.Seats); err != nil {
			if errors.Is(err, repository.ErrSeatsUnavailable) {
				return fmt.Errorf("%s: %w", op, ErrInsufficientSeats)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		b := &domain.Booking{
			ID:                uuid.New(),
			UserID:            in.UserID,
			FlightID:          flight.ID,
			SeatsBooked:       in.Seats,
			Status:            domain.BookingPending,
			PaymentStatus:     domain.PaymentPending,
			ReservationExpiry: now.Add(s.cfg.HoldDuration),
			TotalCents:        flight.PriceCents * int64(in.Seats),
			Passengers:        in.Passengers,
			CreatedAt:         now,
		}

		if err := s.bookings.Insert(ctx, tx, b); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		p := &domain.Payment{
			ID:            uuid.New(),
			BookingID:     b.ID,
			AmountCents:   b.TotalCents,
			Status:        domain.PaymentPending,
			TransactionID: uuid.NewString(),
			Method:        in.Method,
		}

		if err := s.payments.Insert(ctx, tx, p); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		created = b

		after(func(ctx context.Context) {
			if s.scheduler != nil {
				s.scheduler.ScheduleRelease(b.ID, b.ReservationExpiry)
			}
			s.publish(ctx, "booking_created", b, flight)
			s.invalidate(ctx, flight.ID)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// ConfirmPayment completes a pending booking before its hold lapses. The
// booking row is locked for the duration of the transaction, so a racing
// expiry release observes the confirmed state and backs off.
//
// Returns:
//   - booking.ErrBookingNotFound if the booking does not exist.
//   - booking.ErrBookingNotPending if the booking already left the pending
//     state.
//   - booking.ErrReservationExpired if the hold deadline has passed; the
//     seats have been or will be released and the caller must re-book.
func (s *Service) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, transactionID string) (*domain.Booking, error) {
	const op = "service.booking.ConfirmPayment"

	if transactionID == "" {
		return nil, fmt.Errorf("%s: %w: transaction id is required", op, ErrInvalidInput)
	}

	var confirmed *domain.Booking

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		b, err := s.bookings.GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrBookingNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if b.Status != domain.BookingPending {
			return fmt.Errorf("%s: %w", op, ErrBookingNotPending)
		}

		if s.now().After(b.ReservationExpiry) {
			return fmt.Errorf("%s: %w", op, ErrReservationExpired)
		}

		if err := s.bookings.UpdateStatus(ctx, tx, b.ID, domain.BookingConfirmed, domain.PaymentCompleted); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.payments.UpdateByBooking(ctx, tx, b.ID, domain.PaymentCompleted, transactionID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		b.Status = domain.BookingConfirmed
		b.PaymentStatus = domain.PaymentCompleted
		confirmed = b

		flight, err := s.flights.Get(ctx, tx, b.FlightID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			s.publish(ctx, "booking_confirmed", b, flight)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return confirmed, nil
}

// CancelBooking cancels a pending or confirmed booking on behalf of its
// owner, restores the seats and marks the payment refunded (when it had
// completed) or failed. Bookings less than 24 hours before departure cannot
// be cancelled.
//
// Returns:
//   - booking.ErrBookingNotFound if the booking does not exist or belongs to
//     another user.
//   - booking.ErrAlreadyCancelled if the booking was cancelled before.
//   - booking.ErrReservationExpired if the hold already lapsed; its seats
//     were restored by the expiry path.
//   - booking.ErrCancellationWindowPassed inside the 24-hour window.
func (s *Service) CancelBooking(ctx context.Context, bookingID uuid.UUID, userID int64) (*domain.Booking, error) {
	const op = "service.booking.CancelBooking"

	var cancelled *domain.Booking

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		b, err := s.bookings.GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrBookingNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		// Ownership is part of lookup: another user's booking is
		// indistinguishable from a missing one.
		if b.UserID != userID {
			return fmt.Errorf("%s: %w", op, ErrBookingNotFound)
		}

		switch b.Status {
		case domain.BookingCancelled:
			return fmt.Errorf("%s: %w", op, ErrAlreadyCancelled)
		case domain.BookingExpired:
			// Seats were already restored by the release path; cancelling
			// again would double-release them.
			return fmt.Errorf("%s: %w", op, ErrReservationExpired)
		}

		flight, err := s.flights.GetForUpdate(ctx, tx, b.FlightID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if flight.DepartureTime.Sub(s.now()) < cancellationWindow {
			return fmt.Errorf("%s: %w", op, ErrCancellationWindowPassed)
		}

		if err := s.flights.AdjustSeats(ctx, tx, flight.ID, b.SeatsBooked); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		paymentStatus := domain.PaymentFailed
		if b.PaymentStatus == domain.PaymentCompleted {
			paymentStatus = domain.PaymentRefunded
		}

		if err := s.bookings.UpdateStatus(ctx, tx, b.ID, domain.BookingCancelled, paymentStatus); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.payments.UpdateByBooking(ctx, tx, b.ID, paymentStatus, ""); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		b.Status = domain.BookingCancelled
		b.PaymentStatus = paymentStatus
		cancelled = b

		after(func(ctx context.Context) {
			s.publish(ctx, "booking_cancelled", b, flight)
			s.invalidate(ctx, flight.ID)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return cancelled, nil
}

// ReleaseExpiredReservation releases the seats of a pending booking whose
// hold has lapsed without payment. Every precondition is re-checked under
// the row lock, which makes the operation idempotent and safe to race
// against ConfirmPayment: when the precondition fails the call is a no-op,
// not an error.
func (s *Service) ReleaseExpiredReservation(ctx context.Context, bookingID uuid.UUID) error {
	const op = "service.booking.ReleaseExpiredReservation"

	return s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		b, err := s.bookings.GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if b.Status != domain.BookingPending ||
			b.PaymentStatus == domain.PaymentCompleted ||
			!s.now().After(b.ReservationExpiry) {
			return nil
		}

		if err := s.flights.AdjustSeats(ctx, tx, b.FlightID, b.SeatsBooked); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.bookings.UpdateStatus(ctx, tx, b.ID, domain.BookingExpired, domain.PaymentFailed); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.payments.UpdateByBooking(ctx, tx, b.ID, domain.PaymentFailed, ""); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		b.Status = domain.BookingExpired
		b.PaymentStatus = domain.PaymentFailed

		after(func(ctx context.Context) {
			s.publish(ctx, "booking_expired", b, nil)
			s.invalidate(ctx, b.FlightID)
		})

		return nil
	})
}

// GetBooking retrieves a booking together with its payment record. A missing
// payment row is tolerated and returned as nil.
func (s *Service) GetBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, *domain.Payment, error) {
	const op = "service.booking.GetBooking"

	b, err := s.bookings.Get(ctx, nil, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrBookingNotFound)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.payments.GetByBooking(ctx, nil, bookingID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		p = nil
	}

	return b, p, nil
}

// UserBookings lists a user's bookings, most recently created first.
func (s *Service) UserBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	const op = "service.booking.UserBookings"

	out, err := s.bookings.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// UpcomingDepartures lists confirmed bookings departing within [from, to).
// Feeds the worker's reminder job.
func (s *Service) UpcomingDepartures(ctx context.Context, from, to time.Time) ([]domain.BookingWithFlight, error) {
	const op = "service.booking.UpcomingDepartures"

	out, err := s.bookings.ListConfirmedDeparting(ctx, nil, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// publish emits a lifecycle event to the events topic and, when configured,
// mirrors it to the notifications topic. Failures are logged, never
// propagated: notification delivery must not affect booking state.
func (s *Service) publish(ctx context.Context, eventType string, b *domain.Booking, flight *domain.Flight) {
	if s.producer == nil || s.cfg.EventsTopic == "" {
		return
	}

	event := kafka.BookingEvent{
		Type:        eventType,
		BookingID:   b.ID.String(),
		UserID:      b.UserID,
		FlightID:    b.FlightID,
		SeatsBooked: b.SeatsBooked,
		TotalCents:  b.TotalCents,
		ExpiresAt:   b.ReservationExpiry,
	}
	if flight != nil {
		event.FlightNumber = flight.FlightNumber
		event.Route = flight.DepartureAirport + "-" + flight.ArrivalAirport
		event.DepartureAt = flight.DepartureTime
	}

	if err := s.producer.Publish(ctx, s.cfg.EventsTopic, event.BookingID, event); err != nil {
		s.logger.Warn("publish booking event failed",
			"type", eventType, "booking_id", event.BookingID, "error", err)
	}

	if s.cfg.NotificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.cfg.NotificationsTopic, event.BookingID, event); err != nil {
			s.logger.Warn("publish notification failed",
				"type", eventType, "booking_id", event.BookingID, "error", err)
		}
	}
}

func (s *Service) invalidate(ctx context.Context, flightID int64) {
	if s.cache != nil {
		if err := s.cache.InvalidateFlight(ctx, flightID); err != nil {
			s.logger.Warn("invalidate flight cache failed", "flight_id", flightID, "error", err)
		}
	}

	if s.pubsub != nil {
		if err := s.pubsub.PublishFlightChanged(ctx, flightID); err != nil {
			s.logger.Warn("publish flight change failed", "flight_id", flightID, "error", err)
		}
	}
}
