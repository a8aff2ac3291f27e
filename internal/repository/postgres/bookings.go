package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samiunarno/Flight-management-Backend/internal/domain"
	"github.com/samiunarno/Flight-management-Backend/internal/repository"
)

type BookingRepo struct {
	pool *pgxpool.Pool
}

func (r *BookingRepo) handle(db DB) DB {
	if db != nil {
		return db
	}
	return r.pool
}

const bookingColumns = `id, user_id, flight_id, seats_booked, status,
	payment_status, reservation_expiry, total_cents, passengers, created_at`

func scanBooking(row interface{ Scan(dest ...any) error }, b *domain.Booking) error {
	var passengers []byte

	if err := row.Scan(
		&b.ID, &b.UserID, &b.FlightID, &b.SeatsBooked, &b.Status,
		&b.PaymentStatus, &b.ReservationExpiry, &b.TotalCents, &passengers,
		&b.CreatedAt,
	); err != nil {
		return err
	}

	return json.Unmarshal(passengers, &b.Passengers)
}

// Insert stores a new booking. The booking keeps its caller-assigned ID.
func (r *BookingRepo) Insert(ctx context.Context, db DB, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Insert"

	passengers, err := json.Marshal(b.Passengers)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	_, err = r.handle(db).Exec(ctx,
		`INSERT INTO bookings (
			id, user_id, flight_id, seats_booked, status, payment_status,
			reservation_expiry, total_cents, passengers
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.UserID, b.FlightID, b.SeatsBooked, b.Status,
		b.PaymentStatus, b.ReservationExpiry, b.TotalCents, passengers,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Get retrieves a booking by its ID.
//
// Returns repository.ErrNotFound if the booking does not exist.
func (r *BookingRepo) Get(ctx context.Context, db DB, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Get"

	var b domain.Booking
	err := scanBooking(r.handle(db).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`,
		id,
	), &b)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &b, nil
}

// GetForUpdate retrieves a booking with a row lock so that a payment
// confirmation and an expiry release racing on the same booking serialize:
// whichever commits second re-reads the other's terminal state. Must run
// inside a transaction.
func (r *BookingRepo) GetForUpdate(ctx context.Context, db DB, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.GetForUpdate"

	var b domain.Booking
	err := scanBooking(r.handle(db).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`,
		id,
	), &b)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &b, nil
}

// UpdateStatus sets the booking and payment status columns.
//
// Returns repository.ErrNotFound if the booking does not exist.
func (r *BookingRepo) UpdateStatus(ctx context.Context, db DB, id uuid.UUID, status domain.BookingStatus, paymentStatus domain.PaymentStatus) error {
	const op = "postgres.BookingRepo.UpdateStatus"

	tag, err := r.handle(db).Exec(ctx,
		`UPDATE bookings SET status = $2, payment_status = $3 WHERE id = $1`,
		id, status, paymentStatus,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// ListByUser lists a user's bookings, most recently created first.
func (r *BookingRepo) ListByUser(ctx context.Context, db DB, userID int64) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ListByUser"

	rows, err := r.handle(db).Query(ctx,
		`SELECT `+bookingColumns+`
		   FROM bookings
		  WHERE user_id = $1
		  ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

// ListExpiredPending lists IDs of pending, unpaid bookings whose hold has
// lapsed. Used by the startup reconciliation pass and the periodic sweep.
func (r *BookingRepo) ListExpiredPending(ctx context.Context, db DB, now time.Time, limit int) ([]uuid.UUID, error) {
	const op = "postgres.BookingRepo.ListExpiredPending"

	rows, err := r.handle(db).Query(ctx,
		`SELECT id
		   FROM bookings
		  WHERE status = 'pending'
		    AND payment_status <> 'completed'
		    AND reservation_expiry < $1
		  ORDER BY reservation_expiry
		  LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

// ListConfirmedDeparting lists confirmed bookings whose flight departs within
// [from, to), joined with the flight. Feeds the reminder job.
func (r *BookingRepo) ListConfirmedDeparting(ctx context.Context, db DB, from, to time.Time) ([]domain.BookingWithFlight, error) {
	const op = "postgres.BookingRepo.ListConfirmedDeparting"

	rows, err := r.handle(db).Query(ctx,
		`SELECT b.id, b.user_id, b.flight_id, b.seats_booked, b.status,
		        b.payment_status, b.reservation_expiry, b.total_cents,
		        b.passengers, b.created_at,
		        f.id, f.airline_id, f.flight_number, f.departure_airport,
		        f.arrival_airport, f.departure_time, f.arrival_time,
		        f.price_cents, f.seats_available, f.total_seats, f.class,
		        f.status, f.created_at
		   FROM bookings b
		   JOIN flights f ON f.id = b.flight_id
		  WHERE b.status = 'confirmed'
		    AND f.departure_time >= $1 AND f.departure_time < $2`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.BookingWithFlight
	for rows.Next() {
		var (
			bf         domain.BookingWithFlight
			passengers []byte
		)
		if err := rows.Scan(
			&bf.Booking.ID, &bf.Booking.UserID, &bf.Booking.FlightID,
			&bf.Booking.SeatsBooked, &bf.Booking.Status,
			&bf.Booking.PaymentStatus, &bf.Booking.ReservationExpiry,
			&bf.Booking.TotalCents, &passengers, &bf.Booking.CreatedAt,
			&bf.Flight.ID, &bf.Flight.AirlineID, &bf.Flight.FlightNumber,
			&bf.Flight.DepartureAirport, &bf.Flight.ArrivalAirport,
			&bf.Flight.DepartureTime, &bf.Flight.ArrivalTime,
			&bf.Flight.PriceCents, &bf.Flight.SeatsAvailable,
			&bf.Flight.TotalSeats, &bf.Flight.Class, &bf.Flight.Status,
			&bf.Flight.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		if err := json.Unmarshal(passengers, &bf.Booking.Passengers); err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		out = append(out, bf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}
