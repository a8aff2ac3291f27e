package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samiunarno/Flight-management-Backend/internal/domain"
	"github.com/samiunarno/Flight-management-Backend/internal/repository"
)

type FlightRepo struct {
	pool *pgxpool.Pool
}

func (r *FlightRepo) handle(db DB) DB {
	if db != nil {
		return db
	}
	return r.pool
}

const flightColumns = `id, airline_id, flight_number, departure_airport,
	arrival_airport, departure_time, arrival_time, price_cents,
	seats_available, total_seats, class, status, created_at`

func scanFlight(row interface{ Scan(dest ...any) error }, f *domain.Flight) error {
	return row.Scan(
		&f.ID, &f.AirlineID, &f.FlightNumber, &f.DepartureAirport,
		&f.ArrivalAirport, &f.DepartureTime, &f.ArrivalTime, &f.PriceCents,
		&f.SeatsAvailable, &f.TotalSeats, &f.Class, &f.Status, &f.CreatedAt,
	)
}

// Get retrieves a flight by its ID.
//
// Returns repository.ErrNotFound if the flight does not exist.
func (r *FlightRepo) Get(ctx context.Context, db DB, id int64) (*domain.Flight, error) {
	const op = "postgres.FlightRepo.Get"

	var f domain.Flight
	err := scanFlight(r.handle(db).QueryRow(ctx,
		`SELECT `+flightColumns+` FROM flights WHERE id = $1`,
		id,
	), &f)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &f, nil
}

// GetForUpdate retrieves a flight by its ID with a row lock, serializing
// concurrent seat-count mutations on the same flight. Must run inside a
// transaction.
func (r *FlightRepo) GetForUpdate(ctx context.Context, db DB, id int64) (*domain.Flight, error) {
	const op = "postgres.FlightRepo.GetForUpdate"

	var f domain.Flight
	err := scanFlight(r.handle(db).QueryRow(ctx,
		`SELECT `+flightColumns+` FROM flights WHERE id = $1 FOR UPDATE`,
		id,
	), &f)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &f, nil
}

// AdjustSeats applies delta (negative to reserve, positive to release) to
// seats_available. The WHERE clause rejects any adjustment that would drive
// the count below zero or above total_seats.
//
// Returns repository.ErrSeatsUnavailable when the guard rejects the change.
func (r *FlightRepo) AdjustSeats(ctx context.Context, db DB, id int64, delta int) error {
	const op = "postgres.FlightRepo.AdjustSeats"

	tag, err := r.handle(db).Exec(ctx,
		`UPDATE flights
		    SET seats_available = seats_available + $2
		  WHERE id = $1
		    AND seats_available + $2 >= 0
		    AND seats_available + $2 <= total_seats`,
		id, delta,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrSeatsUnavailable)
	}

	return nil
}

// SearchFilter is the typed filter set for direct-flight search.
type SearchFilter struct {
	DepartureAirport string
	ArrivalAirport   string
	DayStart         time.Time
	DayEnd           time.Time
	Passengers       int
	Class            domain.TravelClass // optional
	MinPriceCents    int64              // optional, 0 = unset
	MaxPriceCents    int64              // optional, 0 = unset
	AirlineID        int64              // optional, 0 = unset
}

// Search lists bookable flights matching the filter, cheapest first.
func (r *FlightRepo) Search(ctx context.Context, db DB, f SearchFilter, limit, offset int) ([]domain.Flight, int64, error) {
	const op = "postgres.FlightRepo.Search"

	where := `departure_airport = $1
	      AND arrival_airport = $2
	      AND departure_time >= $3 AND departure_time < $4
	      AND seats_available >= $5
	      AND status = 'scheduled'`
	args := []any{
		f.DepartureAirport, f.ArrivalAirport, f.DayStart, f.DayEnd,
		f.Passengers,
	}

	if f.Class != "" {
		args = append(args, f.Class)
		where += fmt.Sprintf(" AND class = $%d", len(args))
	}
	if f.MinPriceCents > 0 {
		args = append(args, f.MinPriceCents)
		where += fmt.Sprintf(" AND price_cents >= $%d", len(args))
	}
	if f.MaxPriceCents > 0 {
		args = append(args, f.MaxPriceCents)
		where += fmt.Sprintf(" AND price_cents <= $%d", len(args))
	}
	if f.AirlineID > 0 {
		args = append(args, f.AirlineID)
		where += fmt.Sprintf(" AND airline_id = $%d", len(args))
	}

	var total int64
	if err := r.handle(db).QueryRow(ctx,
		`SELECT count(*) FROM flights WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	args = append(args, limit, offset)
	rows, err := r.handle(db).Query(ctx,
		fmt.Sprintf(
			`SELECT %s FROM flights WHERE %s
			 ORDER BY price_cents, departure_time
			 LIMIT $%d OFFSET $%d`,
			flightColumns, where, len(args)-1, len(args),
		),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Flight
	for rows.Next() {
		var fl domain.Flight
		if err := scanFlight(rows, &fl); err != nil {
			return nil, 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, fl)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, total, nil
}

// ReachableAirports lists the distinct arrival airports served directly from
// origin on the given day with enough seats left.
func (r *FlightRepo) ReachableAirports(ctx context.Context, db DB, origin string, dayStart, dayEnd time.Time, passengers int) ([]string, error) {
	const op = "postgres.FlightRepo.ReachableAirports"

	rows, err := r.handle(db).Query(ctx,
		`SELECT DISTINCT arrival_airport
		   FROM flights
		  WHERE departure_airport = $1
		    AND departure_time >= $2 AND departure_time < $3
		    AND seats_available >= $4
		    AND status = 'scheduled'`,
		origin, dayStart, dayEnd, passengers,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

// ListLegs lists bookable flights for one leg of an itinerary departing
// within [from, to).
func (r *FlightRepo) ListLegs(ctx context.Context, db DB, origin, destination string, from, to time.Time, passengers int) ([]domain.Flight, error) {
	const op = "postgres.FlightRepo.ListLegs"

	rows, err := r.handle(db).Query(ctx,
		`SELECT `+flightColumns+`
		   FROM flights
		  WHERE departure_airport = $1
		    AND arrival_airport = $2
		    AND departure_time >= $3 AND departure_time < $4
		    AND seats_available >= $5
		    AND status = 'scheduled'
		  ORDER BY departure_time`,
		origin, destination, from, to, passengers,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Flight
	for rows.Next() {
		var fl domain.Flight
		if err := scanFlight(rows, &fl); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, fl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

// Create inserts a flight and returns its ID.
//
// Returns repository.ErrConflict on a duplicate flight number.
func (r *FlightRepo) Create(ctx context.Context, db DB, f *domain.Flight) (int64, error) {
	const op = "postgres.FlightRepo.Create"

	var id int64
	err := r.handle(db).QueryRow(ctx,
		`INSERT INTO flights (
			airline_id, flight_number, departure_airport, arrival_airport,
			departure_time, arrival_time, price_cents, seats_available,
			total_seats, class, status
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		f.AirlineID, f.FlightNumber, f.DepartureAirport, f.ArrivalAirport,
		f.DepartureTime, f.ArrivalTime, f.PriceCents, f.SeatsAvailable,
		f.TotalSeats, f.Class, f.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

// FlightPatch carries the mutable fields of an administrative flight edit.
// Nil fields are left unchanged.
type FlightPatch struct {
	DepartureTime *time.Time
	ArrivalTime   *time.Time
	PriceCents    *int64
	Status        *domain.FlightStatus
}

// Update applies a patch to a flight.
//
// Returns repository.ErrNotFound if the flight does not exist.
func (r *FlightRepo) Update(ctx context.Context, db DB, id int64, p FlightPatch) error {
	const op = "postgres.FlightRepo.Update"

	tag, err := r.handle(db).Exec(ctx,
		`UPDATE flights SET
			departure_time = COALESCE($2, departure_time),
			arrival_time   = COALESCE($3, arrival_time),
			price_cents    = COALESCE($4, price_cents),
			status         = COALESCE($5, status)
		  WHERE id = $1`,
		id, p.DepartureTime, p.ArrivalTime, p.PriceCents, p.Status,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
