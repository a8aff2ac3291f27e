package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samiunarno/Flight-management-Backend/internal/domain"
	"github.com/samiunarno/Flight-management-Backend/internal/repository"
)

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func (r *PaymentRepo) handle(db DB) DB {
	if db != nil {
		return db
	}
	return r.pool
}

// Insert stores a new payment record. The booking reference is unique, so a
// second payment for the same booking fails with repository.ErrConflict.
func (r *PaymentRepo) Insert(ctx context.Context, db DB, p *domain.Payment) error {
	const op = "postgres.PaymentRepo.Insert"

	_, err := r.handle(db).Exec(ctx,
		`INSERT INTO payments (
			id, booking_id, amount_cents, status, transaction_id, method
		 ) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.BookingID, p.AmountCents, p.Status, p.TransactionID, p.Method,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// GetByBooking retrieves the payment attached to a booking.
func (r *PaymentRepo) GetByBooking(ctx context.Context, db DB, bookingID uuid.UUID) (*domain.Payment, error) {
	const op = "postgres.PaymentRepo.GetByBooking"

	var p domain.Payment
	err := r.handle(db).QueryRow(ctx,
		`SELECT id, booking_id, amount_cents, status, transaction_id, method,
		        created_at
		   FROM payments WHERE booking_id = $1`,
		bookingID,
	).Scan(
		&p.ID, &p.BookingID, &p.AmountCents, &p.Status, &p.TransactionID,
		&p.Method, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &p, nil
}

// UpdateByBooking sets the payment status, and the transaction ID when
// non-empty, for the payment attached to a booking.
func (r *PaymentRepo) UpdateByBooking(ctx context.Context, db DB, bookingID uuid.UUID, status domain.PaymentStatus, transactionID string) error {
	const op = "postgres.PaymentRepo.UpdateByBooking"

	tag, err := r.handle(db).Exec(ctx,
		`UPDATE payments
		    SET status = $2,
		        transaction_id = CASE WHEN $3 = '' THEN transaction_id ELSE $3 END
		  WHERE booking_id = $1`,
		bookingID, status, transactionID,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
