package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samiunarno/Flight-management-Backend/internal/domain"
)

type AirlineRepo struct {
	pool *pgxpool.Pool
}

func (r *AirlineRepo) handle(db DB) DB {
	if db != nil {
		return db
	}
	return r.pool
}

// Create inserts an airline and returns its ID.
//
// Returns repository.ErrConflict on a duplicate code.
func (r *AirlineRepo) Create(ctx context.Context, db DB, a *domain.Airline) (int64, error) {
	const op = "postgres.AirlineRepo.Create"

	var id int64
	err := r.handle(db).QueryRow(ctx,
		`INSERT INTO airlines (name, code, country)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		a.Name, a.Code, a.Country,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

// GetByCode retrieves an airline by its IATA code.
func (r *AirlineRepo) GetByCode(ctx context.Context, db DB, code string) (*domain.Airline, error) {
	const op = "postgres.AirlineRepo.GetByCode"

	var a domain.Airline
	err := r.handle(db).QueryRow(ctx,
		`SELECT id, name, code, country FROM airlines WHERE code = $1`,
		code,
	).Scan(&a.ID, &a.Name, &a.Code, &a.Country)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &a, nil
}
