package uow

import (
	"context"

	"github.com/jackc/pgx/v5"

	postgres "github.com/samiunarno/Flight-management-Backend/internal/repository/postgres"
)

// AfterCommit is a function that runs after a successful transaction commit.
// The booking engine uses hooks for everything that must not roll a
// transaction back: arming expiry timers, publishing events, invalidating
// caches.
type AfterCommit func(ctx context.Context)

// UoW wraps the store's transaction runner into an atomic unit of work
// spanning the flight, booking and payment repositories.
// maxAttempts bounds reruns of a unit of work after a serialization failure.
const maxAttempts = 3

type UoW struct {
	store *postgres.Store
}

func NewUoW(store *postgres.Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn inside a serializable transaction. After a successful commit,
// it executes all registered after-commit hooks.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx postgres.DB, after func(AfterCommit)) error,
) error {
	return u.DoWithOpts(ctx, nil, fn)
}

// DoWithOpts runs fn inside a transaction with the given options. After a
// successful commit, it executes all after-commit hooks.
func (u *UoW) DoWithOpts(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx postgres.DB, after func(AfterCommit)) error,
) error {
	var hooks []AfterCommit

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		hooks = hooks[:0]

		err = u.store.RunTx(ctx, opts, func(ctx context.Context, tx postgres.DB) error {
			return fn(ctx, tx, func(h AfterCommit) {
				hooks = append(hooks, h)
			})
		})
		if err == nil {
			break
		}
		// Serialization failures and deadlocks are safe to rerun: the
		// transaction rolled back and fn registers its hooks from scratch.
		if !postgres.IsRetryable(err) {
			return err
		}
	}
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}
