package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	postgresrepo "github.com/samiunarno/Flight-management-Backend/internal/repository/postgres"
)

// Releaser is the engine-side release path the scheduler drives. The call
// is idempotent, so firing it for an already-handled booking is harmless.
type Releaser interface {
	ReleaseExpiredReservation(ctx context.Context, bookingID uuid.UUID) error
}

// PendingLister scans for holds past their deadline. Satisfied by
// postgres.BookingRepo.
type PendingLister interface {
	ListExpiredPending(ctx context.Context, db postgresrepo.DB, now time.Time, limit int) ([]uuid.UUID, error)
}

type Config struct {
	// SweepInterval is the period of the reconciliation pass that catches
	// holds whose in-memory timer was lost (process restart) or failed.
	SweepInterval time.Duration
	// Grace delays the timer slightly past the deadline so a confirmation
	// arriving at the boundary wins the row lock first.
	Grace     time.Duration
	BatchSize int
}

// Scheduler releases lapsed seat holds. Two mechanisms cooperate: a
// per-booking timer armed at reservation time, and a periodic sweep over
// durable state that survives process restarts. Both funnel into the same
// idempotent release path, so double firing is safe.
type Scheduler struct {
	lister PendingLister
	logger *slog.Logger
	cfg    Config

	mu       sync.RWMutex
	releaser Releaser
}

func New(lister PendingLister, logger *slog.Logger, cfg Config) *Scheduler {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	if cfg.Grace <= 0 {
		cfg.Grace = time.Second
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	return &Scheduler{
		lister: lister,
		logger: logger,
		cfg:    cfg,
	}
}

// AttachReleaser wires the booking engine in after construction; the engine
// and the scheduler reference each other, so one side has to be attached
// late. A nil releaser turns every trigger into a no-op.
func (s *Scheduler) AttachReleaser(r Releaser) {
	s.mu.Lock()
	s.releaser = r
	s.mu.Unlock()
}

// ScheduleRelease arms a one-shot timer that re-checks the booking just
// after its hold deadline. Fire-and-forget: the timer outcome is logged,
// never reported to the caller.
func (s *Scheduler) ScheduleRelease(bookingID uuid.UUID, at time.Time) {
	d := time.Until(at) + s.cfg.Grace
	if d < 0 {
		d = 0
	}

	time.AfterFunc(d, func() {
		s.release(context.Background(), bookingID)
	})
}

// Run performs a reconciliation pass immediately, then sweeps every
// SweepInterval until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep releases every overdue pending hold it finds. Store failures are
// logged and retried on the next pass rather than escalated.
func (s *Scheduler) Sweep(ctx context.Context) {
	ids, err := s.lister.ListExpiredPending(ctx, nil, time.Now(), s.cfg.BatchSize)
	if err != nil {
		s.logger.Error("expiry sweep scan failed", "error", err)
		return
	}

	for _, id := range ids {
		s.release(ctx, id)
	}

	if len(ids) > 0 {
		s.logger.Info("expiry sweep released holds", "count", len(ids))
	}
}

func (s *Scheduler) release(ctx context.Context, bookingID uuid.UUID) {
	s.mu.RLock()
	r := s.releaser
	s.mu.RUnlock()

	if r == nil {
		return
	}

	if err := r.ReleaseExpiredReservation(ctx, bookingID); err != nil {
		s.logger.Error("release expired reservation failed",
			"booking_id", bookingID, "error", err)
	}
}
