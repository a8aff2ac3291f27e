package booking

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samiunarno/Flight-management-Backend/internal/domain"
	"github.com/samiunarno/Flight-management-Backend/internal/repository"
	postgresrepo "github.com/samiunarno/Flight-management-Backend/internal/repository/postgres"
	"github.com/samiunarno/Flight-management-Backend/internal/uow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type mockInventory struct{ mock.Mock }

func (m *mockInventory) Get(ctx context.Context, db postgresrepo.DB, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, db, id)
	if f := args.Get(0); f != nil {
		return f.(*domain.Flight), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInventory) GetForUpdate(ctx context.Context, db postgresrepo.DB, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, db, id)
	if f := args.Get(0); f != nil {
		return f.(*domain.Flight), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInventory) AdjustSeats(ctx context.Context, db postgresrepo.DB, id int64, delta int) error {
	return m.Called(ctx, db, id, delta).Error(0)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) Insert(ctx context.Context, db postgresrepo.DB, b *domain.Booking) error {
	return m.Called(ctx, db, b).Error(0)
}

func (m *mockLedger) Get(ctx context.Context, db postgresrepo.DB, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, db, id)
	if b := args.Get(0); b != nil {
		return b.(*domain.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) GetForUpdate(ctx context.Context, db postgresrepo.DB, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, db, id)
	if b := args.Get(0); b != nil {
		return b.(*domain.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) UpdateStatus(ctx context.Context, db postgresrepo.DB, id uuid.UUID, status domain.BookingStatus, paymentStatus domain.PaymentStatus) error {
	return m.Called(ctx, db, id, status, paymentStatus).Error(0)
}

func (m *mockLedger) ListByUser(ctx context.Context, db postgresrepo.DB, userID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, db, userID)
	if b := args.Get(0); b != nil {
		return b.([]domain.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) ListConfirmedDeparting(ctx context.Context, db postgresrepo.DB, from, to time.Time) ([]domain.BookingWithFlight, error) {
	args := m.Called(ctx, db, from, to)
	if b := args.Get(0); b != nil {
		return b.([]domain.BookingWithFlight), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPayments struct{ mock.Mock }

func (m *mockPayments) Insert(ctx context.Context, db postgresrepo.DB, p *domain.Payment) error {
	return m.Called(ctx, db, p).Error(0)
}

func (m *mockPayments) GetByBooking(ctx context.Context, db postgresrepo.DB, bookingID uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, db, bookingID)
	if p := args.Get(0); p != nil {
		return p.(*domain.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPayments) UpdateByBooking(ctx context.Context, db postgresrepo.DB, bookingID uuid.UUID, status domain.PaymentStatus, transactionID string) error {
	return m.Called(ctx, db, bookingID, status, transactionID).Error(0)
}

type mockScheduler struct{ mock.Mock }

func (m *mockScheduler) ScheduleRelease(bookingID uuid.UUID, at time.Time) {
	m.Called(bookingID, at)
}

// fakeTxRunner runs the unit of work without a database: fn receives a nil
// transaction handle and hooks run right after fn succeeds, mirroring the
// real runner's commit ordering.
type fakeTxRunner struct{}

func (fakeTxRunner) Do(ctx context.Context, fn func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error) error {
	var hooks []uow.AfterCommit

	if err := fn(ctx, nil, func(h uow.AfterCommit) {
		hooks = append(hooks, h)
	}); err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}

// --- Fixtures ---

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func testFlight() *domain.Flight {
	return &domain.Flight{
		ID:               42,
		AirlineID:        7,
		FlightNumber:     "FB-101",
		DepartureAirport: "JFK",
		ArrivalAirport:   "LAX",
		DepartureTime:    testNow.Add(48 * time.Hour),
		ArrivalTime:      testNow.Add(54 * time.Hour),
		PriceCents:       25_000,
		SeatsAvailable:   5,
		TotalSeats:       180,
		Class:            domain.ClassEconomy,
		Status:           domain.FlightScheduled,
	}
}

func passengers(n int) []domain.Passenger {
	out := make([]domain.Passenger, n)
	for i := range out {
		out[i] = domain.Passenger{Name: "Passenger", Age: 30, Gender: domain.GenderOther}
	}
	return out
}

func validInput(seats int) CreateReservationInput {
	return CreateReservationInput{
		UserID:     1,
		FlightID:   42,
		Seats:      seats,
		Passengers: passengers(seats),
		Method:     domain.MethodCreditCard,
	}
}

type testEnv struct {
	flights  *mockInventory
	bookings *mockLedger
	payments *mockPayments
	svc      *Service
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	env := &testEnv{
		flights:  &mockInventory{},
		bookings: &mockLedger{},
		payments: &mockPayments{},
	}

	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)

	env.svc = New(
		env.flights, env.bookings, env.payments,
		fakeTxRunner{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config{HoldDuration: 10 * time.Minute},
		opts...,
	)

	return env
}

// --- CreateReservation ---

func TestCreateReservation(t *testing.T) {
	sched := &mockScheduler{}
	env := newTestEnv(t, WithScheduler(sched))

	env.flights.On("GetForUpdate", mock.Anything, mock.Anything, int64(42)).
		Return(testFlight(), nil)
	env.flights.On("AdjustSeats", mock.Anything, mock.Anything, int64(42), -2).
		Return(nil)
	env.bookings.On("Insert", mock.Anything, mock.Anything, mock.Anything).
		Return(nil)
	env.payments.On("Insert", mock.Anything, mock.Anything, mock.Anything).
		Return(nil)
	sched.On("ScheduleRelease", mock.Anything, testNow.Add(10*time.Minute)).
		Return()

	b, err := env.svc.CreateReservation(context.Background(), validInput(2))
	require.NoError(t, err)

	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, domain.PaymentPending, b.PaymentStatus)
	assert.Equal(t, int64(50_000), b.TotalCents)
	assert.Equal(t, testNow.Add(10*time.Minute), b.ReservationExpiry)
	assert.Len(t, b.Passengers, 2)

	env.flights.AssertExpectations(t)
	env.bookings.AssertExpectations(t)
	env.payments.AssertExpectations(t)
	sched.AssertExpectations(t)
}

func TestCreateReservationInsufficientSeats(t *testing.T) {
	env := newTestEnv(t)

	f := testFlight()
	f.SeatsAvailable = 1
	env.flights.On("GetForUpdate", mock.Anything, mock.Anything, int64(42)).
		Return(f, nil)

	_, err := env.svc.CreateReservation(context.Background(), validInput(2))
	assert.ErrorIs(t, err, ErrInsufficientSeats)
	env.flights.AssertNotCalled(t, "AdjustSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateReservationLastSeat(t *testing.T) {
	env := newTestEnv(t)

	f := testFlight()
	f.SeatsAvailable = 1
	env.flights.On("GetForUpdate", mock.Anything, mock.Anything, int64(42)).
		Return(f, nil)
	env.flights.On("AdjustSeats", mock.Anything, mock.Anything, int64(42), -1).
		Return(nil)
	env.bookings.On("Insert", mock.Anything, mock.Anything, mock.Anything).
		Return(nil)
	env.payments.On("Insert", mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	b, err := env.svc.CreateReservation(context.Background(), validInput(1))
	require.NoError(t, err)
	assert.Equal(t, 1, b.SeatsBooked)
}

func TestCreateReservationFlightNotFound(t *testing.T) {
	env := newTestEnv(t)

	env.flights.On("GetForUpdate", mock.Anything, mock.Anything, int64(42)).
		Return(nil, repository.ErrNotFound)

	_, err := env.svc.CreateReservation(context.Background(), validInput(1))
	assert.ErrorIs(t, err, ErrFlightNotFound)
}

func TestCreateReservationFlightNotBookable(t *testing.T) {
	cases := map[string]func(f *domain.Flight){
		"cancelled flight": func(f *domain.Flight) { f.Status = domain.FlightCancelled },
		"already departed": func(f *domain.Flight) { f.DepartureTime = testNow.Add(-time.Hour) },
		"departing now":    func(f *domain.Flight) { f.DepartureTime = testNow },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)

			f := testFlight()
			mutate(f)
			env.flights.On("GetForUpdate", mock.Anything, mock.Anything, int64(42)).
				Return(f, nil)

			_, err := env.svc.CreateReservation(context.Background(), validInput(1))
			assert.ErrorIs(t, err, ErrFlightNotBookable)
		})
	}
}

func TestCreateReservationValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]struct {
		mutate func(in *CreateReservationInput)
		want   error
	}{
		"zero seats": {
			mutate: func(in *CreateReservationInput) { in.Seats = 0; in.Passengers = nil },
			want:   ErrInvalidInput,
		},
		"too many seats": {
			mutate: func(in *CreateReservationInput) { in.Seats = 11; in.Passengers = passengers(11) },
			want:   ErrInvalidInput,
		},
		"passenger count mismatch": {
			mutate: func(in *CreateReservationInput) { in.Passengers = passengers(3) },
			want:   ErrPassengerCountMismatch,
		},
		"missing name": {
			mutate: func(in *CreateReservationInput) { in.Passengers[0].Name = "" },
			want:   ErrInvalidInput,
		},
		"age out of range": {
			mutate: func(in *CreateReservationInput) { in.Passengers[0].Age = 130 },
			want:   ErrInvalidInput,
		},
		"unknown gender": {
			mutate: func(in *CreateReservationInput) { in.Passengers[0].Gender = "unknown" },
			want:   ErrInvalidInput,
		},
		"unknown payment method": {
			mutate: func(in *CreateReservationInput) { in.Method = "cash" },
			want:   ErrInvalidInput,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput(2)
			tc.mutate(&in)
			_, err := env.svc.CreateReservation(context.Background(), in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	env.flights.AssertNotCalled(t, "GetForUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateReservationMaxSeatsBoundary(t *testing.T) {
	env := newTestEnv(t)

	f := testFlight()
	f.SeatsAvailable = 10
	env.flights.On("GetForUpdate", mock.Anything, mock.Anything, int64(42)).
		Return(f, nil)
	env.flights.On("AdjustSeats", mock.Anything, mock.Anything, int64(42), -10).
		Return(nil)
	env.bookings.On("Insert", mock.Anything, mock.Anything, mock.Anything).
		Return(nil)
	env.payments.On("Insert", mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	b, err := env.svc.CreateReservation(context.Background(), validInput(10))
	require.NoError(t, err)
	assert.Equal(t, 10, b.SeatsBooked)
}

// --- ConfirmPayment ---

func pendingBooking() *domain.Booking {
	return &domain.Booking{
		ID:                uuid.New(),
		UserID:            1,
		FlightID:          42,
		SeatsBooked:       2,
		Status:            domain.BookingPending,
		PaymentStatus:     domain.PaymentPending,
		ReservationExpiry: testNow.Add(5 * time.Minute),
		TotalCents:        50_000,
		Passengers:        passengers(2),
		CreatedAt:         testNow.Add(-5 * time.Minute),
	}
}

func TestConfirmPayment(t *testing.T) {
	env := newTestEnv(t)

	b := pendingBooking()
	env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, b.ID).
		Return(b, nil)
	env.bookings.On("UpdateStatus", mock.Anything, mock.Anything, b.ID,
		domain.BookingConfirmed, domain.PaymentCompleted).Return(nil)
	env.payments.On("UpdateByBooking", mock.Anything, mock.Anything, b.ID,
		domain.PaymentCompleted, "txn-1").Return(nil)
	env.flights.On("Get", mock.Anything, mock.Anything, int64(42)).
		Return(testFlight(), nil)

	got, err := env.svc.ConfirmPayment(context.Background(), b.ID, "txn-1")
	require.NoError(t, err)

	assert.Equal(t, domain.BookingConfirmed, got.Status)
	assert.Equal(t, domain.PaymentCompleted, got.PaymentStatus)
	env.bookings.AssertExpectations(t)
	env.payments.AssertExpectations(t)
}

func TestConfirmPaymentMissingTransactionID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ConfirmPayment(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConfirmPaymentExpiredHold(t *testing.T) {
	env := newTestEnv(t)

	b := pendingBooking()
	b.ReservationExpiry = testNow.Add(-time.Minute)
	env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, b.ID).
		Return(b, nil)

	_, err := env.svc.ConfirmPayment(context.Background(), b.ID, "txn-1")
	assert.ErrorIs(t, err, ErrReservationExpired)
	env.bookings.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPaymentNotPending(t *testing.T) {
	for _, status := range []domain.BookingStatus{
		domain.BookingConfirmed, domain.BookingCancelled, domain.BookingExpired,
	} {
		t.Run(string(status), func(t *testing.T) {
			env := newTestEnv(t)

			b := pendingBooking()
			b.Status = status
			env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, b.ID).
				Return(b, nil)

			_, err := env.svc.ConfirmPayment(context.Background(), b.ID, "txn-1")
			assert.ErrorIs(t, err, ErrBookingNotPending)
		})
	}
}

func TestConfirmPaymentNotFound(t *testing.T) {
	env := newTestEnv(t)

	id := uuid.New()
	env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, id).
		Return(nil, repository.ErrNotFound)

	_, err := env.svc.ConfirmPayment(context.Background(), id, "txn-1")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

// --- CancelBooking ---

func TestCancelConfirmedBookingRefunds(t *testing.T) {
	env := newTestEnv(t)

	b := pendingBooking()
	b.Status = domain.BookingConfirmed
	b.PaymentStatus = domain.PaymentCompleted

	env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, b.ID).
		Return(b, nil)
	env.flights.On("GetForUpdate", mock.Anything, mock.Anything, int64(42)).
		Return(testFlight(), nil)
	env.flights.On("AdjustSeats", mock.Anything, mock.Anything, int64(42), 2).
		Return(nil)
	env.bookings.On("UpdateStatus", mock.Anything, mock.Anything, b.ID,
		domain.BookingCancelled, domain.PaymentRefunded).Return(nil)
	env.payments.On("UpdateByBooking", mock.Anything, mock.Anything, b.ID,
		domain.PaymentRefunded, "").Return(nil)

	got, err := env.svc.CancelBooking(context.Background(), b.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.Equal(t, domain.PaymentRefunded, got.PaymentStatus)
	env.flights.AssertExpectations(t)
}

func TestCancelPendingBookingFailsPayment(t *testing.T) {
	env := newTestEnv(t)

	b := pendingBooking()
	env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, b.ID).
		Return(b, nil)
	env.flights.On("GetForUpdate", mock.Anything, mock.Anything, int64(42)).
		Return(testFlight(), nil)
	env.flights.On("AdjustSeats", mock.Anything, mock.Anything, int64(42), 2).
		Return(nil)
	env.bookings.On("UpdateStatus", mock.Anything, mock.Anything, b.ID,
		domain.BookingCancelled, domain.PaymentFailed).Return(nil)
	env.payments.On("UpdateByBooking", mock.Anything, mock.Anything, b.ID,
		domain.PaymentFailed, "").Return(nil)

	got, err := env.svc.CancelBooking(context.Background(), b.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, got.PaymentStatus)
}

func TestCancelBookingWrongUser(t *testing.T) {
	env := newTestEnv(t)

	b := pendingBooking()
	env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, b.ID).
		Return(b, nil)

	_, err := env.svc.CancelBooking(context.Background(), b.ID, 99)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	env.flights.AssertNotCalled(t, "AdjustSeats",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelBookingAlreadyCancelled(t *testing.T) {
	env := newTestEnv(t)

	b := pendingBooking()
	b.Status = domain.BookingCancelled
	env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, b.ID).
		Return(b, nil)

	_, err := env.svc.CancelBooking(context.Background(), b.ID, 1)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestCancelExpiredBookingDoesNotReleaseTwice(t *testing.T) {
	env := newTestEnv(t)

	b := pendingBooking()
	b.Status = domain.BookingExpired
	env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, b.ID).
		Return(b, nil)

	_, err := env.svc.CancelBooking(context.Background(), b.ID, 1)
	assert.ErrorIs(t, err, ErrReservationExpired)
	env.flights.AssertNotCalled(t, "AdjustSeats",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelBookingInsideWindow(t *testing.T) {
	env := newTestEnv(t)

	b := pendingBooking()
	f := testFlight()
	f.DepartureTime = testNow.Add(23 * time.Hour)

	env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, b.ID).
		Return(b, nil)
	env.flights.On("GetForUpdate", mock.Anything, mock.Anything, int64(42)).
		Return(f, nil)

	_, err := env.svc.CancelBooking(context.Background(), b.ID, 1)
	assert.ErrorIs(t, err, ErrCancellationWindowPassed)
	env.flights.AssertNotCalled(t, "AdjustSeats",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- ReleaseExpiredReservation ---

func TestReleaseExpiredReservation(t *testing.T) {
	env := newTestEnv(t)

	b := pendingBooking()
	b.ReservationExpiry = testNow.Add(-time.Minute)

	env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, b.ID).
		Return(b, nil)
	env.flights.On("AdjustSeats", mock.Anything, mock.Anything, int64(42), 2).
		Return(nil)
	env.bookings.On("UpdateStatus", mock.Anything, mock.Anything, b.ID,
		domain.BookingExpired, domain.PaymentFailed).Return(nil)
	env.payments.On("UpdateByBooking", mock.Anything, mock.Anything, b.ID,
		domain.PaymentFailed, "").Return(nil)

	err := env.svc.ReleaseExpiredReservation(context.Background(), b.ID)
	require.NoError(t, err)
	env.flights.AssertExpectations(t)
}

func TestReleaseExpiredReservationNoOps(t *testing.T) {
	cases := map[string]func(b *domain.Booking){
		"already confirmed": func(b *domain.Booking) {
			b.Status = domain.BookingConfirmed
			b.ReservationExpiry = testNow.Add(-time.Minute)
		},
		"already expired": func(b *domain.Booking) {
			b.Status = domain.BookingExpired
			b.ReservationExpiry = testNow.Add(-time.Minute)
		},
		"paid but status race": func(b *domain.Booking) {
			b.PaymentStatus = domain.PaymentCompleted
			b.ReservationExpiry = testNow.Add(-time.Minute)
		},
		"not yet due": func(b *domain.Booking) {
			b.ReservationExpiry = testNow.Add(time.Minute)
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)

			b := pendingBooking()
			mutate(b)
			env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, b.ID).
				Return(b, nil)

			err := env.svc.ReleaseExpiredReservation(context.Background(), b.ID)
			require.NoError(t, err)
			env.flights.AssertNotCalled(t, "AdjustSeats",
				mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestReleaseExpiredReservationMissingBooking(t *testing.T) {
	env := newTestEnv(t)

	id := uuid.New()
	env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, id).
		Return(nil, repository.ErrNotFound)

	err := env.svc.ReleaseExpiredReservation(context.Background(), id)
	assert.NoError(t, err)
}

// Double firing happens when the armed timer and the reconciliation sweep
// both pick up the same booking. The second call sees the expired status and
// must leave the seat count alone.
func TestReleaseExpiredReservationIdempotent(t *testing.T) {
	env := newTestEnv(t)

	b := pendingBooking()
	b.ReservationExpiry = testNow.Add(-time.Minute)

	released := &domain.Booking{}
	*released = *b
	released.Status = domain.BookingExpired
	released.PaymentStatus = domain.PaymentFailed

	env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, b.ID).
		Return(b, nil).Once()
	env.bookings.On("GetForUpdate", mock.Anything, mock.Anything, b.ID).
		Return(released, nil).Once()
	env.flights.On("AdjustSeats", mock.Anything, mock.Anything, int64(42), 2).
		Return(nil).Once()
	env.bookings.On("UpdateStatus", mock.Anything, mock.Anything, b.ID,
		domain.BookingExpired, domain.PaymentFailed).Return(nil).Once()
	env.payments.On("UpdateByBooking", mock.Anything, mock.Anything, b.ID,
		domain.PaymentFailed, "").Return(nil).Once()

	require.NoError(t, env.svc.ReleaseExpiredReservation(context.Background(), b.ID))
	require.NoError(t, env.svc.ReleaseExpiredReservation(context.Background(), b.ID))

	env.flights.AssertNumberOfCalls(t, "AdjustSeats", 1)
}

// --- GetBooking ---

func TestGetBooking(t *testing.T) {
	env := newTestEnv(t)

	b := pendingBooking()
	p := &domain.Payment{
		ID:            uuid.New(),
		BookingID:     b.ID,
		AmountCents:   b.TotalCents,
		Method:        domain.MethodCreditCard,
		Status:        domain.PaymentPending,
		TransactionID: "tx-1",
	}

	env.bookings.On("Get", mock.Anything, mock.Anything, b.ID).Return(b, nil)
	env.payments.On("GetByBooking", mock.Anything, mock.Anything, b.ID).Return(p, nil)

	gotB, gotP, err := env.svc.GetBooking(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, gotB)
	assert.Equal(t, p, gotP)
}

func TestGetBookingWithoutPayment(t *testing.T) {
	env := newTestEnv(t)

	b := pendingBooking()
	env.bookings.On("Get", mock.Anything, mock.Anything, b.ID).Return(b, nil)
	env.payments.On("GetByBooking", mock.Anything, mock.Anything, b.ID).
		Return(nil, repository.ErrNotFound)

	gotB, gotP, err := env.svc.GetBooking(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, gotB)
	assert.Nil(t, gotP)
}

func TestGetBookingNotFound(t *testing.T) {
	env := newTestEnv(t)

	id := uuid.New()
	env.bookings.On("Get", mock.Anything, mock.Anything, id).
		Return(nil, repository.ErrNotFound)

	_, _, err := env.svc.GetBooking(context.Background(), id)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
