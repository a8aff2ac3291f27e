package flights

import (
	"context"
	"testing"
	"time"

	"github.com/samiunarno/Flight-management-Backend/internal/domain"
	"github.com/samiunarno/Flight-management-Backend/internal/repository"
	postgresrepo "github.com/samiunarno/Flight-management-Backend/internal/repository/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFinder struct{ mock.Mock }

func (m *mockFinder) Get(ctx context.Context, db postgresrepo.DB, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, db, id)
	if f := args.Get(0); f != nil {
		return f.(*domain.Flight), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFinder) Search(ctx context.Context, db postgresrepo.DB, f postgresrepo.SearchFilter, limit, offset int) ([]domain.Flight, int64, error) {
	args := m.Called(ctx, db, f, limit, offset)
	if fl := args.Get(0); fl != nil {
		return fl.([]domain.Flight), args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

func (m *mockFinder) ReachableAirports(ctx context.Context, db postgresrepo.DB, origin string, dayStart, dayEnd time.Time, passengers int) ([]string, error) {
	args := m.Called(ctx, db, origin, dayStart, dayEnd, passengers)
	if a := args.Get(0); a != nil {
		return a.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFinder) ListLegs(ctx context.Context, db postgresrepo.DB, origin, destination string, from, to time.Time, passengers int) ([]domain.Flight, error) {
	args := m.Called(ctx, db, origin, destination, from, to, passengers)
	if f := args.Get(0); f != nil {
		return f.([]domain.Flight), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAirlines struct{ mock.Mock }

func (m *mockAirlines) GetByCode(ctx context.Context, db postgresrepo.DB, code string) (*domain.Airline, error) {
	args := m.Called(ctx, db, code)
	if a := args.Get(0); a != nil {
		return a.(*domain.Airline), args.Error(1)
	}
	return nil, args.Error(1)
}

var travelDay = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func leg(id int64, from, to string, dep, arr time.Time, priceCents int64) domain.Flight {
	return domain.Flight{
		ID:               id,
		FlightNumber:     "FB-100",
		DepartureAirport: from,
		ArrivalAirport:   to,
		DepartureTime:    dep,
		ArrivalTime:      arr,
		PriceCents:       priceCents,
		SeatsAvailable:   20,
		TotalSeats:       180,
		Class:            domain.ClassEconomy,
		Status:           domain.FlightScheduled,
	}
}

func at(h, m int) time.Time {
	return travelDay.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func baseQuery() SearchQuery {
	return SearchQuery{
		Origin:      "JFK",
		Destination: "SFO",
		Date:        travelDay,
		Passengers:  1,
	}
}

func TestSearchQueryValidation(t *testing.T) {
	svc := New(&mockFinder{}, &mockAirlines{}, nil, Config{})

	cases := map[string]func(q *SearchQuery){
		"lowercase origin":        func(q *SearchQuery) { q.Origin = "jfk" },
		"short destination":       func(q *SearchQuery) { q.Destination = "SF" },
		"same origin destination": func(q *SearchQuery) { q.Destination = "JFK" },
		"zero passengers":         func(q *SearchQuery) { q.Passengers = 0 },
		"missing date":            func(q *SearchQuery) { q.Date = time.Time{} },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			q := baseQuery()
			mutate(&q)
			_, err := svc.Search(context.Background(), q, Page{})
			assert.ErrorIs(t, err, ErrInvalidQuery)
			_, err = svc.SearchConnections(context.Background(), q, Page{})
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestSearchUnknownAirlineMatchesNothing(t *testing.T) {
	finder := &mockFinder{}
	airlines := &mockAirlines{}
	svc := New(finder, airlines, nil, Config{})

	airlines.On("GetByCode", mock.Anything, mock.Anything, "XX").
		Return(nil, repository.ErrNotFound)

	q := baseQuery()
	q.AirlineCode = "XX"

	res, err := svc.Search(context.Background(), q, Page{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Zero(t, res.TotalItems)
	finder.AssertNotCalled(t, "Search",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchPageClamping(t *testing.T) {
	finder := &mockFinder{}
	svc := New(finder, &mockAirlines{}, nil, Config{})

	finder.On("Search", mock.Anything, mock.Anything, mock.Anything, 50, 0).
		Return([]domain.Flight{}, int64(0), nil).Once()
	_, err := svc.Search(context.Background(), baseQuery(), Page{Number: 1, Size: 500})
	require.NoError(t, err)

	finder.On("Search", mock.Anything, mock.Anything, mock.Anything, 10, 10).
		Return([]domain.Flight{}, int64(0), nil).Once()
	_, err = svc.Search(context.Background(), baseQuery(), Page{Number: 2, Size: 0})
	require.NoError(t, err)

	finder.AssertExpectations(t)
}

func TestSearchConnectionsLayoverFloor(t *testing.T) {
	finder := &mockFinder{}
	svc := New(finder, &mockAirlines{}, nil, Config{})

	dayEnd := travelDay.Add(24 * time.Hour)

	outbound := leg(1, "JFK", "ORD", at(8, 0), at(10, 0), 20_000)

	finder.On("ReachableAirports", mock.Anything, mock.Anything, "JFK", travelDay, dayEnd, 1).
		Return([]string{"ORD"}, nil)
	finder.On("ListLegs", mock.Anything, mock.Anything, "JFK", "ORD", travelDay, dayEnd, 1).
		Return([]domain.Flight{outbound}, nil)
	// Onward legs are requested from arrival+2h, so an 11:30 departure (a
	// 90-minute gap) never comes back.
	finder.On("ListLegs", mock.Anything, mock.Anything, "ORD", "SFO", at(12, 0), dayEnd, 1).
		Return([]domain.Flight{}, nil)

	res, err := svc.SearchConnections(context.Background(), baseQuery(), Page{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	finder.AssertExpectations(t)
}

func TestSearchConnectionsEarliestOnwardWins(t *testing.T) {
	finder := &mockFinder{}
	svc := New(finder, &mockAirlines{}, nil, Config{})

	dayEnd := travelDay.Add(24 * time.Hour)
	outbound := leg(1, "JFK", "ORD", at(8, 0), at(10, 0), 20_000)
	early := leg(2, "ORD", "SFO", at(12, 30), at(15, 0), 30_000)
	late := leg(3, "ORD", "SFO", at(16, 0), at(18, 30), 10_000)

	finder.On("ReachableAirports", mock.Anything, mock.Anything, "JFK", travelDay, dayEnd, 1).
		Return([]string{"ORD"}, nil)
	finder.On("ListLegs", mock.Anything, mock.Anything, "JFK", "ORD", travelDay, dayEnd, 1).
		Return([]domain.Flight{outbound}, nil)
	finder.On("ListLegs", mock.Anything, mock.Anything, "ORD", "SFO", at(12, 0), dayEnd, 1).
		Return([]domain.Flight{early, late}, nil)

	res, err := svc.SearchConnections(context.Background(), baseQuery(), Page{})
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(2), res.Items[0].Connecting.ID)
	assert.Equal(t, int64(50_000), res.Items[0].TotalCents)
}

func TestSearchConnectionsSortedByTotalPrice(t *testing.T) {
	finder := &mockFinder{}
	svc := New(finder, &mockAirlines{}, nil, Config{})

	dayEnd := travelDay.Add(24 * time.Hour)

	viaORD := leg(1, "JFK", "ORD", at(8, 0), at(10, 0), 30_000)
	ordSFO := leg(2, "ORD", "SFO", at(13, 0), at(15, 30), 25_000)
	viaDEN := leg(3, "JFK", "DEN", at(9, 0), at(11, 30), 15_000)
	denSFO := leg(4, "DEN", "SFO", at(14, 0), at(16, 0), 20_000)

	finder.On("ReachableAirports", mock.Anything, mock.Anything, "JFK", travelDay, dayEnd, 1).
		Return([]string{"ORD", "DEN", "SFO"}, nil)
	finder.On("ListLegs", mock.Anything, mock.Anything, "JFK", "ORD", travelDay, dayEnd, 1).
		Return([]domain.Flight{viaORD}, nil)
	finder.On("ListLegs", mock.Anything, mock.Anything, "ORD", "SFO", at(12, 0), dayEnd, 1).
		Return([]domain.Flight{ordSFO}, nil)
	finder.On("ListLegs", mock.Anything, mock.Anything, "JFK", "DEN", travelDay, dayEnd, 1).
		Return([]domain.Flight{viaDEN}, nil)
	finder.On("ListLegs", mock.Anything, mock.Anything, "DEN", "SFO", at(13, 30), dayEnd, 1).
		Return([]domain.Flight{denSFO}, nil)

	res, err := svc.SearchConnections(context.Background(), baseQuery(), Page{})
	require.NoError(t, err)

	// The destination itself must never be used as an intermediate, so only
	// the two real connections come back, cheapest first.
	require.Len(t, res.Items, 2)
	assert.Equal(t, int64(35_000), res.Items[0].TotalCents)
	assert.Equal(t, "DEN", res.Items[0].Outbound.ArrivalAirport)
	assert.Equal(t, int64(55_000), res.Items[1].TotalCents)
}

func TestSearchConnectionsPagination(t *testing.T) {
	finder := &mockFinder{}
	svc := New(finder, &mockAirlines{}, nil, Config{})

	dayEnd := travelDay.Add(24 * time.Hour)

	outbounds := make([]domain.Flight, 0, 3)
	for i := 0; i < 3; i++ {
		dep := at(6+2*i, 0)
		outbounds = append(outbounds, leg(int64(i+1), "JFK", "ORD", dep, dep.Add(2*time.Hour), int64(10_000*(i+1))))
	}

	finder.On("ReachableAirports", mock.Anything, mock.Anything, "JFK", travelDay, dayEnd, 1).
		Return([]string{"ORD"}, nil)
	finder.On("ListLegs", mock.Anything, mock.Anything, "JFK", "ORD", travelDay, dayEnd, 1).
		Return(outbounds, nil)
	for i, out := range outbounds {
		onward := leg(int64(10+i), "ORD", "SFO", out.ArrivalTime.Add(3*time.Hour), out.ArrivalTime.Add(5*time.Hour), 5_000)
		finder.On("ListLegs", mock.Anything, mock.Anything, "ORD", "SFO",
			out.ArrivalTime.Add(2*time.Hour), dayEnd, 1).
			Return([]domain.Flight{onward}, nil)
	}

	res, err := svc.SearchConnections(context.Background(), baseQuery(), Page{Number: 2, Size: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(3), res.TotalItems)
	assert.Equal(t, 2, res.TotalPages)
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(35_000), res.Items[0].TotalCents)
}

func TestGetFlightWithoutCache(t *testing.T) {
	finder := &mockFinder{}
	svc := New(finder, &mockAirlines{}, nil, Config{})

	f := leg(7, "JFK", "LAX", at(8, 0), at(14, 0), 25_000)
	finder.On("Get", mock.Anything, mock.Anything, int64(7)).Return(&f, nil)

	got, err := svc.GetFlight(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
}

func TestGetFlightNotFound(t *testing.T) {
	finder := &mockFinder{}
	svc := New(finder, &mockAirlines{}, nil, Config{})

	finder.On("Get", mock.Anything, mock.Anything, int64(7)).
		Return(nil, repository.ErrNotFound)

	_, err := svc.GetFlight(context.Background(), 7)
	assert.ErrorIs(t, err, ErrFlightNotFound)
}
