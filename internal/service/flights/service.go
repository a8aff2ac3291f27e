package flights

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/samiunarno/Flight-management-Backend/internal/domain"
	"github.com/samiunarno/Flight-management-Backend/internal/repository"
	postgresrepo "github.com/samiunarno/Flight-management-Backend/internal/repository/postgres"
	redisrepo "github.com/samiunarno/Flight-management-Backend/internal/repository/redis"
	redisx "github.com/samiunarno/Flight-management-Backend/internal/redis"
)

// minLayover is the connection-time floor between the two legs of a
// connecting itinerary.
const minLayover = 2 * time.Hour

var airportCode = regexp.MustCompile(`^[A-Z]{3}$`)

// FlightFinder is the read surface of the flight inventory. Satisfied by
// postgres.FlightRepo.
type FlightFinder interface {
	Get(ctx context.Context, db postgresrepo.DB, id int64) (*domain.Flight, error)
	Search(ctx context.Context, db postgresrepo.DB, f postgresrepo.SearchFilter, limit, offset int) ([]domain.Flight, int64, error)
	ReachableAirports(ctx context.Context, db postgresrepo.DB, origin string, dayStart, dayEnd time.Time, passengers int) ([]string, error)
	ListLegs(ctx context.Context, db postgresrepo.DB, origin, destination string, from, to time.Time, passengers int) ([]domain.Flight, error)
}

// AirlineFinder resolves airline codes used as search filters. Satisfied by
// postgres.AirlineRepo.
type AirlineFinder interface {
	GetByCode(ctx context.Context, db postgresrepo.DB, code string) (*domain.Airline, error)
}

type Config struct {
	FlightSummaryTTL time.Duration
	DefaultPageSize  int
	MaxPageSize      int
}

type Service struct {
	flights  FlightFinder
	airlines AirlineFinder
	cache    *redisrepo.Cache
	cfg      Config
}

func New(flights FlightFinder, airlines AirlineFinder, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.FlightSummaryTTL <= 0 {
		cfg.FlightSummaryTTL = 60 * time.Second
	}

	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}

	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 50
	}

	return &Service{
		flights:  flights,
		airlines: airlines,
		cache:    cache,
		cfg:      cfg,
	}
}

// SearchQuery is the typed query for both direct and connecting search.
type SearchQuery struct {
	Origin        string
	Destination   string
	Date          time.Time
	Passengers    int
	Class         domain.TravelClass
	MinPriceCents int64
	MaxPriceCents int64
	AirlineCode   string
}

func (q SearchQuery) validate() error {
	if !airportCode.MatchString(q.Origin) || !airportCode.MatchString(q.Destination) {
		return fmt.Errorf("%w: airport codes must be 3 uppercase letters", ErrInvalidQuery)
	}

	if q.Origin == q.Destination {
		return fmt.Errorf("%w: origin and destination must differ", ErrInvalidQuery)
	}

	if q.Passengers < 1 {
		return fmt.Errorf("%w: at least one passenger required", ErrInvalidQuery)
	}

	if q.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidQuery)
	}

	return nil
}

// day returns the [start, end) bounds of the query's travel day in the
// query date's location.
func (q SearchQuery) day() (time.Time, time.Time) {
	y, m, d := q.Date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, q.Date.Location())
	return start, start.Add(24 * time.Hour)
}

type Page struct {
	Number int
	Size   int
}

func (s *Service) clampPage(p Page) Page {
	if p.Number < 1 {
		p.Number = 1
	}

	if p.Size < 1 {
		p.Size = s.cfg.DefaultPageSize
	}

	if p.Size > s.cfg.MaxPageSize {
		p.Size = s.cfg.MaxPageSize
	}

	return p
}

type PageResult[T any] struct {
	Items      []T
	Page       int
	TotalPages int
	TotalItems int64
}

func newPageResult[T any](items []T, total int64, p Page) PageResult[T] {
	totalPages := int((total + int64(p.Size) - 1) / int64(p.Size))

	return PageResult[T]{
		Items:      items,
		Page:       p.Number,
		TotalPages: totalPages,
		TotalItems: total,
	}
}

// Search lists bookable direct flights matching the query, cheapest first.
func (s *Service) Search(ctx context.Context, q SearchQuery, page Page) (PageResult[domain.Flight], error) {
	const op = "service.flights.Search"

	var zero PageResult[domain.Flight]

	if err := q.validate(); err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	page = s.clampPage(page)
	dayStart, dayEnd := q.day()

	filter := postgresrepo.SearchFilter{
		DepartureAirport: q.Origin,
		ArrivalAirport:   q.Destination,
		DayStart:         dayStart,
		DayEnd:           dayEnd,
		Passengers:       q.Passengers,
		Class:            q.Class,
		MinPriceCents:    q.MinPriceCents,
		MaxPriceCents:    q.MaxPriceCents,
	}

	if q.AirlineCode != "" {
		airline, err := s.airlines.GetByCode(ctx, nil, q.AirlineCode)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Unknown airline filter matches nothing.
				return newPageResult[domain.Flight](nil, 0, page), nil
			}
			return zero, fmt.Errorf("%s: %w", op, err)
		}
		filter.AirlineID = airline.ID
	}

	items, total, err := s.flights.Search(ctx, nil, filter,
		page.Size, (page.Number-1)*page.Size)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	return newPageResult(items, total, page), nil
}

// SearchConnections enumerates two-leg itineraries: every airport reachable
// directly from the origin on the travel date is tried as an intermediate,
// and for each outbound leg the earliest onward flight departing at least
// minLayover after the outbound's arrival and no later than end of day is
// paired with it. Pairs are ordered by summed price and paginated in memory.
func (s *Service) SearchConnections(ctx context.Context, q SearchQuery, page Page) (PageResult[domain.ConnectingPair], error) {
	const op = "service.flights.SearchConnections"

	var zero PageResult[domain.ConnectingPair]

	if err := q.validate(); err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	page = s.clampPage(page)
	dayStart, dayEnd := q.day()

	intermediates, err := s.flights.ReachableAirports(ctx, nil, q.Origin, dayStart, dayEnd, q.Passengers)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	var pairs []domain.ConnectingPair

	for _, via := range intermediates {
		if via == q.Destination {
			continue
		}

		outbounds, err := s.flights.ListLegs(ctx, nil, q.Origin, via, dayStart, dayEnd, q.Passengers)
		if err != nil {
			return zero, fmt.Errorf("%s: %w", op, err)
		}

		for _, outbound := range outbounds {
			earliest := outbound.ArrivalTime.Add(minLayover)
			if !earliest.Before(dayEnd) {
				continue
			}

			onward, err := s.flights.ListLegs(ctx, nil, via, q.Destination, earliest, dayEnd, q.Passengers)
			if err != nil {
				return zero, fmt.Errorf("%s: %w", op, err)
			}

			if len(onward) == 0 {
				continue
			}

			// Legs come back in departure order; the first one is the
			// tightest valid connection.
			pairs = append(pairs, domain.ConnectingPair{
				Outbound:   outbound,
				Connecting: onward[0],
				TotalCents: outbound.PriceCents + onward[0].PriceCents,
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].TotalCents < pairs[j].TotalCents
	})

	total := int64(len(pairs))
	offset := (page.Number - 1) * page.Size
	if offset > len(pairs) {
		offset = len(pairs)
	}
	end := offset + page.Size
	if end > len(pairs) {
		end = len(pairs)
	}

	return newPageResult(pairs[offset:end], total, page), nil
}

// GetFlight retrieves a flight by ID through the cache.
func (s *Service) GetFlight(ctx context.Context, id int64) (*domain.Flight, error) {
	const op = "service.flights.GetFlight"

	if s.cache == nil {
		f, err := s.flights.Get(ctx, nil, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%s: %w", op, ErrFlightNotFound)
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return f, nil
	}

	flight, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyFlightSummary(id),
		s.cfg.FlightSummaryTTL,
		func(ctx context.Context) (domain.Flight, error) {
			f, err := s.flights.Get(ctx, nil, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Flight{}, ErrFlightNotFound
				}
				return domain.Flight{}, err
			}
			return *f, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &flight, nil
}
