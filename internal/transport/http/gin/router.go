package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samiunarno/Flight-management-Backend/internal/domain"
	redisrepo "github.com/samiunarno/Flight-management-Backend/internal/repository/redis"
	"github.com/samiunarno/Flight-management-Backend/internal/service"
	"github.com/samiunarno/Flight-management-Backend/internal/service/admin"
	"github.com/samiunarno/Flight-management-Backend/internal/service/booking"
	"github.com/samiunarno/Flight-management-Backend/internal/service/flights"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/flights/:id", handleGetFlight(svcs))
	r.GET("/search/flights", handleSearchFlights(svcs))
	r.GET("/search/connections", handleSearchConnections(svcs))

	r.POST("/bookings", handleCreateBooking(svcs, idem, limiter))
	r.POST("/bookings/:id/confirm", handleConfirmBooking(svcs))
	r.POST("/bookings/:id/cancel", handleCancelBooking(svcs))
	r.GET("/bookings/:id", handleGetBooking(svcs))
	r.GET("/bookings", handleListBookings(svcs))

	// Admin-API
	// TODO: add admin middleware
	adm := r.Group("/admin")
	{
		adm.POST("/airlines", handleCreateAirline(svcs))
		adm.POST("/flights", handleCreateFlight(svcs))
		adm.PATCH("/flights/:id", handleUpdateFlight(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Get flight
// @Param    id  path  int  true  "Flight ID"
// @Success  200  {object}  FlightResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /flights/{id} [get]
func handleGetFlight(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		flightID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		f, err := svcs.Flights.GetFlight(c.Request.Context(), flightID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, toFlightResponse(*f), "public, max-age=60", true)
	}
}

// @Summary  Search direct flights
// @Param    from        query  string  true   "origin airport code"
// @Param    to          query  string  true   "destination airport code"
// @Param    date        query  string  true   "travel date (YYYY-MM-DD)"
// @Param    passengers  query  int     false  "seats needed"
// @Param    class       query  string  false  "economy|business|first"
// @Param    airline     query  string  false  "airline code"
// @Param    page        query  int     false  "page number"
// @Param    page_size   query  int     false  "page size"
// @Success  200  {object}  PageResponse[FlightResponse]
// @Failure  400  {object}  ErrorResponse
// @Router   /search/flights [get]
func handleSearchFlights(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, page, ok := parseSearchQuery(c)
		if !ok {
			return
		}
		res, err := svcs.Flights.Search(c.Request.Context(), q, page)
		if err != nil {
			respondErr(c, err)
			return
		}

		items := make([]FlightResponse, 0, len(res.Items))
		for _, f := range res.Items {
			items = append(items, toFlightResponse(f))
		}

		writeJSONWithCache(c, http.StatusOK, PageResponse[FlightResponse]{
			Items:      items,
			Page:       res.Page,
			TotalPages: res.TotalPages,
			TotalItems: res.TotalItems,
		}, "public, max-age=15", true)
	}
}

// @Summary  Search connecting itineraries
// @Param    from        query  string  true   "origin airport code"
// @Param    to          query  string  true   "destination airport code"
// @Param    date        query  string  true   "travel date (YYYY-MM-DD)"
// @Param    passengers  query  int     false  "seats needed"
// @Param    page        query  int     false  "page number"
// @Param    page_size   query  int     false  "page size"
// @Success  200  {object}  PageResponse[ConnectionResponse]
// @Failure  400  {object}  ErrorResponse
// @Router   /search/connections [get]
func handleSearchConnections(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, page, ok := parseSearchQuery(c)
		if !ok {
			return
		}
		res, err := svcs.Flights.SearchConnections(c.Request.Context(), q, page)
		if err != nil {
			respondErr(c, err)
			return
		}

		items := make([]ConnectionResponse, 0, len(res.Items))
		for _, p := range res.Items {
			items = append(items, toConnectionResponse(p))
		}

		writeJSONWithCache(c, http.StatusOK, PageResponse[ConnectionResponse]{
			Items:      items,
			Page:       res.Page,
			TotalPages: res.TotalPages,
			TotalItems: res.TotalItems,
		}, "public, max-age=15", true)
	}
}

// @Summary  Create booking (idempotent)
// @Param    X-User-ID  header  int  true  "caller user ID"
// @Param    req body  CreateBookingRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} BookingResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "seats unavailable / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /bookings [post]
func handleCreateBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	limiter *redisrepo.SlidingWindowLimiter,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if limiter != nil {
			allowed, _, retryAfter, err := limiter.Allow(
				c.Request.Context(),
				"user:"+strconv.FormatInt(userID, 10),
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !allowed {
				secs := int(retryAfter.Seconds()) + 1
				c.Header("Retry-After", strconv.Itoa(secs))
				c.JSON(
					http.StatusTooManyRequests,
					ErrorResponse{Error: booking.ErrRateLimited.Error()},
				)
				return
			}
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(userID, idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusCreated,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		passengers := make([]domain.Passenger, 0, len(req.Passengers))
		for _, p := range req.Passengers {
			passengers = append(passengers, domain.Passenger{
				Name:       p.Name,
				Age:        p.Age,
				Gender:     domain.Gender(p.Gender),
				SeatNumber: p.SeatNumber,
			})
		}

		b, err := svcs.Booking.CreateReservation(c.Request.Context(), booking.CreateReservationInput{
			UserID:     userID,
			FlightID:   req.FlightID,
			Seats:      req.Seats,
			Passengers: passengers,
			Method:     domain.PaymentMethod(req.PaymentMethod),
		})
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := toBookingResponse(b)

		if idemStorageKey != "" && idem != nil {
			payload, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(payload))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Confirm booking payment
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Param    req body  ConfirmBookingRequest true "payload"
// @Success  200 {object} BookingResponse
// @Failure  409 {object} ErrorResponse
// @Router   /bookings/{id}/confirm [post]
func handleConfirmBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req ConfirmBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		b, err := svcs.Booking.ConfirmPayment(
			c.Request.Context(),
			bookingID,
			req.TransactionID,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(b))
	}
}

// @Summary  Cancel booking
// @Param    X-User-ID  header  int  true  "caller user ID"
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Failure  409 {object} ErrorResponse
// @Router   /bookings/{id}/cancel [post]
func handleCancelBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		bookingID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Booking.CancelBooking(c.Request.Context(), bookingID, userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(b))
	}
}

// @Summary  Get booking
// @Param    X-User-ID  header  int  true  "caller user ID"
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Failure  404 {object} ErrorResponse
// @Router   /bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		bookingID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, p, err := svcs.Booking.GetBooking(c.Request.Context(), bookingID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// Another user's booking is indistinguishable from a missing one.
		if b.UserID != userID {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
			return
		}
		resp := toBookingResponse(b)
		resp.Payment = toPaymentResponse(p)
		c.JSON(http.StatusOK, resp)
	}
}

// @Summary  List caller's bookings
// @Param    X-User-ID  header  int  true  "caller user ID"
// @Success  200 {array} BookingResponse
// @Router   /bookings [get]
func handleListBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		bookings, err := svcs.Booking.UserBookings(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		out := make([]BookingResponse, 0, len(bookings))
		for i := range bookings {
			out = append(out, toBookingResponse(&bookings[i]))
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Create airline
// @Param    req body  CreateAirlineRequest true "payload"
// @Success  201 {object} AirlineResponse
// @Failure  409 {object} ErrorResponse
// @Router   /admin/airlines [post]
func handleCreateAirline(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateAirlineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		a, err := svcs.Admin.CreateAirline(c.Request.Context(), admin.CreateAirlineInput{
			Name:    req.Name,
			Code:    req.Code,
			Country: req.Country,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toAirlineResponse(a))
	}
}

// @Summary  Create flight
// @Param    req body  CreateFlightRequest true "payload"
// @Success  201 {object} FlightResponse
// @Failure  409 {object} ErrorResponse
// @Router   /admin/flights [post]
func handleCreateFlight(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateFlightRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		departure, err := parseRFC3339(req.DepartureTime)
		if err != nil {
			badRequest(c, "invalid departure_time (RFC3339)")
			return
		}
		arrival, err := parseRFC3339(req.ArrivalTime)
		if err != nil {
			badRequest(c, "invalid arrival_time (RFC3339)")
			return
		}
		f, err := svcs.Admin.CreateFlight(c.Request.Context(), admin.CreateFlightInput{
			AirlineCode:      req.AirlineCode,
			FlightNumber:     req.FlightNumber,
			DepartureAirport: req.DepartureAirport,
			ArrivalAirport:   req.ArrivalAirport,
			DepartureTime:    departure,
			ArrivalTime:      arrival,
			PriceCents:       req.PriceCents,
			SeatsAvailable:   req.SeatsAvailable,
			TotalSeats:       req.TotalSeats,
			Class:            domain.TravelClass(req.Class),
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toFlightResponse(*f))
	}
}

// @Summary  Update flight
// @Param    id  path  int  true  "Flight ID"
// @Param    req body  UpdateFlightRequest true "payload"
// @Success  200 {object} FlightResponse
// @Failure  404 {object} ErrorResponse
// @Router   /admin/flights/{id} [patch]
func handleUpdateFlight(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		flightID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req UpdateFlightRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		var in admin.UpdateFlightInput
		if req.DepartureTime != nil {
			t, err := parseRFC3339(*req.DepartureTime)
			if err != nil {
				badRequest(c, "invalid departure_time (RFC3339)")
				return
			}
			in.DepartureTime = &t
		}
		if req.ArrivalTime != nil {
			t, err := parseRFC3339(*req.ArrivalTime)
			if err != nil {
				badRequest(c, "invalid arrival_time (RFC3339)")
				return
			}
			in.ArrivalTime = &t
		}
		in.PriceCents = req.PriceCents
		if req.Status != nil {
			st := domain.FlightStatus(*req.Status)
			in.Status = &st
		}

		f, err := svcs.Admin.UpdateFlight(c.Request.Context(), flightID, in)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toFlightResponse(*f))
	}
}

// --- Helpers ---

func callerID(c *gin.Context) (int64, bool) {
	s := c.GetHeader("X-User-ID")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing or invalid X-User-ID"})
		return 0, false
	}
	return v, true
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func parseSearchQuery(c *gin.Context) (flights.SearchQuery, Page, bool) {
	var q flights.SearchQuery

	q.Origin = strings.ToUpper(strings.TrimSpace(c.Query("from")))
	q.Destination = strings.ToUpper(strings.TrimSpace(c.Query("to")))
	q.Passengers = parseIntDefault(c.Query("passengers"), 1)
	q.Class = domain.TravelClass(c.Query("class"))
	q.AirlineCode = strings.ToUpper(strings.TrimSpace(c.Query("airline")))

	if s := c.Query("min_price_cents"); s != "" {
		q.MinPriceCents = int64(parseIntDefault(s, 0))
	}
	if s := c.Query("max_price_cents"); s != "" {
		q.MaxPriceCents = int64(parseIntDefault(s, 0))
	}

	date := c.Query("date")
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		t, err = time.Parse(time.RFC3339, date)
	}
	if err != nil {
		badRequest(c, "invalid date (YYYY-MM-DD)")
		return q, Page{}, false
	}
	q.Date = t

	page := Page{
		Number: parseIntDefault(c.Query("page"), 1),
		Size:   parseIntDefault(c.Query("page_size"), 0),
	}

	return q, page, true
}

type Page = flights.Page

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// booking service
	case errors.Is(err, booking.ErrInvalidInput),
		errors.Is(err, booking.ErrPassengerCountMismatch):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrFlightNotFound),
		errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrFlightNotBookable),
		errors.Is(err, booking.ErrInsufficientSeats),
		errors.Is(err, booking.ErrBookingNotPending),
		errors.Is(err, booking.ErrReservationExpired),
		errors.Is(err, booking.ErrAlreadyCancelled),
		errors.Is(err, booking.ErrCancellationWindowPassed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})

	// flights service
	case errors.Is(err, flights.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, flights.ErrFlightNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	// admin service
	case errors.Is(err, admin.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, admin.ErrAirlineNotFound),
		errors.Is(err, admin.ErrFlightNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, admin.ErrAirlineExists),
		errors.Is(err, admin.ErrFlightExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
