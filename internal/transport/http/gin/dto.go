package httpgin

import (
	"time"

	"github.com/samiunarno/Flight-management-Backend/internal/domain"
)

type CreateBookingRequest struct {
	FlightID      int64            `json:"flight_id" binding:"required"`
	Seats         int              `json:"seats" binding:"required,gt=0"`
	Passengers    []PassengerInput `json:"passengers" binding:"required,min=1,dive"`
	PaymentMethod string           `json:"payment_method" binding:"required"`
}

type PassengerInput struct {
	Name       string `json:"name" binding:"required"`
	Age        int    `json:"age" binding:"required,gt=0"`
	Gender     string `json:"gender" binding:"required"`
	SeatNumber string `json:"seat_number"`
}

type ConfirmBookingRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
}

type CreateAirlineRequest struct {
	Name    string `json:"name" binding:"required"`
	Code    string `json:"code" binding:"required"`
	Country string `json:"country" binding:"required"`
}

type CreateFlightRequest struct {
	AirlineCode      string `json:"airline_code" binding:"required"`
	FlightNumber     string `json:"flight_number" binding:"required"`
	DepartureAirport string `json:"departure_airport" binding:"required"`
	ArrivalAirport   string `json:"arrival_airport" binding:"required"`
	DepartureTime    string `json:"departure_time" binding:"required"`
	ArrivalTime      string `json:"arrival_time" binding:"required"`
	PriceCents       int64  `json:"price_cents" binding:"required,gt=0"`
	SeatsAvailable   int    `json:"seats_available"`
	TotalSeats       int    `json:"total_seats" binding:"required,gt=0"`
	Class            string `json:"class" binding:"required"`
}

type UpdateFlightRequest struct {
	DepartureTime *string `json:"departure_time"`
	ArrivalTime   *string `json:"arrival_time"`
	PriceCents    *int64  `json:"price_cents"`
	Status        *string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type AirlineResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Country string `json:"country"`
}

type FlightResponse struct {
	ID               int64     `json:"id"`
	AirlineID        int64     `json:"airline_id"`
	FlightNumber     string    `json:"flight_number"`
	DepartureAirport string    `json:"departure_airport"`
	ArrivalAirport   string    `json:"arrival_airport"`
	DepartureTime    time.Time `json:"departure_time"`
	ArrivalTime      time.Time `json:"arrival_time"`
	PriceCents       int64     `json:"price_cents"`
	SeatsAvailable   int       `json:"seats_available"`
	TotalSeats       int       `json:"total_seats"`
	Class            string    `json:"class"`
	Status           string    `json:"status"`
}

type ConnectionResponse struct {
	Outbound      FlightResponse `json:"outbound"`
	Connecting    FlightResponse `json:"connecting"`
	TotalCents    int64          `json:"total_cents"`
	LayoverMinute int            `json:"layover_minutes"`
}

type PaymentResponse struct {
	ID            string    `json:"id"`
	AmountCents   int64     `json:"amount_cents"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id"`
	Method        string    `json:"method"`
	CreatedAt     time.Time `json:"created_at"`
}

type BookingResponse struct {
	ID                string             `json:"id"`
	UserID            int64              `json:"user_id"`
	FlightID          int64              `json:"flight_id"`
	SeatsBooked       int                `json:"seats_booked"`
	Status            string             `json:"status"`
	PaymentStatus     string             `json:"payment_status"`
	ReservationExpiry time.Time          `json:"reservation_expiry"`
	TotalCents        int64              `json:"total_cents"`
	Passengers        []domain.Passenger `json:"passengers"`
	CreatedAt         time.Time          `json:"created_at"`
	Payment           *PaymentResponse   `json:"payment,omitempty"`
}

type PageResponse[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
}

func toAirlineResponse(a *domain.Airline) AirlineResponse {
	return AirlineResponse{
		ID:      a.ID,
		Name:    a.Name,
		Code:    a.Code,
		Country: a.Country,
	}
}

func toFlightResponse(f domain.Flight) FlightResponse {
	return FlightResponse{
		ID:               f.ID,
		AirlineID:        f.AirlineID,
		FlightNumber:     f.FlightNumber,
		DepartureAirport: f.DepartureAirport,
		ArrivalAirport:   f.ArrivalAirport,
		DepartureTime:    f.DepartureTime,
		ArrivalTime:      f.ArrivalTime,
		PriceCents:       f.PriceCents,
		SeatsAvailable:   f.SeatsAvailable,
		TotalSeats:       f.TotalSeats,
		Class:            string(f.Class),
		Status:           string(f.Status),
	}
}

func toConnectionResponse(p domain.ConnectingPair) ConnectionResponse {
	return ConnectionResponse{
		Outbound:      toFlightResponse(p.Outbound),
		Connecting:    toFlightResponse(p.Connecting),
		TotalCents:    p.TotalCents,
		LayoverMinute: int(p.Connecting.DepartureTime.Sub(p.Outbound.ArrivalTime).Minutes()),
	}
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:                b.ID.String(),
		UserID:            b.UserID,
		FlightID:          b.FlightID,
		SeatsBooked:       b.SeatsBooked,
		Status:            string(b.Status),
		PaymentStatus:     string(b.PaymentStatus),
		ReservationExpiry: b.ReservationExpiry,
		TotalCents:        b.TotalCents,
		Passengers:        b.Passengers,
		CreatedAt:         b.CreatedAt,
	}
}

func toPaymentResponse(p *domain.Payment) *PaymentResponse {
	if p == nil {
		return nil
	}
	return &PaymentResponse{
		ID:            p.ID.String(),
		AmountCents:   p.AmountCents,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		Method:        string(p.Method),
		CreatedAt:     p.CreatedAt,
	}
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
