package domain

import (
	"time"

	"github.com/google/uuid"
)

type FlightStatus string

const (
	FlightScheduled FlightStatus = "scheduled"
	FlightDelayed   FlightStatus = "delayed"
	FlightCancelled FlightStatus = "cancelled"
	FlightCompleted FlightStatus = "completed"
)

type TravelClass string

const (
	ClassEconomy  TravelClass = "economy"
	ClassBusiness TravelClass = "business"
	ClassFirst    TravelClass = "first"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingExpired   BookingStatus = "expired"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Airline struct {
	ID      int64
	Name    string
	Code    string // 2-3 uppercase letters
	Country string
}

type Flight struct {
	ID               int64
	AirlineID        int64
	FlightNumber     string
	DepartureAirport string // IATA code, 3 uppercase letters
	ArrivalAirport   string
	DepartureTime    time.Time
	ArrivalTime      time.Time
	PriceCents       int64
	SeatsAvailable   int
	TotalSeats       int
	Class            TravelClass
	Status           FlightStatus
	CreatedAt        time.Time
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type Passenger struct {
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Gender     Gender `json:"gender"`
	SeatNumber string `json:"seat_number,omitempty"`
}

type Booking struct {
	ID                uuid.UUID
	UserID            int64
	FlightID          int64
	SeatsBooked       int
	Status            BookingStatus
	PaymentStatus     PaymentStatus
	ReservationExpiry time.Time
	TotalCents        int64
	Passengers        []Passenger
	CreatedAt         time.Time
}

type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "credit_card"
	MethodDebitCard  PaymentMethod = "debit_card"
	MethodUPI        PaymentMethod = "upi"
	MethodNetBanking PaymentMethod = "net_banking"
)

type Payment struct {
	ID            uuid.UUID
	BookingID     uuid.UUID
	AmountCents   int64
	Status        PaymentStatus
	TransactionID string
	Method        PaymentMethod
	CreatedAt     time.Time
}

// ConnectingPair is one two-leg itinerary produced by the connecting-flight
// search. TotalCents is the summed price of both legs.
type ConnectingPair struct {
	Outbound   Flight
	Connecting Flight
	TotalCents int64
}

type BookingWithFlight struct {
	Booking Booking
	Flight  Flight
}
