package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samiunarno/Flight-management-Backend/internal/kafka"
)

// Sender delivers booking notifications. Delivery is best-effort: the caller
// logs failures and never blocks a booking mutation on them. The current
// implementation logs the message body in place of a real SMTP relay.
type Sender struct {
	logger *slog.Logger
}

func NewSender(logger *slog.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	switch event.Type {
	case "booking_confirmed":
		return s.SendBookingConfirmation(ctx, event)
	case "flight_reminder":
		return s.SendFlightReminder(ctx, event)
	case "booking_created", "booking_cancelled", "booking_expired":
		s.logger.Info("booking notification",
			"type", event.Type,
			"booking_id", event.BookingID,
			"user_id", event.UserID,
		)
		return nil
	default:
		s.logger.Warn("unknown notification type", "type", event.Type)
		return nil
	}
}

func (s *Sender) SendBookingConfirmation(_ context.Context, event kafka.BookingEvent) error {
	s.logger.Info("send booking confirmation",
		"booking_id", event.BookingID,
		"user_id", event.UserID,
		"flight", event.FlightNumber,
		"route", event.Route,
		"seats", event.SeatsBooked,
		"total", fmt.Sprintf("%.2f", float64(event.TotalCents)/100),
	)
	return nil
}

func (s *Sender) SendFlightReminder(_ context.Context, event kafka.BookingEvent) error {
	s.logger.Info("send flight reminder",
		"booking_id", event.BookingID,
		"user_id", event.UserID,
		"flight", event.FlightNumber,
		"route", event.Route,
		"departure_at", event.DepartureAt,
	)
	return nil
}
