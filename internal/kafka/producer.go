package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingEvent is the wire shape published for every booking lifecycle
// transition and consumed by the notifications worker.
type BookingEvent struct {
	Type         string    `json:"type"` // booking_created|booking_confirmed|booking_cancelled|booking_expired|flight_reminder
	BookingID    string    `json:"booking_id"`
	UserID       int64     `json:"user_id"`
	FlightID     int64     `json:"flight_id"`
	FlightNumber string    `json:"flight_number,omitempty"`
	Route        string    `json:"route,omitempty"`
	SeatsBooked  int       `json:"seats_booked"`
	TotalCents   int64     `json:"total_cents"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	DepartureAt  time.Time `json:"departure_at,omitempty"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Publish marshals value and writes it to topic keyed by key. The writer is
// shared and safe for concurrent use.
func (p *Producer) Publish(ctx context.Context, topic, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	})
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
