package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// FlightsPubSub broadcasts seat-availability changes so that other API
// instances can drop their cached copies of the affected flight.
type FlightsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewFlightsPubSub(rdb *redis.Client) *FlightsPubSub {
	return &FlightsPubSub{
		rdb:     rdb,
		channel: ChannelFlightsChanged(),
	}
}

type flightChangedMsg struct {
	Type     string `json:"type"`
	FlightID int64  `json:"flight_id"`
	TsUnix   int64  `json:"ts_unix"`
}

func (p *FlightsPubSub) PublishFlightChanged(ctx context.Context, flightID int64) error {
	msg := flightChangedMsg{
		Type:     "flight_changed",
		FlightID: flightID,
		TsUnix:   time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *FlightsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, flightID int64)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev flightChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.FlightID != 0 {
				handler(ctx, ev.FlightID)
			}
		}
	}
}
