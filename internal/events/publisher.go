// Package events publishes camera status transitions to NATS so other
// systems (video walls, ticketing) can react without polling this service.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Transition is emitted once per camera status change.
type Transition struct {
	ID        string    `json:"id"`
	CameraID  int64     `json:"camera_id"`
	Name      string    `json:"name"`
	IP        string    `json:"ip"`
	NVRIP     string    `json:"nvr_ip"`
	ChannelID string    `json:"channel_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	At        time.Time `json:"at"`
}

type Publisher struct {
	conn       *nats.Conn
	subject    string
	maxRetries int
}

func NewPublisher(conn *nats.Conn, subject string, maxRetries int) *Publisher {
	return &Publisher{
		conn:       conn,
		subject:    subject,
		maxRetries: maxRetries,
	}
}

// Publish sends one transition, retrying with a short backoff. A nil
// publisher or connection drops the event silently so the monitor runs the
// same with or without a broker.
func (p *Publisher) Publish(ctx context.Context, t Transition) error {
	if p == nil || p.conn == nil {
		return nil
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	for i := 0; i <= p.maxRetries; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = p.conn.Publish(p.subject, data)
		if err == nil {
			return nil
		}
		time.Sleep(time.Duration(i*100) * time.Millisecond)
	}
	return fmt.Errorf("publish failed after %d retries: %w", p.maxRetries, err)
}
