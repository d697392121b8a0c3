// Package queue publishes ticket events to a Redis list so downstream
// workers can pick up newly imported tickets.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/triage/backend/internal/models"
)

const EventTicketImported = "ticket.imported"

// Event is the JSON envelope pushed onto the queue.
type Event struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	OccurredAt time.Time     `json:"occurred_at"`
	Ticket     models.Ticket `json:"ticket"`
}

type Publisher struct {
	rdb       *redis.Client
	queueName string
	logger    zerolog.Logger
	now       func() time.Time
}

func NewPublisher(rdb *redis.Client, queueName string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		rdb:       rdb,
		queueName: queueName,
		logger:    logger,
		now:       time.Now,
	}
}

// PublishTicketImported LPUSHes one event per ticket; consumers BRPOP.
func (p *Publisher) PublishTicketImported(ctx context.Context, t models.Ticket) error {
	ev := newEvent(t, p.now())
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal ticket event: %w", err)
	}
	if err := p.rdb.LPush(ctx, p.queueName, string(b)).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}
	p.logger.Debug().
		Str("event_id", ev.ID).
		Str("ticket_id", t.ID).
		Str("queue", p.queueName).
		Msg("published ticket event")
	return nil
}

func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}

func (p *Publisher) Close() error {
	return p.rdb.Close()
}

func newEvent(t models.Ticket, at time.Time) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       EventTicketImported,
		OccurredAt: at.UTC(),
		Ticket:     t,
	}
}
