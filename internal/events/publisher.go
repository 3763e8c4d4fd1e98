// Package events publishes ledger milestones to Kafka for downstream
// analytics. The publisher is optional: a nil *Publisher is a no-op, so
// callers never guard their call sites.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/m3rciful/storebot/internal/domain"
	"github.com/m3rciful/storebot/internal/logger"
)

// Publisher wraps an async kafka writer.
type Publisher struct {
	writer *kafka.Writer
	topic  string
}

// NewPublisher builds a Publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		Async:        true,
		RequiredAcks: kafka.RequireOne,
	}
	return &Publisher{writer: writer, topic: topic}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *Publisher) publish(ctx context.Context, eventType string, key string, fields map[string]any) {
	if p == nil {
		return
	}
	fields["event_type"] = eventType
	fields["at"] = time.Now().UTC().Format(time.RFC3339)
	value, err := json.Marshal(fields)
	if err != nil {
		logger.L.Error("event marshal failed",
			slog.String("event", "events.marshal"),
			slog.String("type", eventType),
			slog.String("err", err.Error()),
		)
		return
	}
	msg := kafka.Message{Topic: p.topic, Key: []byte(key), Value: value}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		// Events are advisory; a broker outage must never fail a purchase.
		logger.L.Warn("event publish failed",
			slog.String("event", "events.publish"),
			slog.String("type", eventType),
			slog.String("err", err.Error()),
		)
	}
}

// OrderPlaced reports a freshly placed order.
func (p *Publisher) OrderPlaced(ctx context.Context, o domain.Order) {
	p.publish(ctx, "order_placed", o.ID, map[string]any{
		"order_id": o.ID,
		"user_id":  o.UserID,
		"item_id":  o.ItemID,
		"amount":   o.Amount,
	})
}

// OrderReviewed reports a delivered or cancelled order.
func (p *Publisher) OrderReviewed(ctx context.Context, o domain.Order, adminID int64) {
	p.publish(ctx, "order_"+string(o.Status), o.ID, map[string]any{
		"order_id": o.ID,
		"user_id":  o.UserID,
		"amount":   o.Amount,
		"admin_id": adminID,
	})
}

// DepositSubmitted reports a new pending deposit.
func (p *Publisher) DepositSubmitted(ctx context.Context, d domain.Deposit) {
	p.publish(ctx, "deposit_submitted", d.ID, map[string]any{
		"deposit_id": d.ID,
		"user_id":    d.UserID,
		"amount":     d.Amount,
		"method":     d.Method,
	})
}

// DepositReviewed reports an approved or rejected deposit.
func (p *Publisher) DepositReviewed(ctx context.Context, d domain.Deposit) {
	p.publish(ctx, "deposit_"+string(d.Status), d.ID, map[string]any{
		"deposit_id": d.ID,
		"user_id":    d.UserID,
		"amount":     d.Amount,
		"admin_id":   d.ReviewedBy,
	})
}
