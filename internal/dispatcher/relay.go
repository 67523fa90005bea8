package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/richardliu001/bloglite/internal/article"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Relay forwards every article event to Kafka as an integration event. It
// runs as its own outbox consumer so broker trouble never blocks projections.
// Messages are keyed by article id so one article stays on one partition.
type Relay struct {
	w MessageWriter
}

func NewRelay(w MessageWriter) *Relay {
	return &Relay{w: w}
}

// Register subscribes the relay to every article topic.
func (r *Relay) Register(reg *Registry) {
	On(reg, relayTo[article.Created](r))
	On(reg, relayTo[article.ContentUpdated](r))
	On(reg, relayTo[article.ContentReverted](r))
	On(reg, relayTo[article.CategoryChanged](r))
	On(reg, relayTo[article.StateChanged](r))
	On(reg, relayTo[article.Deleted](r))
}

func relayTo[E article.Event](r *Relay) HandlerFunc[E] {
	return func(ctx context.Context, _ *gorm.DB, env Envelope, ev E) error {
		return r.publish(ctx, env, ev)
	}
}

func (r *Relay) publish(ctx context.Context, env Envelope, ev article.Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(env.AggregateID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(env.EventID)},
			{Key: "topic", Value: []byte(env.Topic)},
		},
	}
	if err := r.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("relay %s: %w", env.EventID, err)
	}
	return nil
}
