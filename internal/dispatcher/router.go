package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/richardliu001/bloglite/internal/article"
	"github.com/richardliu001/bloglite/internal/model"
	"gorm.io/gorm"
)

var (
	// ErrUnknownEvent means no handler is registered for the topic.
	ErrUnknownEvent = errors.New("unknown event topic")
	// ErrUndecodable means the payload does not match the topic's event type.
	ErrUndecodable = errors.New("undecodable event payload")
)

// Envelope carries the outbox metadata of the event being handled.
type Envelope struct {
	ID          uint64
	EventID     string
	Topic       string
	AggregateID string
	OccurredAt  time.Time
	Retries     int
}

func envelopeOf(row model.OutboxEvent) Envelope {
	return Envelope{
		ID:          row.ID,
		EventID:     row.EventID,
		Topic:       row.Topic,
		AggregateID: row.AggregateID,
		OccurredAt:  row.OccurredAt,
		Retries:     row.Retries,
	}
}

// HandlerFunc handles one typed event inside the dispatcher's transaction.
type HandlerFunc[E article.Event] func(ctx context.Context, tx *gorm.DB, env Envelope, ev E) error

type route struct {
	decode   func(payload []byte) (article.Event, error)
	handlers []func(ctx context.Context, tx *gorm.DB, env Envelope, ev article.Event) error
}

// Registry maps topics to their handler chains. It is filled once at startup.
type Registry struct {
	routes map[string]*route
}

func NewRegistry() *Registry {
	return &Registry{routes: make(map[string]*route)}
}

// On registers h for the topic of E. Handlers of one topic run in
// registration order.
func On[E article.Event](r *Registry, h HandlerFunc[E]) {
	var zero E
	topic := zero.Topic()
	rt, ok := r.routes[topic]
	if !ok {
		rt = &route{decode: func(payload []byte) (article.Event, error) {
			var ev E
			if err := json.Unmarshal(payload, &ev); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrUndecodable, topic, err)
			}
			if ev.AggregateID() == "" {
				return nil, fmt.Errorf("%w: %s: missing article id", ErrUndecodable, topic)
			}
			return ev, nil
		}}
		r.routes[topic] = rt
	}
	rt.handlers = append(rt.handlers, func(ctx context.Context, tx *gorm.DB, env Envelope, ev article.Event) error {
		return h(ctx, tx, env, ev.(E))
	})
}

// Topics lists registered topics, sorted.
func (r *Registry) Topics() []string {
	topics := make([]string, 0, len(r.routes))
	for t := range r.routes {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Dispatch decodes payload and runs every handler of its topic.
func (r *Registry) Dispatch(ctx context.Context, tx *gorm.DB, env Envelope, payload []byte) error {
	rt, ok := r.routes[env.Topic]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, env.Topic)
	}
	ev, err := rt.decode(payload)
	if err != nil {
		return err
	}
	for _, h := range rt.handlers {
		if err := h(ctx, tx, env, ev); err != nil {
			return err
		}
	}
	return nil
}

func isPoison(err error) bool {
	return errors.Is(err, ErrUnknownEvent) || errors.Is(err, ErrUndecodable)
}
