// Package notify delivers entity lifecycle events to in-process subscribers.
package notify

import (
	"context"
	"sync"
	"time"

	"kb-service/internal/domain"

	log "github.com/sirupsen/logrus"
)

const (
	ActionAdded   = "added"
	ActionDeleted = "deleted"
)

// Topics names bus topics as "<prefix>.<category>.<action>".
type Topics struct {
	Prefix string
}

func (t Topics) Topic(category, action string) string {
	if t.Prefix == "" {
		return category + "." + action
	}
	return t.Prefix + "." + category + "." + action
}

// Added is the topic published after an entity of type et is created.
func (t Topics) Added(et domain.EntityType) string {
	return t.Topic(et.Category(), ActionAdded)
}

func (t Topics) Deleted(et domain.EntityType) string {
	return t.Topic(et.Category(), ActionDeleted)
}

// Bus fans events out to subscribers without blocking the publisher.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan domain.Event
	logger      log.FieldLogger
	now         func() time.Time
}

func NewBus(logger log.FieldLogger) *Bus {
	return &Bus{logger: logger, now: time.Now}
}

// Subscribe returns a channel receiving every event published from now on.
func (b *Bus) Subscribe(buffer int) <-chan domain.Event {
	ch := make(chan domain.Event, buffer)
	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()
	return ch
}

// Notify publishes entity on topic on behalf of actor. A subscriber whose
// buffer is full misses the event.
func (b *Bus) Notify(ctx context.Context, topic string, entity *domain.Entity, actor string) {
	event := domain.Event{
		Topic:      topic,
		Entity:     entity,
		Actor:      actor,
		OccurredAt: b.now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.logger.WithFields(log.Fields{
				"topic":      topic,
				"subscriber": i,
			}).Warn("Subscriber is slow, dropping event")
		}
	}
}

// Close closes every subscription channel. Notify must not be called afterwards.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}
