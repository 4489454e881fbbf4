package notify

import (
	"context"

	"kb-service/internal/domain"

	log "github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Forwarder hands every event of a subscription to a Publisher.
type Forwarder struct {
	events    <-chan domain.Event
	publisher Publisher
	logger    log.FieldLogger
}

func NewForwarder(events <-chan domain.Event, publisher Publisher, logger log.FieldLogger) *Forwarder {
	return &Forwarder{events: events, publisher: publisher, logger: logger}
}

// Run forwards until ctx is done or the subscription is closed. Publish
// failures are logged and the event is dropped.
func (f *Forwarder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-f.events:
			if !ok {
				return
			}
			if err := f.publisher.Publish(ctx, event); err != nil {
				fields := log.Fields{"topic": event.Topic}
				if event.Entity != nil {
					fields["entity_id"] = event.Entity.ID
				}
				f.logger.WithError(err).WithFields(fields).Error("Failed to forward event")
			}
		}
	}
}
