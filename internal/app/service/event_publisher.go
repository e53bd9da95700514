package service

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/ShortKey/internal/app/model"
)

// jetStreamPublisher is the slice of nats.JetStreamContext the publisher uses.
type jetStreamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// EventPublisher publishes link lifecycle events to NATS JetStream.
type EventPublisher struct {
	js jetStreamPublisher
}

// NewEventPublisher creates a new link event publisher.
func NewEventPublisher(js nats.JetStreamContext) *EventPublisher {
	return &EventPublisher{js: js}
}

// Publish sends event on the subject of its type; the event ID doubles as
// the JetStream message ID for de-duplication.
func (p *EventPublisher) Publish(ctx context.Context, event model.LinkEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(event.Type.Subject(), data, nats.Context(ctx), nats.MsgId(event.ID))
	return err
}
