package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/ShortKey/internal/app/model"
	"go.uber.org/zap"
)

// EventConsumer drains link lifecycle events into the audit log.
type EventConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
}

// NewEventConsumer creates a new link event consumer.
func NewEventConsumer(js nats.JetStreamContext, logger *zap.Logger) *EventConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventConsumer{js: js, logger: logger.Named("audit")}
}

// Start creates the durable consumer if needed and consumes until ctx ends.
// The stream itself must already exist.
func (c *EventConsumer) Start(ctx context.Context) error {
	_, err := c.js.ConsumerInfo(model.LinkStreamName, model.LinkConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.LinkStreamName, &nats.ConsumerConfig{
			Durable:       model.LinkConsumerName,
			AckPolicy:     nats.AckExplicitPolicy,
			FilterSubject: model.LinkStreamSubjects,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.LinkStreamSubjects, model.LinkConsumerName,
		nats.Bind(model.LinkStreamName, model.LinkConsumerName))
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(ctx, sub)
	return nil
}

func (c *EventConsumer) consume(ctx context.Context, sub *nats.Subscription) {
	defer func() { _ = sub.Unsubscribe() }()

	for {
		if ctx.Err() != nil {
			c.logger.Info("link event consumer stopped")
			return
		}

		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && !errors.Is(err, nats.ErrTimeout) {
			if ctx.Err() != nil {
				continue
			}
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				c.logger.Warn("link event consumer lost its subscription", zap.Error(err))
				return
			}
			c.logger.Error("failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			if err := c.handle(msg.Data); err != nil {
				c.logger.Error("dropping malformed link event", zap.Error(err))
				_ = msg.Term()
				continue
			}
			_ = msg.Ack()
		}
	}
}

// handle writes one audit line for an encoded event.
func (c *EventConsumer) handle(data []byte) error {
	event, err := decodeEvent(data)
	if err != nil {
		return err
	}

	c.logger.Info("link event",
		zap.String("id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("key", event.Key),
		zap.String("target", event.TargetURL),
		zap.Time("timestamp", event.Timestamp),
	)
	return nil
}

func decodeEvent(data []byte) (model.LinkEvent, error) {
	var event model.LinkEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("unmarshal link event: %w", err)
	}
	if event.ID == "" || event.Type == "" {
		return event, errors.New("link event is missing id or type")
	}
	return event, nil
}
