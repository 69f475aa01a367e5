package service

import (
	"context"

	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventForwarder ships events off-process; *nats.Publisher implements it.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type IActivityRelay interface {
	// Run consumes the activity topic until ctx is done.
	Run(ctx context.Context) error
}

type activityRelay struct {
	subscriber message.Subscriber
	topicName  string
	forwarder  EventForwarder
	logger     logger.ILogger
}

// NewActivityRelay logs every activity event and forwards it when a
// forwarder is configured. forwarder may be nil.
func NewActivityRelay(
	subscriber message.Subscriber,
	topicName string,
	forwarder EventForwarder,
	log logger.ILogger,
) IActivityRelay {
	return &activityRelay{
		subscriber: subscriber,
		topicName:  topicName,
		forwarder:  forwarder,
		logger:     log,
	}
}

func (r *activityRelay) Run(ctx context.Context) error {
	messages, err := r.subscriber.Subscribe(ctx, r.topicName)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.processMessage(ctx, msg)
		}
	}
}

func (r *activityRelay) processMessage(ctx context.Context, msg *message.Message) {
	evt, err := events.Unmarshal(msg.Payload)
	if err != nil {
		r.logger.Error("ACTIVITY_RELAY", "Dropping malformed event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // never redeliver garbage
		return
	}

	r.logger.Info("ACTIVITY_RELAY", evt.EventType(), evt.Payload())

	if r.forwarder != nil {
		if err := r.forwarder.Publish(ctx, evt); err != nil {
			// Activity is best effort; a NATS outage must not stall the bus.
			r.logger.Warn("ACTIVITY_RELAY", "Failed to forward event", map[string]interface{}{
				"type":  evt.EventType(),
				"error": err.Error(),
			})
		}
	}

	msg.Ack()
}
