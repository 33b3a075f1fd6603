package service

import (
	"context"

	"buddy-tutor-be/internal/pkg/logger"
	"buddy-tutor-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// answerEventConsumer drains tutoring events from the in-process bus, logs
// them and forwards them to an external broker when one is configured.
type answerEventConsumer struct {
	subscriber message.Subscriber
	topicName  string
	forwarder  events.Publisher
	logger     logger.ILogger
}

// NewAnswerEventConsumer builds the consumer. forwarder may be nil.
func NewAnswerEventConsumer(
	subscriber message.Subscriber,
	topicName string,
	forwarder events.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &answerEventConsumer{
		subscriber: subscriber,
		topicName:  topicName,
		forwarder:  forwarder,
		logger:     log,
	}
}

// Consume subscribes and returns; messages are handled on a background
// goroutine until ctx is cancelled.
func (cs *answerEventConsumer) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *answerEventConsumer) processMessage(ctx context.Context, msg *message.Message) {
	event, err := events.Decode(msg)
	if err != nil {
		cs.logger.Error("AnswerEventConsumer", "Failed to decode event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // malformed messages would never decode on redelivery either
		return
	}

	cs.logger.Info("AnswerEventConsumer", "Tutor answer recorded", map[string]interface{}{
		"type":     event.EventType(),
		"mode":     event.Data["mode"],
		"success":  event.Data["success"],
		"reason":   event.Data["reason"],
		"latency":  event.Data["latency_ms"],
		"passages": event.Data["passages"],
	})

	if cs.forwarder != nil {
		if err := cs.forwarder.Publish(ctx, event); err != nil {
			cs.logger.Warn("AnswerEventConsumer", "Failed to forward event", map[string]interface{}{"error": err.Error()})
		}
	}

	msg.Ack()
}
