package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ResultHandler receives every decoded result.submitted event
type ResultHandler func(ctx context.Context, event *ResultSubmittedEvent) error

type SubscriberConfig struct {
	KafkaBrokers  []string
	ConsumerGroup string
	Logger        *slog.Logger
}

func NewKafkaSubscriber(config SubscriberConfig) (message.Subscriber, error) {
	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               config.KafkaBrokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
		ConsumerGroup:         config.ConsumerGroup,
	}, watermill.NewSlogLogger(config.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka subscriber: %w", err)
	}
	return subscriber, nil
}

// DecodeResultSubmitted reads the event envelope of a result.submitted message
func DecodeResultSubmitted(msg *message.Message) (*ResultSubmittedEvent, error) {
	if eventType := msg.Metadata.Get("event_type"); eventType != string(EventResultSubmitted) {
		return nil, fmt.Errorf("unexpected event type %q", eventType)
	}

	var envelope struct {
		Type EventType            `json:"type"`
		Data ResultSubmittedEvent `json:"data"`
	}
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode event %s: %w", msg.UUID, err)
	}
	return &envelope.Data, nil
}

// ConsumeResults delivers result.submitted events from topic to handle until ctx is done.
// Other event types are acked and skipped. A handler error nacks the message.
func ConsumeResults(ctx context.Context, subscriber message.Subscriber, topic string, handle ResultHandler, logger *slog.Logger) error {
	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			if msg.Metadata.Get("event_type") != string(EventResultSubmitted) {
				msg.Ack()
				continue
			}

			event, err := DecodeResultSubmitted(msg)
			if err != nil {
				// Redelivery cannot fix a malformed payload
				logger.Error("Dropping undecodable event", "message_id", msg.UUID, "error", err)
				msg.Ack()
				continue
			}

			if err := handle(ctx, event); err != nil {
				logger.Warn("Result handler failed", "message_id", msg.UUID, "result_id", event.ResultID, "error", err)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}
}
