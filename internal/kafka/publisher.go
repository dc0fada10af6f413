package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/Fabio661717/loja-conect-sub001/internal/models"
)

// NotificationPublisher delivers notification intents to the notifications
// topic. It implements interfaces.NotificationDispatcher.
type NotificationPublisher struct {
	writer *kafka.Writer
}

// NewNotificationPublisher creates a new Kafka notification publisher
func NewNotificationPublisher(brokers []string, topic string) *NotificationPublisher {
	// Hash balancer so intents for the same recipient land on the same
	// partition and arrive in order.
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,

		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    1,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
	}

	return &NotificationPublisher{writer: writer}
}

// Dispatch publishes a notification intent. Failures are the caller's to log
// and swallow; a committed transition stands regardless.
func (p *NotificationPublisher) Dispatch(ctx context.Context, intent *models.NotificationIntent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal notification intent: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(intent.RecipientID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(intent.Kind)},
			{Key: "reservation-id", Value: []byte(intent.ReservationID.String())},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		log.Error().Err(err).
			Str("kind", string(intent.Kind)).
			Str("recipient_id", intent.RecipientID).
			Str("reservation_id", intent.ReservationID.String()).
			Msg("Failed to publish notification intent")
		return fmt.Errorf("failed to publish notification intent: %w", err)
	}

	log.Debug().
		Str("kind", string(intent.Kind)).
		Str("recipient_id", intent.RecipientID).
		Str("reservation_id", intent.ReservationID.String()).
		Msg("Published notification intent")

	return nil
}

// Close closes the Kafka writer
func (p *NotificationPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close notifications writer: %w", err)
	}
	return nil
}
