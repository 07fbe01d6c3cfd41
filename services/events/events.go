// Package events publishes booking lifecycle events for downstream consumers
// such as reporting and provider payouts.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"meridian/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	BookingCreated   = "booking.created"
	BookingAssigned  = "booking.assigned"
	BookingConfirmed = "booking.confirmed"
	BookingStarted   = "booking.started"
	BookingCompleted = "booking.completed"
	BookingCancelled = "booking.cancelled"
	PackageCompleted = "package.completed"
)

type Event struct {
	Type          string               `json:"type"`
	BookingID     string               `json:"bookingId,omitempty"`
	BookingNumber string               `json:"bookingNumber,omitempty"`
	PatientID     string               `json:"patientId,omitempty"`
	ProviderID    string               `json:"providerId,omitempty"`
	PackageID     string               `json:"packageId,omitempty"`
	Status        models.BookingStatus `json:"status,omitempty"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

// FromBooking builds an event describing the current state of b.
func FromBooking(eventType string, b *models.Booking) Event {
	return Event{
		Type:          eventType,
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		PatientID:     b.PatientID,
		ProviderID:    b.AssignedProviderID,
		PackageID:     b.PackageID,
		Status:        b.Status,
		OccurredAt:    time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// KafkaPublisher writes events keyed by booking id so each booking's events stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	key := evt.BookingID
	if key == "" {
		key = evt.PackageID
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(evt.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", evt.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher only logs events; used when no brokers are configured.
type LogPublisher struct {
	Logger *zap.Logger
}

func (p LogPublisher) Publish(ctx context.Context, evt Event) error {
	p.Logger.Debug("booking event",
		zap.String("type", evt.Type),
		zap.String("bookingId", evt.BookingID),
		zap.String("status", string(evt.Status)),
	)
	return nil
}

func (p LogPublisher) Close() error { return nil }
