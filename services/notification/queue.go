package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"meridian/models"

	"github.com/hibiken/asynq"
)

const TypeBookingNotification = "notification:booking"

// Notifier is what the booking flow calls after a state change. Delivery
// happens out of band so a push failure never fails the request.
type Notifier interface {
	NotifyAssignment(ctx context.Context, bookingID string) error
	NotifyConfirmation(ctx context.Context, bookingID string) error
}

func NewBookingNotificationTask(p models.NotificationPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification payload: %w", err)
	}
	return asynq.NewTask(TypeBookingNotification, payload), nil
}

// QueueNotifier enqueues notification tasks on asynq.
type QueueNotifier struct {
	client *asynq.Client
}

func NewQueueNotifier(client *asynq.Client) *QueueNotifier {
	return &QueueNotifier{client: client}
}

func (n *QueueNotifier) NotifyAssignment(ctx context.Context, bookingID string) error {
	return n.enqueue(ctx, models.NotificationPayload{BookingID: bookingID, Kind: models.NotifyAssignment})
}

func (n *QueueNotifier) NotifyConfirmation(ctx context.Context, bookingID string) error {
	return n.enqueue(ctx, models.NotificationPayload{BookingID: bookingID, Kind: models.NotifyConfirmation})
}

func (n *QueueNotifier) enqueue(ctx context.Context, p models.NotificationPayload) error {
	task, err := NewBookingNotificationTask(p)
	if err != nil {
		return err
	}
	_, err = n.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
		asynq.TaskID(p.Kind+":"+p.BookingID),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s notification for booking %s: %w", p.Kind, p.BookingID, err)
	}
	return nil
}
