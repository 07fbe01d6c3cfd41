package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	bookingRepo "meridian/database/repository/booking"
	patientRepo "meridian/database/repository/patient"
	providerRepo "meridian/database/repository/provider"
	"meridian/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Dispatcher resolves a queued notification into concrete push messages.
type Dispatcher struct {
	Bookings  bookingRepo.BookingRepository
	Patients  patientRepo.PatientRepository
	Providers providerRepo.ProviderRepository
	Sender    Sender
	Logger    *zap.Logger
}

// HandleTask is the asynq handler for TypeBookingNotification.
func (d *Dispatcher) HandleTask(ctx context.Context, task *asynq.Task) error {
	var p models.NotificationPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("invalid notification payload: %v: %w", err, asynq.SkipRetry)
	}
	return d.Dispatch(ctx, p)
}

func (d *Dispatcher) Dispatch(ctx context.Context, p models.NotificationPayload) error {
	b, err := d.Bookings.GetByID(ctx, p.BookingID)
	if err != nil {
		return fmt.Errorf("load booking %s: %w", p.BookingID, err)
	}
	patient, err := d.Patients.GetByID(ctx, b.PatientID)
	if err != nil {
		return fmt.Errorf("load patient %s: %w", b.PatientID, err)
	}
	data := map[string]string{
		"bookingId":     b.ID,
		"bookingNumber": b.BookingNumber,
		"kind":          p.Kind,
	}

	switch p.Kind {
	case models.NotifyAssignment:
		provider, err := d.Providers.GetByID(ctx, b.AssignedProviderID)
		if err != nil {
			return fmt.Errorf("load provider %s: %w", b.AssignedProviderID, err)
		}
		toPatient, toProvider := AssignmentMessages(b, provider)
		return errors.Join(
			d.send(ctx, patient.FCMToken, toPatient, withRole(data, models.RolePatient)),
			d.send(ctx, provider.FCMToken, toProvider, withRole(data, models.RoleProvider)),
		)
	case models.NotifyConfirmation:
		return d.send(ctx, patient.FCMToken, ConfirmationMessage(b), withRole(data, models.RolePatient))
	default:
		d.Logger.Warn("unknown notification kind", zap.String("kind", p.Kind))
		return nil
	}
}

// send treats a missing device token as delivered; retrying cannot fix it.
func (d *Dispatcher) send(ctx context.Context, token string, msg Message, data map[string]string) error {
	err := d.Sender.Send(ctx, token, msg, data)
	if errors.Is(err, ErrNoDeviceToken) {
		d.Logger.Info("skipping push, no device token", zap.String("role", data["role"]), zap.String("bookingId", data["bookingId"]))
		return nil
	}
	return err
}

func withRole(data map[string]string, role models.Role) map[string]string {
	out := make(map[string]string, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["role"] = string(role)
	return out
}
