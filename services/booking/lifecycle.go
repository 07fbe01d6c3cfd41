package booking

import (
	"context"
	"fmt"
	"strings"

	"meridian/apperrors"
	"meridian/models"
	"meridian/services/events"
	"meridian/services/ledger"

	"go.uber.org/zap"
)

func (s *DefaultBookingService) load(ctx context.Context, caller models.Caller, id string, next models.BookingStatus) (*models.Booking, error) {
	booking, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, booking) {
		return nil, apperrors.Forbidden("booking is not visible to the caller")
	}
	if !booking.Status.CanTransitionTo(next) {
		return nil, apperrors.InvalidTransition(string(booking.Status), string(next))
	}
	return booking, nil
}

func isAssignee(caller models.Caller, b *models.Booking) bool {
	return caller.Role == models.RoleProvider && b.AssignedProviderID == caller.ID
}

// Confirm acknowledges an assignment. The assignee, the patient or an admin may confirm.
func (s *DefaultBookingService) Confirm(ctx context.Context, caller models.Caller, id string) (*models.Booking, error) {
	booking, err := s.load(ctx, caller, id, models.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	updated := *booking
	updated.Status = models.StatusConfirmed
	updated.UpdatedAt = s.now()
	if err := s.Bookings.Transition(ctx, booking.Status, &updated); err != nil {
		return nil, err
	}
	if err := s.Notifier.NotifyConfirmation(ctx, updated.ID); err != nil {
		s.Logger.Error("failed to enqueue confirmation notification", zap.String("bookingId", updated.ID), zap.Error(err))
	}
	s.publish(ctx, events.BookingConfirmed, &updated)
	return &updated, nil
}

func (s *DefaultBookingService) Start(ctx context.Context, caller models.Caller, id string) (*models.Booking, error) {
	booking, err := s.load(ctx, caller, id, models.StatusInProgress)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !isAssignee(caller, booking) {
		return nil, apperrors.Forbidden("only the assigned provider can start the session")
	}
	updated := *booking
	updated.Status = models.StatusInProgress
	updated.UpdatedAt = s.now()
	if err := s.Bookings.Transition(ctx, booking.Status, &updated); err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingStarted, &updated)
	return &updated, nil
}

func validatePain(name string, v *int) error {
	if v == nil {
		return apperrors.Validation(name + " is required")
	}
	if *v < 0 || *v > 10 {
		return apperrors.Validation(name + " must be between 0 and 10")
	}
	return nil
}

// Complete logs the delivered session: the package consumes one session,
// the patient's pain history gains an entry and the booking is closed.
func (s *DefaultBookingService) Complete(ctx context.Context, caller models.Caller, id string, in CompleteInput) (*models.Booking, error) {
	if err := validatePain("painBefore", in.PainBefore); err != nil {
		return nil, err
	}
	if err := validatePain("painAfter", in.PainAfter); err != nil {
		return nil, err
	}
	booking, err := s.load(ctx, caller, id, models.StatusCompleted)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !isAssignee(caller, booking) {
		return nil, apperrors.Forbidden("only the assigned provider can complete the session")
	}

	var (
		updated models.Booking
		pkg     *models.TreatmentPackage
	)
	err = s.Tx.WithTransaction(ctx, func(tx context.Context) error {
		current, err := s.Packages.GetByID(tx, booking.PackageID)
		if err != nil {
			return err
		}
		pkg, err = ledger.ConsumeSession(ledger.Release(current))
		if err != nil {
			return err
		}
		if err := s.Packages.Save(tx, pkg); err != nil {
			return err
		}

		patient, err := s.Patients.GetByID(tx, booking.PatientID)
		if err != nil {
			return err
		}
		now := s.now()
		entry := models.PainScoreEntry{
			Date:          now,
			SessionNumber: ledger.NextSessionNumber(patient.PainHistory),
			Score:         *in.PainAfter,
			ProviderID:    booking.AssignedProviderID,
			BookingID:     booking.ID,
		}
		if _, err := ledger.CreditHistory(patient.PainHistory, entry); err != nil {
			return err
		}
		if err := s.Patients.AppendPainScore(tx, patient.ID, entry); err != nil {
			return err
		}

		updated = *booking
		updated.Status = models.StatusCompleted
		updated.PainBefore = in.PainBefore
		updated.PainAfter = in.PainAfter
		updated.SessionNotes = strings.TrimSpace(in.Notes)
		updated.CompletedAt = &now
		updated.UpdatedAt = now
		if err := s.Bookings.Transition(tx, booking.Status, &updated); err != nil {
			return err
		}
		if updated.AssignedProviderID != "" {
			return s.Providers.RecordCompletion(tx, updated.AssignedProviderID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("complete booking %s: %w", booking.ID, err)
	}

	s.Logger.Info("Session completed",
		zap.String("bookingId", updated.ID),
		zap.String("packageId", pkg.ID),
		zap.Int("sessionsRemaining", pkg.SessionsRemaining))
	s.publish(ctx, events.BookingCompleted, &updated)
	if pkg.Status == models.PackageCompleted {
		s.publish(ctx, events.PackageCompleted, &updated)
	}
	return &updated, nil
}

// Cancel closes a non-terminal booking and gives its reserved session back.
func (s *DefaultBookingService) Cancel(ctx context.Context, caller models.Caller, id, reason string) (*models.Booking, error) {
	booking, err := s.load(ctx, caller, id, models.StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !(caller.Role == models.RolePatient && booking.PatientID == caller.ID) {
		return nil, apperrors.Forbidden("only the patient or an admin can cancel a booking")
	}

	var updated models.Booking
	err = s.Tx.WithTransaction(ctx, func(tx context.Context) error {
		current, err := s.Packages.GetByID(tx, booking.PackageID)
		if err != nil {
			return err
		}
		if err := s.Packages.Save(tx, ledger.Release(current)); err != nil {
			return err
		}
		now := s.now()
		updated = *booking
		updated.Status = models.StatusCancelled
		updated.CancelReason = strings.TrimSpace(reason)
		updated.CancelledAt = &now
		updated.UpdatedAt = now
		return s.Bookings.Transition(tx, booking.Status, &updated)
	})
	if err != nil {
		return nil, fmt.Errorf("cancel booking %s: %w", booking.ID, err)
	}
	s.Logger.Info("Booking cancelled", zap.String("bookingId", updated.ID), zap.String("reason", updated.CancelReason))
	s.publish(ctx, events.BookingCancelled, &updated)
	return &updated, nil
}
