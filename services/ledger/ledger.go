// Package ledger implements the prepaid session accounting of treatment
// packages. Every function is pure: it returns an updated copy and leaves its
// input untouched, so persistence can compare-and-swap on the version field.
package ledger

import (
	"fmt"
	"time"

	"meridian/apperrors"
	"meridian/models"

	"github.com/google/uuid"
)

// NewPackage builds a freshly purchased package for patientID.
func NewPackage(patientID string, t models.PackageType, now time.Time) (*models.TreatmentPackage, error) {
	plan, ok := models.PlanFor(t)
	if !ok {
		return nil, apperrors.Validation(fmt.Sprintf("unknown package type %q", t))
	}
	if patientID == "" {
		return nil, apperrors.Validation("patientId is required")
	}
	return &models.TreatmentPackage{
		ID:                uuid.New().String(),
		PatientID:         patientID,
		Type:              plan.Type,
		TotalSessions:     plan.TotalSessions,
		SessionsCompleted: 0,
		SessionsRemaining: plan.TotalSessions,
		Price:             plan.Price,
		Status:            models.PackageActive,
		PurchasedAt:       now,
		ExpiresAt:         now.Add(plan.Validity),
	}, nil
}

func checkActive(pkg *models.TreatmentPackage) error {
	if pkg.Status != models.PackageActive {
		return apperrors.PackageInactive(pkg.ID, string(pkg.Status))
	}
	return nil
}

// ConsumeSession records one delivered session.
func ConsumeSession(pkg *models.TreatmentPackage) (*models.TreatmentPackage, error) {
	if err := checkActive(pkg); err != nil {
		return nil, err
	}
	if pkg.SessionsRemaining <= 0 {
		return nil, apperrors.PackageExhausted(pkg.ID)
	}
	next := *pkg
	next.SessionsCompleted++
	next.SessionsRemaining--
	if next.SessionsReserved > next.SessionsRemaining {
		next.SessionsReserved = next.SessionsRemaining
	}
	if next.SessionsRemaining == 0 {
		next.Status = models.PackageCompleted
	}
	return &next, nil
}

// Reserve holds one session for an open booking.
func Reserve(pkg *models.TreatmentPackage) (*models.TreatmentPackage, error) {
	if err := checkActive(pkg); err != nil {
		return nil, err
	}
	if pkg.Available() <= 0 {
		return nil, apperrors.PackageExhausted(pkg.ID)
	}
	next := *pkg
	next.SessionsReserved++
	return &next, nil
}

// Release gives back a session held by a booking that was completed or cancelled.
func Release(pkg *models.TreatmentPackage) *models.TreatmentPackage {
	next := *pkg
	if next.SessionsReserved > 0 {
		next.SessionsReserved--
	}
	return &next
}

// Expire marks an active package past its validity window as expired. The
// second return value reports whether anything changed.
func Expire(pkg *models.TreatmentPackage, now time.Time) (*models.TreatmentPackage, bool) {
	if pkg.Status != models.PackageActive || pkg.ExpiresAt.IsZero() || now.Before(pkg.ExpiresAt) {
		return pkg, false
	}
	next := *pkg
	next.Status = models.PackageExpired
	return &next, true
}

// CheckInvariant verifies the session counters of pkg.
func CheckInvariant(pkg *models.TreatmentPackage) error {
	if pkg.SessionsRemaining < 0 {
		return fmt.Errorf("package %s: negative remaining sessions %d", pkg.ID, pkg.SessionsRemaining)
	}
	if pkg.SessionsCompleted+pkg.SessionsRemaining != pkg.TotalSessions {
		return fmt.Errorf("package %s: completed %d + remaining %d != total %d",
			pkg.ID, pkg.SessionsCompleted, pkg.SessionsRemaining, pkg.TotalSessions)
	}
	return nil
}

// ShouldShowRenewalAlert is a presentational hint, not a state transition.
func ShouldShowRenewalAlert(pkg *models.TreatmentPackage) bool {
	return pkg.SessionsRemaining <= 1 && pkg.Status == models.PackageActive
}

// RecommendPackage suggests an upsell tier from the achieved pain reduction.
func RecommendPackage(painReductionPercent int) models.PackageType {
	switch {
	case painReductionPercent >= 60:
		return models.PackagePremium
	case painReductionPercent >= 30:
		return models.PackageStandard
	default:
		return models.PackageBasic
	}
}

// NextSessionNumber returns the session number the next pain entry must carry.
func NextSessionNumber(history []models.PainScoreEntry) int {
	if len(history) == 0 {
		return 1
	}
	return history[len(history)-1].SessionNumber + 1
}

// CreditHistory appends entry to history. Session numbers must strictly
// increase and scores must stay on the 0-10 scale.
func CreditHistory(history []models.PainScoreEntry, entry models.PainScoreEntry) ([]models.PainScoreEntry, error) {
	if entry.Score < 0 || entry.Score > 10 {
		return nil, apperrors.Validation("pain score must be between 0 and 10")
	}
	if entry.SessionNumber <= 0 {
		return nil, apperrors.Validation("session number must be positive")
	}
	if len(history) > 0 {
		last := history[len(history)-1].SessionNumber
		if entry.SessionNumber <= last {
			return nil, apperrors.Conflict(apperrors.CodeDuplicateSession,
				fmt.Sprintf("session %d already recorded (last is %d)", entry.SessionNumber, last)).
				WithDetails(map[string]any{"sessionNumber": entry.SessionNumber, "lastSessionNumber": last})
		}
	}
	out := make([]models.PainScoreEntry, len(history), len(history)+1)
	copy(out, history)
	return append(out, entry), nil
}
