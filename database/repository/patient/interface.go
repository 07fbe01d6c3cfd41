package patientRepo

import (
	"context"

	"meridian/models"
)

type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	GetByID(ctx context.Context, id string) (*models.Patient, error)
	// SetActivePackage points the patient at a newly purchased package.
	SetActivePackage(ctx context.Context, patientID, packageID string) error
	// AppendPainScore pushes entry and sets the current pain score, refusing a
	// session number that is already recorded.
	AppendPainScore(ctx context.Context, patientID string, entry models.PainScoreEntry) error
}
