package treatmentPkgRepo

import (
	"context"
	"time"

	"meridian/models"
)

type PackageRepository interface {
	Create(ctx context.Context, pkg *models.TreatmentPackage) error
	GetByID(ctx context.Context, id string) (*models.TreatmentPackage, error)
	// Save persists pkg if the stored version equals pkg.Version, then bumps the version.
	Save(ctx context.Context, pkg *models.TreatmentPackage) error
	// ExpireOverdue marks active packages whose validity ended before now as expired.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}
