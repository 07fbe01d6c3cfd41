// Package registry administers providers, patients and their packages.
package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meridian/apperrors"
	"meridian/database"
	patientRepo "meridian/database/repository/patient"
	providerRepo "meridian/database/repository/provider"
	treatmentPkgRepo "meridian/database/repository/treatmentpkg"
	"meridian/models"
	"meridian/services/ledger"
	"meridian/services/progress"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	RegisterProvider(ctx context.Context, caller models.Caller, p *models.Provider) (*models.Provider, error)
	GetProvider(ctx context.Context, caller models.Caller, id string) (*models.Provider, error)
	ListProviders(ctx context.Context, caller models.Caller, filter models.ProviderFilter) ([]models.Provider, error)
	SetProviderStatus(ctx context.Context, caller models.Caller, id string, status models.ProviderStatus) (*models.Provider, error)

	CreatePatient(ctx context.Context, caller models.Caller, p *models.Patient) (*models.Patient, error)
	GetPatient(ctx context.Context, caller models.Caller, id string) (*models.Patient, error)
	PurchasePackage(ctx context.Context, caller models.Caller, patientID string, t models.PackageType) (*models.TreatmentPackage, error)
	GetPackage(ctx context.Context, caller models.Caller, id string) (*models.TreatmentPackage, error)
	Progress(ctx context.Context, caller models.Caller, patientID string) (progress.Report, error)

	ExpireOverdue(ctx context.Context) (int64, error)
}

type DefaultRegistryService struct {
	Providers providerRepo.ProviderRepository
	Patients  patientRepo.PatientRepository
	Packages  treatmentPkgRepo.PackageRepository
	Tx        database.TxRunner
	Logger    *zap.Logger
	Now       func() time.Time
	validate  *validator.Validate
}

func NewRegistryService(providers providerRepo.ProviderRepository, patients patientRepo.PatientRepository,
	packages treatmentPkgRepo.PackageRepository, tx database.TxRunner, logger *zap.Logger) *DefaultRegistryService {
	return &DefaultRegistryService{
		Providers: providers,
		Patients:  patients,
		Packages:  packages,
		Tx:        tx,
		Logger:    logger,
		Now:       time.Now,
		validate:  validator.New(),
	}
}

func requireAdmin(caller models.Caller) error {
	if !caller.IsAdmin() {
		return apperrors.Forbidden("admin access required")
	}
	return nil
}

// validationError flattens validator output into field -> rule details.
func validationError(subject string, err error) error {
	details := map[string]any{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			details[lowerFirst(fe.Field())] = fe.Tag()
		}
	}
	return apperrors.Validation(fmt.Sprintf("invalid %s", subject)).WithDetails(details)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func (s *DefaultRegistryService) RegisterProvider(ctx context.Context, caller models.Caller, p *models.Provider) (*models.Provider, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(p); err != nil {
		return nil, validationError("provider", err)
	}
	now := s.Now().UTC()
	p.ID = uuid.New().String()
	p.Status = models.ProviderPending
	p.CompletedCount = 0
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.Providers.Create(ctx, p); err != nil {
		return nil, err
	}
	s.Logger.Info("Provider registered", zap.String("providerId", p.ID), zap.String("serviceArea", string(p.ServiceArea)))
	return p, nil
}

// GetProvider is open to admins and to the provider itself.
func (s *DefaultRegistryService) GetProvider(ctx context.Context, caller models.Caller, id string) (*models.Provider, error) {
	if !caller.IsAdmin() && !(caller.Role == models.RoleProvider && caller.ID == id) {
		return nil, apperrors.Forbidden("provider record is not visible to the caller")
	}
	return s.Providers.GetByID(ctx, id)
}

func (s *DefaultRegistryService) ListProviders(ctx context.Context, caller models.Caller, filter models.ProviderFilter) ([]models.Provider, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if filter.ServiceArea != "" && !filter.ServiceArea.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown service area %q", filter.ServiceArea))
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown provider status %q", filter.Status))
	}
	return s.Providers.List(ctx, filter)
}

func (s *DefaultRegistryService) SetProviderStatus(ctx context.Context, caller models.Caller, id string, status models.ProviderStatus) (*models.Provider, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown provider status %q", status))
	}
	if err := s.Providers.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	s.Logger.Info("Provider status changed", zap.String("providerId", id), zap.String("status", string(status)))
	return s.Providers.GetByID(ctx, id)
}

func (s *DefaultRegistryService) CreatePatient(ctx context.Context, caller models.Caller, p *models.Patient) (*models.Patient, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(p); err != nil {
		return nil, validationError("patient", err)
	}
	now := s.Now().UTC()
	p.ID = uuid.New().String()
	p.CurrentPainScore = p.InitialPainScore
	p.PainHistory = []models.PainScoreEntry{}
	p.ActivePackageID = ""
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.Patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *DefaultRegistryService) GetPatient(ctx context.Context, caller models.Caller, id string) (*models.Patient, error) {
	if !caller.IsAdmin() && !(caller.Role == models.RolePatient && caller.ID == id) {
		return nil, apperrors.Forbidden("patient record is not visible to the caller")
	}
	return s.Patients.GetByID(ctx, id)
}

// PurchasePackage records a paid package and makes it the patient's active one.
func (s *DefaultRegistryService) PurchasePackage(ctx context.Context, caller models.Caller, patientID string, t models.PackageType) (*models.TreatmentPackage, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	pkg, err := ledger.NewPackage(patientID, t, s.Now().UTC())
	if err != nil {
		return nil, err
	}
	err = s.Tx.WithTransaction(ctx, func(tx context.Context) error {
		if _, err := s.Patients.GetByID(tx, patientID); err != nil {
			return err
		}
		if err := s.Packages.Create(tx, pkg); err != nil {
			return err
		}
		return s.Patients.SetActivePackage(tx, patientID, pkg.ID)
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Package purchased",
		zap.String("patientId", patientID),
		zap.String("packageId", pkg.ID),
		zap.String("type", string(pkg.Type)))
	return pkg, nil
}

func (s *DefaultRegistryService) GetPackage(ctx context.Context, caller models.Caller, id string) (*models.TreatmentPackage, error) {
	pkg, err := s.Packages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !(caller.Role == models.RolePatient && caller.ID == pkg.PatientID) {
		return nil, apperrors.Forbidden("package is not visible to the caller")
	}
	return pkg, nil
}

func (s *DefaultRegistryService) Progress(ctx context.Context, caller models.Caller, patientID string) (progress.Report, error) {
	patient, err := s.GetPatient(ctx, caller, patientID)
	if err != nil {
		return progress.Report{}, err
	}
	var pkg *models.TreatmentPackage
	if patient.ActivePackageID != "" {
		pkg, err = s.Packages.GetByID(ctx, patient.ActivePackageID)
		if err != nil {
			return progress.Report{}, err
		}
	}
	return progress.CalculateProgress(patient, pkg), nil
}

// ExpireOverdue moves every active package past its validity window to expired.
func (s *DefaultRegistryService) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.Packages.ExpireOverdue(ctx, s.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Logger.Info("Expired overdue packages", zap.Int64("count", n))
	}
	return n, nil
}
