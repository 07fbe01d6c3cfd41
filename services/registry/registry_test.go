package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"meridian/apperrors"
	"meridian/database/repository/memory"
	"meridian/models"
	"meridian/services/progress"

	"go.uber.org/zap"
)

var admin = models.Caller{ID: "adm-1", Role: models.RoleAdmin}

func newService(now time.Time) (*DefaultRegistryService, *memory.Store) {
	store := memory.NewStore()
	svc := NewRegistryService(store.Providers(), store.Patients(), store.Packages(), store, zap.NewNop())
	svc.Now = func() time.Time { return now }
	return svc, store
}

func validProvider() *models.Provider {
	return &models.Provider{
		Name:            "Grace Wanjiru",
		Phone:           "+254711111111",
		ServiceArea:     models.AreaEast,
		OfferedServices: []string{"svc-back"},
		Rating:          4.2,
		CompletionRate:  0.9,
		ExperienceYears: 5,
	}
}

func TestRegisterProviderStartsPending(t *testing.T) {
	svc, _ := newService(time.Now())
	ctx := context.Background()

	p, err := svc.RegisterProvider(ctx, admin, validProvider())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.ID == "" || p.Status != models.ProviderPending {
		t.Fatalf("expected pending provider with id, got %+v", p)
	}

	active, err := svc.SetProviderStatus(ctx, admin, p.ID, models.ProviderActive)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if active.Status != models.ProviderActive {
		t.Errorf("expected active, got %s", active.Status)
	}
	list, err := svc.ListProviders(ctx, admin, models.ProviderFilter{ServiceArea: models.AreaEast, Status: models.ProviderActive})
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one active provider in east, got %d (%v)", len(list), err)
	}
	self := models.Caller{ID: p.ID, Role: models.RoleProvider}
	if _, err := svc.GetProvider(ctx, self, p.ID); err != nil {
		t.Errorf("provider should read own record: %v", err)
	}
}

func TestRegisterProviderRejects(t *testing.T) {
	svc, _ := newService(time.Now())
	ctx := context.Background()

	if _, err := svc.RegisterProvider(ctx, models.Caller{ID: "x", Role: models.RoleProvider}, validProvider()); !errors.Is(err, apperrors.ErrAuthorization) {
		t.Errorf("expected forbidden, got %v", err)
	}
	bad := validProvider()
	bad.ServiceArea = "downtown"
	bad.Rating = 7
	_, err := svc.RegisterProvider(ctx, admin, bad)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details := apperrors.As(err).Details
	if details["serviceArea"] != "oneof" || details["rating"] != "lte" {
		t.Errorf("unexpected details %v", details)
	}
	if _, err := svc.SetProviderStatus(ctx, admin, "missing", models.ProviderActive); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := svc.SetProviderStatus(ctx, admin, "missing", "retired"); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestPurchasePackageAndProgress(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	svc, store := newService(now)
	ctx := context.Background()

	patient, err := svc.CreatePatient(ctx, admin, &models.Patient{
		Name: "Amina Otieno", Phone: "+254700000001", ServiceArea: models.AreaNorth, InitialPainScore: 9,
	})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	pkg, err := svc.PurchasePackage(ctx, admin, patient.ID, models.PackageStandard)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if pkg.TotalSessions != 8 || pkg.SessionsRemaining != 8 || pkg.Price != 7500 {
		t.Errorf("unexpected standard package %+v", pkg)
	}
	if !pkg.ExpiresAt.Equal(now.Add(60 * 24 * time.Hour)) {
		t.Errorf("unexpected expiry %s", pkg.ExpiresAt)
	}

	// Three sessions logged with decreasing pain.
	for i, score := range []int{8, 6, 4} {
		entry := models.PainScoreEntry{Date: now, SessionNumber: i + 1, Score: score}
		if err := store.Patients().AppendPainScore(ctx, patient.ID, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	stored, _ := store.Packages().GetByID(ctx, pkg.ID)
	stored.SessionsCompleted, stored.SessionsRemaining = 3, 5
	if err := store.Packages().Save(ctx, stored); err != nil {
		t.Fatalf("save: %v", err)
	}

	owner := models.Caller{ID: patient.ID, Role: models.RolePatient}
	report, err := svc.Progress(ctx, owner, patient.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if report.PercentComplete != 38 || report.PainReductionPercent != 56 || report.Trend != progress.TrendImproving {
		t.Errorf("unexpected report %+v", report)
	}
	if report.Recommended != models.PackageStandard || report.RenewalAlert {
		t.Errorf("unexpected recommendation %+v", report)
	}

	other := models.Caller{ID: "someone", Role: models.RolePatient}
	if _, err := svc.Progress(ctx, other, patient.ID); !errors.Is(err, apperrors.ErrAuthorization) {
		t.Errorf("expected forbidden for other patient, got %v", err)
	}
}

func TestPurchasePackageRejects(t *testing.T) {
	svc, _ := newService(time.Now())
	ctx := context.Background()
	if _, err := svc.PurchasePackage(ctx, admin, "ghost", models.PackageBasic); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := svc.PurchasePackage(ctx, admin, "ghost", "platinum"); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestExpireOverdue(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, store := newService(now)
	ctx := context.Background()
	_ = store.Packages().Create(ctx, &models.TreatmentPackage{ID: "a", Status: models.PackageActive, ExpiresAt: now.Add(-time.Minute)})
	_ = store.Packages().Create(ctx, &models.TreatmentPackage{ID: "b", Status: models.PackageActive, ExpiresAt: now.Add(time.Minute)})

	n, err := svc.ExpireOverdue(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 expired, got %d (%v)", n, err)
	}
}
