// Package memory holds map backed repositories with the same contracts as the
// Mongo ones. Services and handlers are tested against it.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"meridian/apperrors"
	bookingRepo "meridian/database/repository/booking"
	"meridian/models"
)

// Store owns every collection behind one lock. txMu serialises transactions.
type Store struct {
	txMu      sync.Mutex
	mu        sync.Mutex
	providers map[string]models.Provider
	bookings  map[string]models.Booking
	packages  map[string]models.TreatmentPackage
	patients  map[string]models.Patient
	services  map[string]models.Service
}

func NewStore() *Store {
	return &Store{
		providers: map[string]models.Provider{},
		bookings:  map[string]models.Booking{},
		packages:  map[string]models.TreatmentPackage{},
		patients:  map[string]models.Patient{},
		services:  map[string]models.Service{},
	}
}

func (s *Store) Providers() *ProviderRepo { return &ProviderRepo{s} }
func (s *Store) Bookings() *BookingRepo   { return &BookingRepo{s} }
func (s *Store) Packages() *PackageRepo   { return &PackageRepo{s} }
func (s *Store) Patients() *PatientRepo   { return &PatientRepo{s} }
func (s *Store) Services() *ServiceRepo   { return &ServiceRepo{s} }

// WithTransaction runs fn against the store and restores every collection
// to its prior state when fn fails. Writes made outside a transaction while
// fn runs are lost on rollback.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	providers map[string]models.Provider
	bookings  map[string]models.Booking
	packages  map[string]models.TreatmentPackage
	patients  map[string]models.Patient
	services  map[string]models.Service
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		providers: make(map[string]models.Provider, len(s.providers)),
		bookings:  make(map[string]models.Booking, len(s.bookings)),
		packages:  make(map[string]models.TreatmentPackage, len(s.packages)),
		patients:  make(map[string]models.Patient, len(s.patients)),
		services:  make(map[string]models.Service, len(s.services)),
	}
	for id, p := range s.providers {
		p.OfferedServices = append([]string(nil), p.OfferedServices...)
		snap.providers[id] = p
	}
	for id, b := range s.bookings {
		snap.bookings[id] = b
	}
	for id, pkg := range s.packages {
		snap.packages[id] = pkg
	}
	for id, p := range s.patients {
		p.PainHistory = append([]models.PainScoreEntry(nil), p.PainHistory...)
		snap.patients[id] = p
	}
	for id, svc := range s.services {
		snap.services[id] = svc
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers = snap.providers
	s.bookings = snap.bookings
	s.packages = snap.packages
	s.patients = snap.patients
	s.services = snap.services
}

type ProviderRepo struct{ s *Store }

func (r *ProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.providers[id]
	if !ok {
		return nil, apperrors.NotFound("provider", id)
	}
	return &p, nil
}

func (r *ProviderRepo) Create(ctx context.Context, provider *models.Provider) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.providers {
		if p.Phone == provider.Phone {
			return apperrors.Conflict("DUPLICATE_PROVIDER", "a provider with this phone number already exists")
		}
	}
	r.s.providers[provider.ID] = *provider
	return nil
}

func (r *ProviderRepo) List(ctx context.Context, filter models.ProviderFilter) ([]models.Provider, error) {
	return r.collect(func(p models.Provider) bool {
		return (filter.ServiceArea == "" || p.ServiceArea == filter.ServiceArea) &&
			(filter.Status == "" || p.Status == filter.Status)
	}), nil
}

func (r *ProviderRepo) FindEligible(ctx context.Context, area models.ServiceArea, serviceID string) ([]models.Provider, error) {
	return r.collect(func(p models.Provider) bool {
		return p.Status == models.ProviderActive && p.ServiceArea == area && p.Offers(serviceID)
	}), nil
}

// collect returns matches in id order; callers own the ranking.
func (r *ProviderRepo) collect(match func(models.Provider) bool) []models.Provider {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Provider{}
	for _, p := range r.s.providers {
		if match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *ProviderRepo) UpdateStatus(ctx context.Context, id string, status models.ProviderStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.providers[id]
	if !ok {
		return apperrors.NotFound("provider", id)
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	r.s.providers[id] = p
	return nil
}

func (r *ProviderRepo) RecordCompletion(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.providers[id]
	if !ok {
		return apperrors.NotFound("provider", id)
	}
	p.CompletedCount++
	p.UpdatedAt = time.Now()
	r.s.providers[id] = p
	return nil
}

type BookingRepo struct{ s *Store }

func (r *BookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.BookingNumber == booking.BookingNumber {
			return bookingRepo.ErrDuplicateNumber
		}
	}
	r.s.bookings[booking.ID] = *booking
	return nil
}

func (r *BookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking", id)
	}
	return &b, nil
}

func (r *BookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Booking{}
	for _, b := range r.s.bookings {
		if filter.PatientID != "" && b.PatientID != filter.PatientID {
			continue
		}
		if filter.ProviderID != "" && b.AssignedProviderID != filter.ProviderID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].BookingNumber > out[j].BookingNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *BookingRepo) LatestNumber(ctx context.Context, prefix string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	latest := ""
	for _, b := range r.s.bookings {
		if strings.HasPrefix(b.BookingNumber, prefix) && b.BookingNumber > latest {
			latest = b.BookingNumber
		}
	}
	return latest, nil
}

func (r *BookingRepo) Transition(ctx context.Context, from models.BookingStatus, booking *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.bookings[booking.ID]
	if !ok {
		return apperrors.NotFound("booking", booking.ID)
	}
	if current.Status != from {
		return apperrors.ConcurrentUpdate("booking", booking.ID)
	}
	r.s.bookings[booking.ID] = *booking
	return nil
}

type PackageRepo struct{ s *Store }

func (r *PackageRepo) Create(ctx context.Context, pkg *models.TreatmentPackage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.packages[pkg.ID] = *pkg
	return nil
}

func (r *PackageRepo) GetByID(ctx context.Context, id string) (*models.TreatmentPackage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	pkg, ok := r.s.packages[id]
	if !ok {
		return nil, apperrors.NotFound("package", id)
	}
	return &pkg, nil
}

func (r *PackageRepo) Save(ctx context.Context, pkg *models.TreatmentPackage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.packages[pkg.ID]
	if !ok {
		return apperrors.NotFound("package", pkg.ID)
	}
	if current.Version != pkg.Version {
		return apperrors.ConcurrentUpdate("package", pkg.ID)
	}
	pkg.Version++
	r.s.packages[pkg.ID] = *pkg
	return nil
}

func (r *PackageRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, pkg := range r.s.packages {
		if pkg.Status == models.PackageActive && !pkg.ExpiresAt.After(now) {
			pkg.Status = models.PackageExpired
			pkg.Version++
			r.s.packages[id] = pkg
			n++
		}
	}
	return n, nil
}

type PatientRepo struct{ s *Store }

func (r *PatientRepo) Create(ctx context.Context, patient *models.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.patients {
		if p.Phone == patient.Phone {
			return apperrors.Conflict("DUPLICATE_PATIENT", "a patient with this phone number already exists")
		}
	}
	r.s.patients[patient.ID] = *patient
	return nil
}

func (r *PatientRepo) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", id)
	}
	p.PainHistory = append([]models.PainScoreEntry(nil), p.PainHistory...)
	return &p, nil
}

func (r *PatientRepo) SetActivePackage(ctx context.Context, patientID, packageID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.patients[patientID]
	if !ok {
		return apperrors.NotFound("patient", patientID)
	}
	p.ActivePackageID = packageID
	p.UpdatedAt = time.Now()
	r.s.patients[patientID] = p
	return nil
}

func (r *PatientRepo) AppendPainScore(ctx context.Context, patientID string, entry models.PainScoreEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.patients[patientID]
	if !ok {
		return apperrors.NotFound("patient", patientID)
	}
	for _, e := range p.PainHistory {
		if e.SessionNumber == entry.SessionNumber {
			return apperrors.ConcurrentUpdate("patient", patientID)
		}
	}
	p.PainHistory = append(append([]models.PainScoreEntry(nil), p.PainHistory...), entry)
	p.CurrentPainScore = entry.Score
	p.UpdatedAt = time.Now()
	r.s.patients[patientID] = p
	return nil
}

type ServiceRepo struct{ s *Store }

func (r *ServiceRepo) GetByID(ctx context.Context, id string) (*models.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	svc, ok := r.s.services[id]
	if !ok {
		return nil, apperrors.NotFound("service", id)
	}
	return &svc, nil
}

func (r *ServiceRepo) List(ctx context.Context, publishedOnly bool) ([]models.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Service{}
	for _, svc := range r.s.services {
		if publishedOnly && !svc.Published {
			continue
		}
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ServiceRepo) Upsert(ctx context.Context, service *models.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.services[service.ID] = *service
	return nil
}
