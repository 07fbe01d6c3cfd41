package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meridian/apperrors"
	"meridian/database"
	bookingRepo "meridian/database/repository/booking"
	patientRepo "meridian/database/repository/patient"
	providerRepo "meridian/database/repository/provider"
	treatmentPkgRepo "meridian/database/repository/treatmentpkg"
	"meridian/models"
	"meridian/services/catalog"
	"meridian/services/events"
	"meridian/services/ledger"
	"meridian/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxNumberAttempts bounds retries when two requests race for the same booking number.
const maxNumberAttempts = 3

type CreateInput struct {
	PackageID     string             `json:"packageId"`
	ServiceID     string             `json:"serviceId"`
	RequestedDate string             `json:"requestedDate"`
	RequestedTime string             `json:"requestedTime"`
	Address       string             `json:"address"`
	ServiceArea   models.ServiceArea `json:"serviceArea,omitempty"`
	Territory     string             `json:"territory,omitempty"`
	PaymentMethod string             `json:"paymentMethod,omitempty"`
}

type CompleteInput struct {
	PainBefore *int   `json:"painBefore"`
	PainAfter  *int   `json:"painAfter"`
	Notes      string `json:"notes,omitempty"`
}

type ListQuery struct {
	Status models.BookingStatus
	Limit  int
}

type Service interface {
	Create(ctx context.Context, caller models.Caller, in CreateInput) (*models.Booking, error)
	List(ctx context.Context, caller models.Caller, q ListQuery) ([]models.Booking, error)
	Get(ctx context.Context, caller models.Caller, id string) (*models.Booking, error)
	Confirm(ctx context.Context, caller models.Caller, id string) (*models.Booking, error)
	Start(ctx context.Context, caller models.Caller, id string) (*models.Booking, error)
	Complete(ctx context.Context, caller models.Caller, id string, in CompleteInput) (*models.Booking, error)
	Cancel(ctx context.Context, caller models.Caller, id, reason string) (*models.Booking, error)
}

// DefaultBookingService runs the booking lifecycle. Package and booking
// writes of one operation share a transaction.
type DefaultBookingService struct {
	Bookings     bookingRepo.BookingRepository
	Packages     treatmentPkgRepo.PackageRepository
	Patients     patientRepo.PatientRepository
	Providers    providerRepo.ProviderRepository
	Catalog      catalog.Service
	Tx           database.TxRunner
	Notifier     notification.Notifier
	Events       events.Publisher
	Logger       *zap.Logger
	Now          func() time.Time
	DefaultLimit int
	MaxLimit     int
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func validateCreate(in CreateInput) error {
	var missing []string
	if strings.TrimSpace(in.PackageID) == "" {
		missing = append(missing, "packageId")
	}
	if strings.TrimSpace(in.ServiceID) == "" {
		missing = append(missing, "serviceId")
	}
	if strings.TrimSpace(in.RequestedDate) == "" {
		missing = append(missing, "requestedDate")
	}
	if strings.TrimSpace(in.RequestedTime) == "" {
		missing = append(missing, "requestedTime")
	}
	if strings.TrimSpace(in.Address) == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return apperrors.Validation("missing required booking fields").
			WithDetails(map[string]any{"fields": missing})
	}
	if _, err := time.Parse("2006-01-02", in.RequestedDate); err != nil {
		return apperrors.Validation("requestedDate must be formatted YYYY-MM-DD")
	}
	if _, err := time.Parse("15:04", in.RequestedTime); err != nil {
		return apperrors.Validation("requestedTime must be formatted HH:MM")
	}
	if in.ServiceArea != "" && !in.ServiceArea.Valid() {
		return apperrors.Validation(fmt.Sprintf("unknown service area %q", in.ServiceArea))
	}
	return nil
}

// Create books a session against the caller's package.
func (s *DefaultBookingService) Create(ctx context.Context, caller models.Caller, in CreateInput) (*models.Booking, error) {
	if caller.Role != models.RolePatient && !caller.IsAdmin() {
		return nil, apperrors.Forbidden("only patients and admins can create bookings")
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	pkg, err := s.Packages.GetByID(ctx, in.PackageID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && pkg.PatientID != caller.ID {
		return nil, apperrors.Forbidden("package does not belong to the caller")
	}
	// Fail fast on an exhausted or inactive package before touching anything else.
	if _, err := ledger.Reserve(pkg); err != nil {
		return nil, err
	}

	svc, err := s.Catalog.Get(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.Published {
		return nil, apperrors.Conflict(apperrors.CodeServiceUnpublished,
			fmt.Sprintf("service %s is not available for booking", svc.Name))
	}

	patient, err := s.Patients.GetByID(ctx, pkg.PatientID)
	if err != nil {
		return nil, err
	}
	area := in.ServiceArea
	if area == "" {
		area = patient.ServiceArea
	}
	if !area.Valid() {
		return nil, apperrors.Validation("booking needs a service area")
	}

	now := s.now()
	booking := &models.Booking{
		ID:            uuid.New().String(),
		PatientID:     patient.ID,
		Customer:      models.CustomerSnapshot{Name: patient.Name, Phone: patient.Phone},
		ServiceID:     svc.ID,
		ServiceName:   svc.Name,
		ServicePrice:  svc.Price,
		RequestedDate: in.RequestedDate,
		RequestedTime: in.RequestedTime,
		Address:       strings.TrimSpace(in.Address),
		Status:        models.StatusPending,
		ServiceArea:   area,
		Territory:     in.Territory,
		PackageID:     pkg.ID,
		PaymentMethod: in.PaymentMethod,
		IsPaid:        true, // sessions are prepaid through the package
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for attempt := 1; ; attempt++ {
		err = s.Tx.WithTransaction(ctx, func(tx context.Context) error {
			return s.insertWithReservation(tx, booking, now.Year())
		})
		if err == nil {
			break
		}
		if !errors.Is(err, bookingRepo.ErrDuplicateNumber) {
			return nil, err
		}
		if attempt >= maxNumberAttempts {
			conflict := apperrors.Conflict(apperrors.CodeNumberUnavailable, "could not allocate a booking number, retry the request")
			conflict.Err = err
			return nil, conflict
		}
		s.Logger.Warn("booking number collision, retrying",
			zap.String("bookingNumber", booking.BookingNumber), zap.Int("attempt", attempt))
	}

	s.Logger.Info("Booking created",
		zap.String("bookingId", booking.ID),
		zap.String("bookingNumber", booking.BookingNumber),
		zap.String("patientId", booking.PatientID))
	s.publish(ctx, events.BookingCreated, booking)
	return booking, nil
}

func (s *DefaultBookingService) insertWithReservation(ctx context.Context, booking *models.Booking, year int) error {
	pkg, err := s.Packages.GetByID(ctx, booking.PackageID)
	if err != nil {
		return err
	}
	reserved, err := ledger.Reserve(pkg)
	if err != nil {
		return err
	}
	if err := s.Packages.Save(ctx, reserved); err != nil {
		return err
	}
	last, err := s.Bookings.LatestNumber(ctx, NumberPrefix(year))
	if err != nil {
		return err
	}
	number, err := NextBookingNumber(last, year)
	if err != nil {
		return err
	}
	booking.BookingNumber = number
	return s.Bookings.Create(ctx, booking)
}

// List scopes bookings to the caller: patients see their own, providers
// their assignments, admins everything.
func (s *DefaultBookingService) List(ctx context.Context, caller models.Caller, q ListQuery) ([]models.Booking, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown booking status %q", q.Status))
	}
	if q.Limit < 0 {
		return nil, apperrors.Validation("limit must be positive")
	}
	filter := models.BookingFilter{Status: q.Status, Limit: s.clampLimit(q.Limit)}
	switch caller.Role {
	case models.RolePatient:
		filter.PatientID = caller.ID
	case models.RoleProvider:
		filter.ProviderID = caller.ID
	case models.RoleAdmin:
	default:
		return nil, apperrors.Forbidden("unknown role")
	}
	return s.Bookings.List(ctx, filter)
}

func (s *DefaultBookingService) clampLimit(limit int) int {
	def, ceiling := s.DefaultLimit, s.MaxLimit
	if def <= 0 {
		def = 50
	}
	if ceiling <= 0 {
		ceiling = 200
	}
	if limit == 0 {
		return def
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}

func (s *DefaultBookingService) Get(ctx context.Context, caller models.Caller, id string) (*models.Booking, error) {
	booking, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, booking) {
		return nil, apperrors.Forbidden("booking is not visible to the caller")
	}
	return booking, nil
}

func canView(caller models.Caller, b *models.Booking) bool {
	switch caller.Role {
	case models.RoleAdmin:
		return true
	case models.RolePatient:
		return b.PatientID == caller.ID
	case models.RoleProvider:
		return b.AssignedProviderID != "" && b.AssignedProviderID == caller.ID
	}
	return false
}

func (s *DefaultBookingService) publish(ctx context.Context, eventType string, b *models.Booking) {
	if err := s.Events.Publish(ctx, events.FromBooking(eventType, b)); err != nil {
		s.Logger.Warn("failed to publish booking event",
			zap.String("type", eventType), zap.String("bookingId", b.ID), zap.Error(err))
	}
}
