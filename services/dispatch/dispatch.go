// Package dispatch matches pending bookings to eligible providers and commits
// the admin's assignment.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"meridian/apperrors"
	bookingRepo "meridian/database/repository/booking"
	providerRepo "meridian/database/repository/provider"
	"meridian/models"
	"meridian/services/events"
	"meridian/services/notification"

	"go.uber.org/zap"
)

type Matcher interface {
	FindEligibleProviders(ctx context.Context, booking *models.Booking) ([]models.Provider, error)
	Candidates(ctx context.Context, caller models.Caller, bookingID string) ([]models.Provider, error)
	Assign(ctx context.Context, caller models.Caller, bookingID, providerID string) (*models.Booking, error)
}

type DefaultMatcher struct {
	Providers providerRepo.ProviderRepository
	Bookings  bookingRepo.BookingRepository
	Notifier  notification.Notifier
	Events    events.Publisher
	Logger    *zap.Logger
	Now       func() time.Time
}

func NewMatcher(providers providerRepo.ProviderRepository, bookings bookingRepo.BookingRepository,
	notifier notification.Notifier, publisher events.Publisher, logger *zap.Logger) *DefaultMatcher {
	return &DefaultMatcher{
		Providers: providers,
		Bookings:  bookings,
		Notifier:  notifier,
		Events:    publisher,
		Logger:    logger,
		Now:       time.Now,
	}
}

// Eligible is the dispatch predicate.
func Eligible(p *models.Provider, area models.ServiceArea, serviceID string) bool {
	return p.Status == models.ProviderActive && p.ServiceArea == area && p.Offers(serviceID)
}

// SortCandidates orders providers by rating desc, experience desc, then id.
func SortCandidates(providers []models.Provider) {
	sort.SliceStable(providers, func(i, j int) bool {
		a, b := providers[i], providers[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.ExperienceYears != b.ExperienceYears {
			return a.ExperienceYears > b.ExperienceYears
		}
		return a.ID < b.ID
	})
}

// FindEligibleProviders returns the ordered candidate list for booking or a
// NoEligibleProvider error when nobody qualifies.
func (m *DefaultMatcher) FindEligibleProviders(ctx context.Context, booking *models.Booking) ([]models.Provider, error) {
	if booking.ServiceArea == "" || booking.ServiceID == "" {
		return nil, apperrors.Validation("booking has no service area or service")
	}
	found, err := m.Providers.FindEligible(ctx, booking.ServiceArea, booking.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible providers: %w", err)
	}
	// The store query and the predicate must agree; filter again so a loose
	// index or stale document can never leak through.
	eligible := make([]models.Provider, 0, len(found))
	for i := range found {
		if Eligible(&found[i], booking.ServiceArea, booking.ServiceID) {
			eligible = append(eligible, found[i])
		}
	}
	if len(eligible) == 0 {
		return nil, apperrors.NoEligibleProvider(string(booking.ServiceArea))
	}
	SortCandidates(eligible)
	return eligible, nil
}

func (m *DefaultMatcher) Candidates(ctx context.Context, caller models.Caller, bookingID string) ([]models.Provider, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can dispatch bookings")
	}
	booking, err := m.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return m.FindEligibleProviders(ctx, booking)
}

// Assign commits providerID to a pending booking.
func (m *DefaultMatcher) Assign(ctx context.Context, caller models.Caller, bookingID, providerID string) (*models.Booking, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can dispatch bookings")
	}
	if providerID == "" {
		return nil, apperrors.Validation("providerId is required")
	}
	booking, err := m.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusPending {
		return nil, apperrors.InvalidTransition(string(booking.Status), string(models.StatusAssigned))
	}

	candidates, err := m.FindEligibleProviders(ctx, booking)
	if err != nil {
		return nil, err
	}
	var chosen *models.Provider
	for i := range candidates {
		if candidates[i].ID == providerID {
			chosen = &candidates[i]
			break
		}
	}
	if chosen == nil {
		return nil, apperrors.Validation(fmt.Sprintf("provider %s is not eligible for booking %s", providerID, booking.BookingNumber)).
			WithDetails(map[string]any{"providerId": providerID, "serviceArea": booking.ServiceArea, "serviceId": booking.ServiceID})
	}

	now := m.Now().UTC()
	updated := *booking
	updated.AssignedProviderID = chosen.ID
	updated.AssignedProviderName = chosen.Name
	updated.ConfirmedDate = booking.RequestedDate
	updated.ConfirmedTime = booking.RequestedTime
	updated.Status = models.StatusAssigned
	updated.AssignedAt = &now
	updated.UpdatedAt = now
	if err := m.Bookings.Transition(ctx, models.StatusPending, &updated); err != nil {
		return nil, err
	}

	m.Logger.Info("Booking assigned",
		zap.String("bookingId", updated.ID),
		zap.String("bookingNumber", updated.BookingNumber),
		zap.String("providerId", chosen.ID))

	// The assignment is committed; delivery problems are only logged.
	if err := m.Notifier.NotifyAssignment(ctx, updated.ID); err != nil {
		m.Logger.Error("failed to enqueue assignment notification", zap.String("bookingId", updated.ID), zap.Error(err))
	}
	if err := m.Events.Publish(ctx, events.FromBooking(events.BookingAssigned, &updated)); err != nil {
		m.Logger.Warn("failed to publish booking event", zap.String("bookingId", updated.ID), zap.Error(err))
	}
	return &updated, nil
}
