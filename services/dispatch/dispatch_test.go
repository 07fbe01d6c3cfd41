package dispatch

import (
	"context"
	"errors"
	"testing"

	"meridian/apperrors"
	"meridian/database/repository/memory"
	"meridian/models"
	"meridian/services/events"

	"go.uber.org/zap"
)

type recordingNotifier struct {
	assigned []string
}

func (n *recordingNotifier) NotifyAssignment(ctx context.Context, bookingID string) error {
	n.assigned = append(n.assigned, bookingID)
	return nil
}

func (n *recordingNotifier) NotifyConfirmation(ctx context.Context, bookingID string) error {
	return nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, evt events.Event) error {
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var admin = models.Caller{ID: "admin-1", Role: models.RoleAdmin}

func seed(t *testing.T, store *memory.Store, providers ...models.Provider) {
	t.Helper()
	ctx := context.Background()
	for i := range providers {
		if err := store.Providers().Create(ctx, &providers[i]); err != nil {
			t.Fatalf("seed provider %s: %v", providers[i].ID, err)
		}
	}
	booking := &models.Booking{
		ID:            "b-1",
		BookingNumber: "ACC-2024-00001",
		PatientID:     "pat-1",
		ServiceID:     "svc-back",
		ServiceName:   "Back pain relief",
		RequestedDate: "2024-05-02",
		RequestedTime: "10:30",
		Status:        models.StatusPending,
		ServiceArea:   models.AreaNorth,
	}
	if err := store.Bookings().Create(ctx, booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
}

func newMatcher(store *memory.Store) (*DefaultMatcher, *recordingNotifier, *recordingPublisher) {
	n := &recordingNotifier{}
	p := &recordingPublisher{}
	return NewMatcher(store.Providers(), store.Bookings(), n, p, zap.NewNop()), n, p
}

func provider(id string, area models.ServiceArea, status models.ProviderStatus, rating float64, years int, services ...string) models.Provider {
	return models.Provider{
		ID:              id,
		Name:            "Therapist " + id,
		Phone:           "+2547000000" + id,
		ServiceArea:     area,
		OfferedServices: services,
		Status:          status,
		Rating:          rating,
		ExperienceYears: years,
	}
}

func TestFindEligibleProvidersFiltersAndOrders(t *testing.T) {
	store := memory.NewStore()
	seed(t, store,
		provider("p1", models.AreaNorth, models.ProviderActive, 4.5, 3, "svc-back"),
		provider("p2", models.AreaNorth, models.ProviderActive, 4.8, 1, "svc-back", "svc-neck"),
		provider("p3", models.AreaNorth, models.ProviderActive, 4.5, 7, "svc-back"),
		provider("p4", models.AreaNorth, models.ProviderSuspended, 5, 10, "svc-back"),
		provider("p5", models.AreaSouth, models.ProviderActive, 5, 10, "svc-back"),
		provider("p6", models.AreaNorth, models.ProviderActive, 5, 10, "svc-neck"),
		provider("p7", models.AreaNorth, models.ProviderPending, 5, 10, "svc-back"),
		provider("p8", models.AreaNorth, models.ProviderActive, 4.5, 3, "svc-back"),
	)
	m, _, _ := newMatcher(store)
	booking, _ := store.Bookings().GetByID(context.Background(), "b-1")

	got, err := m.FindEligibleProviders(context.Background(), booking)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"p2", "p3", "p1", "p8"}
	if len(got) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
		if !Eligible(&got[i], booking.ServiceArea, booking.ServiceID) {
			t.Errorf("ineligible provider %s returned", got[i].ID)
		}
	}
}

func TestAssignCopiesSlotAndNotifies(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, provider("p1", models.AreaNorth, models.ProviderActive, 4.5, 3, "svc-back"))
	m, notifier, publisher := newMatcher(store)

	updated, err := m.Assign(context.Background(), admin, "b-1", "p1")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if updated.Status != models.StatusAssigned {
		t.Errorf("expected assigned, got %s", updated.Status)
	}
	if updated.AssignedProviderID != "p1" || updated.AssignedProviderName != "Therapist p1" {
		t.Errorf("provider not recorded: %+v", updated)
	}
	if updated.ConfirmedDate != "2024-05-02" || updated.ConfirmedTime != "10:30" {
		t.Errorf("requested slot not copied: %s %s", updated.ConfirmedDate, updated.ConfirmedTime)
	}
	if updated.AssignedAt == nil {
		t.Error("expected assignedAt to be set")
	}
	stored, _ := store.Bookings().GetByID(context.Background(), "b-1")
	if stored.Status != models.StatusAssigned {
		t.Errorf("stored booking not assigned: %s", stored.Status)
	}
	if len(notifier.assigned) != 1 || notifier.assigned[0] != "b-1" {
		t.Errorf("expected one assignment notification, got %v", notifier.assigned)
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != events.BookingAssigned {
		t.Errorf("expected booking.assigned event, got %+v", publisher.events)
	}
}

func TestAssignWithNoEligibleProviderLeavesBookingPending(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, provider("p5", models.AreaSouth, models.ProviderActive, 5, 10, "svc-back"))
	m, notifier, _ := newMatcher(store)

	_, err := m.Assign(context.Background(), admin, "b-1", "p5")
	if !errors.Is(err, apperrors.ErrNoEligibleProvider) {
		t.Fatalf("expected no eligible provider, got %v", err)
	}
	if appErr := apperrors.As(err); appErr.Message != "no providers available in north" {
		t.Errorf("unexpected message %q", appErr.Message)
	}
	stored, _ := store.Bookings().GetByID(context.Background(), "b-1")
	if stored.Status != models.StatusPending {
		t.Errorf("expected booking to stay pending, got %s", stored.Status)
	}
	if len(notifier.assigned) != 0 {
		t.Errorf("no notification expected, got %v", notifier.assigned)
	}
}

func TestAssignRejects(t *testing.T) {
	tests := []struct {
		name       string
		caller     models.Caller
		providerID string
		prepare    func(store *memory.Store)
		want       error
	}{
		{
			name:       "non admin",
			caller:     models.Caller{ID: "pat-1", Role: models.RolePatient},
			providerID: "p1",
			want:       apperrors.ErrAuthorization,
		},
		{
			name:       "provider not among candidates",
			caller:     admin,
			providerID: "p6",
			want:       apperrors.ErrValidation,
		},
		{
			name:       "booking already assigned",
			caller:     admin,
			providerID: "p1",
			prepare: func(store *memory.Store) {
				b, _ := store.Bookings().GetByID(context.Background(), "b-1")
				b.Status = models.StatusAssigned
				_ = store.Bookings().Transition(context.Background(), models.StatusPending, b)
			},
			want: apperrors.ErrStateConflict,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.NewStore()
			seed(t, store,
				provider("p1", models.AreaNorth, models.ProviderActive, 4.5, 3, "svc-back"),
				provider("p6", models.AreaNorth, models.ProviderActive, 5, 10, "svc-neck"),
			)
			if tc.prepare != nil {
				tc.prepare(store)
			}
			m, _, _ := newMatcher(store)
			if _, err := m.Assign(context.Background(), tc.caller, "b-1", tc.providerID); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
