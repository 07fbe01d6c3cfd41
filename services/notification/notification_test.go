package notification

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"meridian/database/repository/memory"
	"meridian/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type sent struct {
	token string
	msg   Message
	data  map[string]string
}

type recordingSender struct {
	sent []sent
}

func (s *recordingSender) Send(ctx context.Context, token string, msg Message, data map[string]string) error {
	if token == "" {
		return ErrNoDeviceToken
	}
	s.sent = append(s.sent, sent{token: token, msg: msg, data: data})
	return nil
}

func assignedBooking() *models.Booking {
	return &models.Booking{
		ID:                   "b-1",
		BookingNumber:        "ACC-2024-00007",
		PatientID:            "pat-1",
		Customer:             models.CustomerSnapshot{Name: "Amina Otieno", Phone: "+254700000001"},
		ServiceName:          "Back pain relief",
		ConfirmedDate:        "2024-05-03",
		ConfirmedTime:        "14:00",
		Address:              "12 Riverside Drive",
		Status:               models.StatusAssigned,
		AssignedProviderID:   "prov-1",
		AssignedProviderName: "Grace Wanjiru",
	}
}

func TestAssignmentMessages(t *testing.T) {
	provider := &models.Provider{ID: "prov-1", Name: "Grace Wanjiru", Phone: "+254711111111"}
	toPatient, toProvider := AssignmentMessages(assignedBooking(), provider)

	for _, want := range []string{"Grace Wanjiru", "Back pain relief", "2024-05-03", "14:00", "+254711111111"} {
		if !strings.Contains(toPatient.Body, want) {
			t.Errorf("patient message %q missing %q", toPatient.Body, want)
		}
	}
	for _, want := range []string{"Amina Otieno", "12 Riverside Drive", "+254700000001", "14:00"} {
		if !strings.Contains(toProvider.Body, want) {
			t.Errorf("provider message %q missing %q", toProvider.Body, want)
		}
	}
	if !strings.Contains(toPatient.Title, "ACC-2024-00007") {
		t.Errorf("title should carry booking number, got %q", toPatient.Title)
	}
}

func newDispatcher(t *testing.T, patientToken, providerToken string) (*Dispatcher, *recordingSender) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	if err := store.Bookings().Create(ctx, assignedBooking()); err != nil {
		t.Fatal(err)
	}
	if err := store.Patients().Create(ctx, &models.Patient{ID: "pat-1", Name: "Amina Otieno", Phone: "+254700000001", FCMToken: patientToken}); err != nil {
		t.Fatal(err)
	}
	if err := store.Providers().Create(ctx, &models.Provider{ID: "prov-1", Name: "Grace Wanjiru", Phone: "+254711111111", FCMToken: providerToken}); err != nil {
		t.Fatal(err)
	}
	sender := &recordingSender{}
	return &Dispatcher{
		Bookings:  store.Bookings(),
		Patients:  store.Patients(),
		Providers: store.Providers(),
		Sender:    sender,
		Logger:    zap.NewNop(),
	}, sender
}

func TestDispatchAssignmentReachesBothParties(t *testing.T) {
	d, sender := newDispatcher(t, "patient-token", "provider-token")
	task, err := NewBookingNotificationTask(models.NotificationPayload{BookingID: "b-1", Kind: models.NotifyAssignment})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.HandleTask(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sender.sent))
	}
	if sender.sent[0].token != "patient-token" || sender.sent[0].data["role"] != "patient" {
		t.Errorf("unexpected first message %+v", sender.sent[0])
	}
	if sender.sent[1].token != "provider-token" || sender.sent[1].data["bookingNumber"] != "ACC-2024-00007" {
		t.Errorf("unexpected second message %+v", sender.sent[1])
	}
}

func TestDispatchSkipsMissingTokens(t *testing.T) {
	d, sender := newDispatcher(t, "", "provider-token")
	err := d.Dispatch(context.Background(), models.NotificationPayload{BookingID: "b-1", Kind: models.NotifyAssignment})
	if err != nil {
		t.Fatalf("missing token must not fail the task: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected only the provider message, got %d", len(sender.sent))
	}
}

func TestHandleTaskRejectsBadPayload(t *testing.T) {
	d, _ := newDispatcher(t, "a", "b")
	err := d.HandleTask(context.Background(), asynq.NewTask(TypeBookingNotification, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestNotificationTaskPayload(t *testing.T) {
	task, err := NewBookingNotificationTask(models.NotificationPayload{BookingID: "b-9", Kind: models.NotifyConfirmation})
	if err != nil {
		t.Fatal(err)
	}
	if task.Type() != TypeBookingNotification {
		t.Errorf("unexpected task type %s", task.Type())
	}
	var p models.NotificationPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil || p.BookingID != "b-9" {
		t.Errorf("unexpected payload %s (%v)", task.Payload(), err)
	}
}
