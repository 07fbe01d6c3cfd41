package events

import (
	"testing"

	"meridian/models"
)

func TestFromBooking(t *testing.T) {
	b := &models.Booking{
		ID:                 "b-1",
		BookingNumber:      "ACC-2024-00006",
		PatientID:          "pat-1",
		PackageID:          "pkg-1",
		AssignedProviderID: "prov-1",
		Status:             models.StatusAssigned,
	}
	evt := FromBooking(BookingAssigned, b)
	if evt.Type != BookingAssigned || evt.BookingID != "b-1" || evt.ProviderID != "prov-1" {
		t.Errorf("unexpected event %+v", evt)
	}
	if evt.Status != models.StatusAssigned {
		t.Errorf("expected assigned status, got %s", evt.Status)
	}
	if evt.OccurredAt.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestNewKafkaPublisherValidates(t *testing.T) {
	if _, err := NewKafkaPublisher(nil, "booking-events"); err == nil {
		t.Error("expected error without brokers")
	}
	if _, err := NewKafkaPublisher([]string{"localhost:9092"}, ""); err == nil {
		t.Error("expected error without topic")
	}
	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "booking-events")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}
