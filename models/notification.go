package models

// NotificationPayload is the body of a queued push notification task.
type NotificationPayload struct {
	BookingID string `json:"bookingId"`
	Kind      string `json:"kind"` // "assignment" or "confirmation"
}

// Notification kinds.
const (
	NotifyAssignment   = "assignment"
	NotifyConfirmation = "confirmation"
)
