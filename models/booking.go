package models

import "time"

// BookingStatus is the assignment status of a booking.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusAssigned   BookingStatus = "assigned"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in-progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// bookingTransitions lists, for every status, the statuses it may move to.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// Terminal reports whether no further transition is possible from s.
func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllBookingStatuses returns every status in lifecycle order.
func AllBookingStatuses() []BookingStatus {
	return []BookingStatus{
		StatusPending,
		StatusAssigned,
		StatusConfirmed,
		StatusInProgress,
		StatusCompleted,
		StatusCancelled,
	}
}

// CustomerSnapshot is copied from the patient when the booking is created and
// never refreshed afterwards.
type CustomerSnapshot struct {
	Name  string `bson:"name" json:"name"`
	Phone string `bson:"phone" json:"phone"`
}

// Booking represents one requested treatment session.
type Booking struct {
	ID            string           `bson:"id" json:"id"`
	BookingNumber string           `bson:"bookingNumber" json:"bookingNumber"`
	PatientID     string           `bson:"patientId" json:"patientId"`
	Customer      CustomerSnapshot `bson:"customer" json:"customer"`

	ServiceID    string  `bson:"serviceId" json:"serviceId"`
	ServiceName  string  `bson:"serviceName" json:"serviceName"`
	ServicePrice float64 `bson:"servicePrice" json:"servicePrice"`

	RequestedDate string `bson:"requestedDate" json:"requestedDate"` // YYYY-MM-DD
	RequestedTime string `bson:"requestedTime" json:"requestedTime"` // HH:MM
	ConfirmedDate string `bson:"confirmedDate,omitempty" json:"confirmedDate,omitempty"`
	ConfirmedTime string `bson:"confirmedTime,omitempty" json:"confirmedTime,omitempty"`
	Address       string `bson:"address" json:"address"`

	Status      BookingStatus `bson:"status" json:"status"`
	ServiceArea ServiceArea   `bson:"serviceArea" json:"serviceArea"`
	Territory   string        `bson:"territory,omitempty" json:"territory,omitempty"`

	PackageID            string `bson:"packageId" json:"packageId"`
	AssignedProviderID   string `bson:"assignedProviderId,omitempty" json:"assignedProviderId,omitempty"`
	AssignedProviderName string `bson:"assignedProviderName,omitempty" json:"assignedProviderName,omitempty"`

	IsPaid        bool   `bson:"isPaid" json:"isPaid"`
	PaymentMethod string `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`

	PainBefore   *int   `bson:"painBefore,omitempty" json:"painBefore,omitempty"`
	PainAfter    *int   `bson:"painAfter,omitempty" json:"painAfter,omitempty"`
	SessionNotes string `bson:"sessionNotes,omitempty" json:"sessionNotes,omitempty"`
	CancelReason string `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	AssignedAt  *time.Time `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelledAt *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
}

// BookingFilter narrows a booking listing.
type BookingFilter struct {
	PatientID  string
	ProviderID string
	Status     BookingStatus
	Limit      int
}
