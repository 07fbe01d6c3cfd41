package notification

import (
	"fmt"

	"meridian/models"
)

type Message struct {
	Title string
	Body  string
}

// AssignmentMessages renders the texts sent when a provider is assigned.
func AssignmentMessages(b *models.Booking, p *models.Provider) (toPatient, toProvider Message) {
	toPatient = Message{
		Title: fmt.Sprintf("Booking %s assigned", b.BookingNumber),
		Body: fmt.Sprintf("%s will attend your %s session on %s at %s. Contact: %s.",
			p.Name, b.ServiceName, b.ConfirmedDate, b.ConfirmedTime, p.Phone),
	}
	toProvider = Message{
		Title: fmt.Sprintf("New session %s", b.BookingNumber),
		Body: fmt.Sprintf("%s for %s on %s at %s. Address: %s. Patient phone: %s.",
			b.ServiceName, b.Customer.Name, b.ConfirmedDate, b.ConfirmedTime, b.Address, b.Customer.Phone),
	}
	return toPatient, toProvider
}

// ConfirmationMessage renders the text sent to the patient once the session is confirmed.
func ConfirmationMessage(b *models.Booking) Message {
	return Message{
		Title: fmt.Sprintf("Booking %s confirmed", b.BookingNumber),
		Body: fmt.Sprintf("Your %s session with %s is confirmed for %s at %s.",
			b.ServiceName, b.AssignedProviderName, b.ConfirmedDate, b.ConfirmedTime),
	}
}
