package bookingRepo

import (
	"context"
	"errors"

	"meridian/models"
)

// ErrDuplicateNumber is returned by Create when the booking number is taken.
var ErrDuplicateNumber = errors.New("booking number already issued")

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// List returns bookings newest first, capped at filter.Limit.
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	// LatestNumber returns the highest booking number issued with prefix, or "" if none.
	LatestNumber(ctx context.Context, prefix string) (string, error)
	// Transition stores booking only if its persisted status still equals from.
	Transition(ctx context.Context, from models.BookingStatus, booking *models.Booking) error
}
