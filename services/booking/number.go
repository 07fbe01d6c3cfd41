package booking

import (
	"fmt"
	"strconv"
	"strings"

	"meridian/apperrors"
)

const (
	bookingNumberPrefix = "ACC"
	// maxSequence keeps every number five digits wide so numbers of one
	// year sort lexically in issue order.
	maxSequence = 99999
)

// NumberPrefix returns the prefix shared by every booking number of year.
func NumberPrefix(year int) string {
	return fmt.Sprintf("%s-%d-", bookingNumberPrefix, year)
}

func FormatBookingNumber(year, seq int) string {
	return fmt.Sprintf("%s%05d", NumberPrefix(year), seq)
}

// NextBookingNumber derives the number following last within year. A last
// number from another year, or none at all, starts the sequence at 1.
func NextBookingNumber(last string, year int) (string, error) {
	prefix := NumberPrefix(year)
	if last == "" || !strings.HasPrefix(last, prefix) {
		return FormatBookingNumber(year, 1), nil
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
	if err != nil || seq < 1 {
		return "", fmt.Errorf("malformed booking number %q", last)
	}
	if seq >= maxSequence {
		return "", apperrors.Conflict(apperrors.CodeNumberUnavailable,
			fmt.Sprintf("booking numbers for %d are used up", year)).
			WithDetails(map[string]any{"last": last})
	}
	return FormatBookingNumber(year, seq+1), nil
}
