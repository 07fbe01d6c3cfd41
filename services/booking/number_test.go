package booking

import (
	"errors"
	"testing"

	"meridian/apperrors"
)

func TestNextBookingNumber(t *testing.T) {
	tests := []struct {
		name string
		last string
		year int
		want string
	}{
		{"first ever", "", 2024, "ACC-2024-00001"},
		{"same year increments", "ACC-2024-00005", 2024, "ACC-2024-00006"},
		{"new year resets", "ACC-2024-00412", 2025, "ACC-2025-00001"},
		{"last five digit number", "ACC-2024-99998", 2024, "ACC-2024-99999"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextBookingNumber(tc.last, tc.year)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNextBookingNumberRejectsGarbage(t *testing.T) {
	if _, err := NextBookingNumber("ACC-2024-abc", 2024); err == nil {
		t.Fatal("expected error for malformed number")
	}
}

func TestNextBookingNumberStopsAtFiveDigits(t *testing.T) {
	_, err := NextBookingNumber("ACC-2024-99999", 2024)
	if !errors.Is(err, apperrors.ErrNumberUnavailable) {
		t.Fatalf("expected booking number conflict, got %v", err)
	}
	if apperrors.As(err).StatusCode() != 409 {
		t.Errorf("expected 409, got %d", apperrors.As(err).StatusCode())
	}
}
