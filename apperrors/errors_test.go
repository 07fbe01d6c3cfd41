package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation("missing field"), http.StatusBadRequest},
		{NotFound("package", "p1"), http.StatusNotFound},
		{Unauthenticated("no token"), http.StatusUnauthorized},
		{Forbidden("not yours"), http.StatusForbidden},
		{PackageExhausted("p1"), http.StatusConflict},
		{NoEligibleProvider("north"), http.StatusConflict},
		{Internal("boom", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.err.StatusCode(); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.err.Kind, tt.want, got)
		}
	}
}

func TestIsMatchesKindAndCode(t *testing.T) {
	err := fmt.Errorf("consume: %w", PackageExhausted("p1"))

	if !errors.Is(err, ErrStateConflict) {
		t.Error("expected exhausted package to match generic state conflict")
	}
	if !errors.Is(err, ErrPackageExhausted) {
		t.Error("expected exhausted package to match its code")
	}
	if errors.Is(err, ErrPackageInactive) {
		t.Error("exhausted package must not match inactive package")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("exhausted package must not match not found")
	}
}

func TestAsWrapsUnknownErrors(t *testing.T) {
	plain := errors.New("socket closed")
	got := As(plain)
	if got.Kind != KindInternal {
		t.Fatalf("expected internal kind, got %s", got.Kind)
	}
	if !errors.Is(got, plain) {
		t.Error("expected the original error to stay in the chain")
	}

	wrapped := fmt.Errorf("assign: %w", NoEligibleProvider("east"))
	if As(wrapped).Kind != KindNoEligibleProvider {
		t.Errorf("expected typed error to be unwrapped, got %v", As(wrapped))
	}
	if msg := As(wrapped).Message; msg != "no providers available in east" {
		t.Errorf("unexpected message %q", msg)
	}
}
