package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindNotFound           Kind = "NOT_FOUND"
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindAuthorization      Kind = "FORBIDDEN"
	KindStateConflict      Kind = "STATE_CONFLICT"
	KindNoEligibleProvider Kind = "NO_ELIGIBLE_PROVIDER"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Codes carried by state conflicts so callers can tell them apart.
const (
	CodePackageExhausted   = "PACKAGE_EXHAUSTED"
	CodePackageInactive    = "PACKAGE_INACTIVE"
	CodeServiceUnpublished = "SERVICE_UNPUBLISHED"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeConcurrentUpdate   = "CONCURRENT_UPDATE"
	CodeDuplicateSession   = "DUPLICATE_SESSION"
	CodeNumberUnavailable  = "BOOKING_NUMBER_UNAVAILABLE"
)

type Error struct {
	Kind    Kind           `json:"code"`
	Code    string         `json:"reason,omitempty"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind and, when set on the target, on code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// StatusCode maps the kind onto an HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindStateConflict, KindNoEligibleProvider:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// Targets for errors.Is.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated}
	ErrAuthorization      = &Error{Kind: KindAuthorization}
	ErrStateConflict      = &Error{Kind: KindStateConflict}
	ErrNoEligibleProvider = &Error{Kind: KindNoEligibleProvider}
	ErrPackageExhausted   = &Error{Kind: KindStateConflict, Code: CodePackageExhausted}
	ErrPackageInactive    = &Error{Kind: KindStateConflict, Code: CodePackageInactive}
	ErrConcurrentUpdate   = &Error{Kind: KindStateConflict, Code: CodeConcurrentUpdate}
	ErrDuplicateSession   = &Error{Kind: KindStateConflict, Code: CodeDuplicateSession}
	ErrNumberUnavailable  = &Error{Kind: KindStateConflict, Code: CodeNumberUnavailable}
)

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NotFound(resource, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: map[string]any{"resource": resource, "id": id},
	}
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindStateConflict, Code: code, Message: message}
}

func PackageExhausted(packageID string) *Error {
	return Conflict(CodePackageExhausted, "package has no remaining sessions").
		WithDetails(map[string]any{"packageId": packageID})
}

func PackageInactive(packageID, status string) *Error {
	return Conflict(CodePackageInactive, "package is not active").
		WithDetails(map[string]any{"packageId": packageID, "status": status})
}

func InvalidTransition(from, to string) *Error {
	return Conflict(CodeInvalidTransition, fmt.Sprintf("booking cannot move from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

func ConcurrentUpdate(resource, id string) *Error {
	return Conflict(CodeConcurrentUpdate, fmt.Sprintf("%s was modified concurrently, retry the request", resource)).
		WithDetails(map[string]any{"resource": resource, "id": id})
}

func NoEligibleProvider(area string) *Error {
	return &Error{
		Kind:    KindNoEligibleProvider,
		Message: fmt.Sprintf("no providers available in %s", area),
		Details: map[string]any{"serviceArea": area},
	}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// As returns the first *Error in err's chain, or an internal error wrapping err.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
