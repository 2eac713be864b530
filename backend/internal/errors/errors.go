package errors

import (
	"errors"
	"fmt"
	"net/http"

	shared_errors "github.com/ledgerdesk/ledgerdesk/shared/errors"
)

// Sentinels for errors.Is. Every error returned by the services is one of
// these kinds; anything else is an infrastructure failure.
var (
	ErrValidation        = kind(http.StatusBadRequest, "validation_error", "Validation error")
	ErrInvalidTransition = kind(http.StatusUnprocessableEntity, "invalid_transition", "Invalid status transition")
	ErrPermissionDenied  = kind(http.StatusForbidden, "permission_denied", "Permission denied")
	ErrNotAParticipant   = kind(http.StatusForbidden, "not_a_participant", "Not a participant of this document")
	ErrForbidden         = kind(http.StatusForbidden, "forbidden", "Forbidden")
	ErrNotOwner          = kind(http.StatusForbidden, "not_owner", "Document belongs to another client")
	ErrNotFound          = kind(http.StatusNotFound, "not_found", "Not found")
	ErrAlreadySuperseded = kind(http.StatusConflict, "already_superseded", "Document has been superseded")
	ErrConflict          = kind(http.StatusConflict, "conflict", "Concurrent update, reload and retry")
)

func kind(status int, code, message string) *shared_errors.ErrorWithStatusCode {
	return &shared_errors.ErrorWithStatusCode{Message: message, StatusCode: status, Code: code}
}

func withMessage(sentinel *shared_errors.ErrorWithStatusCode, format string, args ...any) error {
	return &shared_errors.ErrorWithStatusCode{
		Message:    fmt.Sprintf(format, args...),
		StatusCode: sentinel.StatusCode,
		Code:       sentinel.Code,
	}
}

func Validation(format string, args ...any) error {
	return withMessage(ErrValidation, format, args...)
}

func InvalidTransition(format string, args ...any) error {
	return withMessage(ErrInvalidTransition, format, args...)
}

func PermissionDenied(format string, args ...any) error {
	return withMessage(ErrPermissionDenied, format, args...)
}

func Forbidden(format string, args ...any) error {
	return withMessage(ErrForbidden, format, args...)
}

func NotFound(what string) error {
	return withMessage(ErrNotFound, "%s not found", what)
}

func Conflict(format string, args ...any) error {
	return withMessage(ErrConflict, format, args...)
}

// IsAny reports whether err matches one of the sentinels.
func IsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
