package livepoll_errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Rejections. These are deterministic outcomes of the current ledger state and
// are returned to the caller as-is.
var (
	ErrNotFound      = errors.New("not found")
	ErrPollClosed    = errors.New("poll is closed")
	ErrInvalidOption = errors.New("option does not belong to poll")
	ErrDuplicateVote = errors.New("address already has an active vote for this poll")
	ErrNoActiveVote  = errors.New("address has no active vote for this poll")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrRateLimited   = errors.New("rate limited")
	ErrAlreadyExists = errors.New("already exists")
)

// Infrastructure faults. The caller may retry the whole operation.
var (
	ErrTransient          = errors.New("transient storage failure")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ErrInvariantViolation marks ledger state that contradicts the voting
// invariants. It is never masked as a rejection.
var ErrInvariantViolation = errors.New("ledger invariant violated")

// Transient wraps cause so that both errors.Is(err, ErrTransient) and
// errors.Is(err, cause) hold.
func Transient(cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, cause)
}

// InvariantViolation annotates ErrInvariantViolation with a description.
func InvariantViolation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}

func IsRejection(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrPollClosed),
		errors.Is(err, ErrInvalidOption),
		errors.Is(err, ErrDuplicateVote),
		errors.Is(err, ErrNoActiveVote),
		errors.Is(err, ErrInvalidInput):
		return true
	default:
		return false
	}
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrServiceUnavailable)
}

// HTTPStatus maps an error to the status the HTTP layer responds with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateVote),
		errors.Is(err, ErrPollClosed),
		errors.Is(err, ErrNoActiveVote),
		errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidOption):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Code is the machine-readable error code carried in response envelopes.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateVote):
		return "DUPLICATE_VOTE"
	case errors.Is(err, ErrPollClosed):
		return "POLL_CLOSED"
	case errors.Is(err, ErrInvalidOption):
		return "INVALID_OPTION"
	case errors.Is(err, ErrNoActiveVote):
		return "NO_ACTIVE_VOTE"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_REQUEST"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrAlreadyExists):
		return "CONFLICT"
	case errors.Is(err, ErrTransient):
		return "TRANSIENT"
	case errors.Is(err, ErrServiceUnavailable):
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}
