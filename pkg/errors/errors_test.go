package livepoll_errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransientKeepsCause(t *testing.T) {
	err := Transient(context.DeadlineExceeded)

	assert.True(t, errors.Is(err, ErrTransient))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, IsTransient(err))
	assert.False(t, IsRejection(err))
	assert.Nil(t, Transient(nil))
}

func TestRejectionsAreNotTransient(t *testing.T) {
	for _, err := range []error{ErrNotFound, ErrPollClosed, ErrInvalidOption, ErrDuplicateVote, ErrNoActiveVote} {
		wrapped := fmt.Errorf("cast: %w", err)
		assert.True(t, IsRejection(wrapped), err.Error())
		assert.False(t, IsTransient(wrapped), err.Error())
	}
}

func TestInvariantViolationIsNeitherRejectionNorTransient(t *testing.T) {
	err := InvariantViolation("poll %s has %d active votes for %s", "p", 2, "10.0.0.1")

	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.False(t, IsRejection(err))
	assert.False(t, IsTransient(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
	assert.Equal(t, "INTERNAL_ERROR", Code(err))
}

func TestHTTPStatusAndCode(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{ErrDuplicateVote, http.StatusConflict, "DUPLICATE_VOTE"},
		{ErrPollClosed, http.StatusConflict, "POLL_CLOSED"},
		{ErrInvalidOption, http.StatusUnprocessableEntity, "INVALID_OPTION"},
		{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{ErrNoActiveVote, http.StatusConflict, "NO_ACTIVE_VOTE"},
		{ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{Transient(errors.New("lock timeout")), http.StatusServiceUnavailable, "TRANSIENT"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, HTTPStatus(tc.err), tc.code)
		assert.Equal(t, tc.code, Code(tc.err))
	}
}
