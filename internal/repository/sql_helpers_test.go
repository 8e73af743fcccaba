package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	livepoll_errors "livepoll/pkg/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	pg := func(code string) error {
		return fmt.Errorf("exec: %w", &pgconn.PgError{Code: code})
	}

	cases := []struct {
		name      string
		err       error
		transient bool
	}{
		{"lock timeout", pg(codeLockNotAvailable), true},
		{"serialization", pg(codeSerializationFailure), true},
		{"deadlock", pg(codeDeadlockDetected), true},
		{"connection failure", pg("08006"), true},
		{"deadline", context.DeadlineExceeded, true},
		{"syntax error", pg("42601"), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.err)
			assert.Equal(t, tc.transient, errors.Is(got, livepoll_errors.ErrTransient))
			assert.ErrorIs(t, got, tc.err)
		})
	}
}

func TestClassifyKeepsDomainErrors(t *testing.T) {
	assert.Nil(t, classify(nil))
	assert.Equal(t, livepoll_errors.ErrDuplicateVote, classify(livepoll_errors.ErrDuplicateVote))

	violation := livepoll_errors.InvariantViolation("two active votes")
	assert.Equal(t, violation, classify(violation))

	transient := livepoll_errors.Transient(context.Canceled)
	assert.Equal(t, transient, classify(transient))
}

func TestClassifyValueTooLongIsInvalidInput(t *testing.T) {
	cause := fmt.Errorf("insert: %w", &pgconn.PgError{Code: codeStringTooLong})

	got := classify(cause)
	assert.ErrorIs(t, got, livepoll_errors.ErrInvalidInput)
	assert.ErrorIs(t, got, cause)
	assert.False(t, livepoll_errors.IsTransient(got))
	assert.Equal(t, 400, livepoll_errors.HTTPStatus(got))
}

func TestConstraintHelpers(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: codeUniqueViolation}))
	assert.True(t, isForeignKeyViolation(&pgconn.PgError{Code: codeForeignKeyViolation}))
	assert.True(t, isCheckViolation(&pgconn.PgError{Code: codeCheckViolation}))
	assert.True(t, isStringTooLong(&pgconn.PgError{Code: codeStringTooLong}))
	assert.False(t, isUniqueViolation(errors.New("duplicate")))
}
