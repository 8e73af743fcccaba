package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	livepoll_errors "livepoll/pkg/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeStringTooLong        = "22001"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
	codeAdminShutdown        = "57P01"
	codeCannotConnectNow     = "57P03"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeForeignKeyViolation
	}
	return false
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeCheckViolation
	}
	return false
}

func isStringTooLong(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeStringTooLong
	}
	return false
}

// isTransient reports lock waits, serialization conflicts, timeouts and lost
// connections. Class 08 is connection exceptions.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable,
			codeQueryCanceled, codeAdminShutdown, codeCannotConnectNow:
			return true
		}
		return len(pgErr.Code) == 5 && pgErr.Code[:2] == "08"
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// classify leaves domain errors untouched and tags infrastructure faults that
// a caller may retry.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if livepoll_errors.IsRejection(err) || errors.Is(err, livepoll_errors.ErrInvariantViolation) || livepoll_errors.IsTransient(err) {
		return err
	}
	if isTransient(err) {
		return livepoll_errors.Transient(err)
	}
	if isStringTooLong(err) {
		return fmt.Errorf("%w: %w", livepoll_errors.ErrInvalidInput, err)
	}
	return err
}
