package services

import (
	"context"
	"errors"

	livepoll_errors "livepoll/pkg/errors"
	"livepoll/pkg/logger"

	"go.uber.org/zap"
)

// report logs a failed operation at a level matching its class: rejections
// are expected traffic, transient faults are retried by clients, and an
// invariant violation means the ledger itself is wrong.
func report(ctx context.Context, l *logger.Logger, op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	switch {
	case errors.Is(err, livepoll_errors.ErrInvariantViolation):
		l.Error(ctx, "ledger_invariant_violation", fields...)
	case livepoll_errors.IsTransient(err):
		l.Warn(ctx, "ledger_transient_failure", fields...)
	case livepoll_errors.IsRejection(err):
		l.Info(ctx, op+"_rejected", fields...)
	default:
		l.Error(ctx, op+"_failed", fields...)
	}
}

func orNop(l *logger.Logger) *logger.Logger {
	if l == nil {
		return logger.NewNop()
	}
	return l
}
