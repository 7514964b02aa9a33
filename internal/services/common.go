package services

import (
	"context"

	"github.com/nimasrn/collections-ledger/pkg/logger"
)

// Transactor runs fn in one store transaction; repositories called with the
// ctx passed to fn take part in it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// logFailure records a failed operation. Client errors are routine and only
// logged at debug level.
func logFailure(op string, err error, keysAndValues ...any) {
	fields := append([]any{"op", op, "error", err}, keysAndValues...)
	if IsValidation(err) || IsNotFound(err) || IsConflict(err) {
		logger.Debug("operation rejected", fields...)
		return
	}
	logger.Error("operation failed", fields...)
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
