package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PendingCleanup returns a job that removes pending registrations which
// expired longer than the retention ago
func PendingCleanup(r *Registrations, timeout time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		n, err := r.Sweep(ctx)
		if err != nil {
			zap.L().Error("Failed to sweep pending registrations", zap.Error(err))
			return
		}

		if n > 0 {
			zap.L().Debug("Swept expired pending registrations", zap.Int64("count", n))
		}
	}
}
