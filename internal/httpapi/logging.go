package httpapi

import (
	"context"

	"go.uber.org/zap"

	"github.com/thebudgetway/budgetway/pkg/budget"
)

// ZapOperationLogger forwards engine operation logs to a zap logger.
type ZapOperationLogger struct {
	logger *zap.Logger
}

// NewZapOperationLogger wraps a zap logger as a budget.OperationLogger.
func NewZapOperationLogger(logger *zap.Logger) *ZapOperationLogger {
	return &ZapOperationLogger{logger: logger}
}

// LogOperation records one plan computation.
func (adapter *ZapOperationLogger) LogOperation(_ context.Context, entry budget.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("strategy", entry.Strategy.String()),
		zap.Int64("available_cents", entry.AvailableCents.Int64()),
		zap.Int64("debt_cents", entry.DebtCents.Int64()),
		zap.Int64("remainder_cents", entry.RemainderCents.Int64()),
		zap.Int("allocation_count", entry.AllocationCount),
		zap.String("status", entry.Status),
	}
	if entry.Error != nil {
		adapter.logger.Warn("plan failed", append(fields, zap.Error(entry.Error))...)
		return
	}
	adapter.logger.Info("plan computed", fields...)
}
