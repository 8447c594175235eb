package budget

import "context"

// EngineOption configures an Engine instance.
type EngineOption func(*Engine)

// OperationLogger records domain-level events emitted by Engine operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes one plan computation.
type OperationLog struct {
	Operation       string
	Strategy        StrategyKind
	AvailableCents  AmountCents
	DebtCents       AmountCents
	RemainderCents  AmountCents
	AllocationCount int
	Status          string
	Error           error
}

// WithOperationLogger wires a logger that receives callbacks for every plan.
func WithOperationLogger(logger OperationLogger) EngineOption {
	return func(engine *Engine) {
		engine.logger = logger
	}
}

// WithEssentialsThreshold overrides the aggregate essential-tier progress (in
// percent) below which the essentials milestone is reported underfunded.
func WithEssentialsThreshold(percent float64) EngineOption {
	return func(engine *Engine) {
		engine.essentialsThresholdPercent = percent
	}
}
