package budget

import (
	"context"
	"fmt"
)

// Engine computes allocation plans. It is a pure function of its inputs:
// it holds no mutable state, performs no I/O, and may be re-run arbitrarily
// often against the same snapshot.
type Engine struct {
	essentialsThresholdPercent float64
	logger                     OperationLogger
}

// NewEngine wires an Engine.
func NewEngine(options ...EngineOption) (*Engine, error) {
	engine := &Engine{essentialsThresholdPercent: defaultEssentialsThresholdPercent}
	for _, option := range options {
		if option != nil {
			option(engine)
		}
	}
	if engine.essentialsThresholdPercent <= 0 || engine.essentialsThresholdPercent > fullProgressPercent {
		return nil, fmt.Errorf("%w: essentials threshold out of range", ErrInvalidEngineConfig)
	}
	return engine, nil
}

// Plan computes the full allocation answer for one snapshot: how much of the
// available balance goes to debt, the envelope allocation lines, milestone
// progress, and lock states. Invalid input is rejected before any computation.
func (engine *Engine) Plan(ctx context.Context, input PlanInput) (Plan, error) {
	plan, operationError := engine.plan(input)
	engine.logOperation(ctx, OperationLog{
		Operation:       operationPlan,
		Strategy:        input.Strategy.Kind(),
		AvailableCents:  input.AvailableCents,
		DebtCents:       plan.DebtCents,
		RemainderCents:  plan.RemainderCents,
		AllocationCount: len(plan.Allocations),
		Error:           operationError,
	})
	return plan, operationError
}

func (engine *Engine) plan(input PlanInput) (Plan, error) {
	if err := input.validate(); err != nil {
		return Plan{}, err
	}
	debtCents, err := debtPayment(input)
	if err != nil {
		return Plan{}, err
	}
	pool := input.AvailableCents - debtCents
	allocations, remainder := runWaterfall(input.Envelopes, input.Debt, pool)
	return Plan{
		Allocations:    allocations,
		DebtCents:      debtCents,
		RemainderCents: remainder,
		Progress:       engine.Progress(input.Envelopes),
		Locks:          engine.Locks(input.Envelopes, input.Debt),
	}, nil
}

// debtPayment resolves the debt share of the available balance per strategy.
// A hybrid amount outside [0, min(current_debt, available)] is an input error,
// never silently clamped.
func debtPayment(input PlanInput) (AmountCents, error) {
	switch input.Strategy.Kind() {
	case StrategyEnvelopesOnly:
		return 0, nil
	case StrategyCreditFirst:
		payment := input.Debt.CurrentCents()
		if payment > input.AvailableCents {
			payment = input.AvailableCents
		}
		return payment, nil
	default:
		maxPayment := input.Debt.CurrentCents()
		if maxPayment > input.AvailableCents {
			maxPayment = input.AvailableCents
		}
		if input.Strategy.HybridCents() > maxPayment {
			return 0, fmt.Errorf("%w: exceeds min(current debt, available balance)", ErrInvalidHybridAmount)
		}
		return input.Strategy.HybridCents(), nil
	}
}

// RecommendStrategy is the default surfaced to the strategy chooser: pay the
// card first while debt remains, otherwise fund envelopes. Advisory only.
func (engine *Engine) RecommendStrategy(debt DebtSnapshot) StrategyKind {
	if debt.HasDebt() {
		return StrategyCreditFirst
	}
	return StrategyEnvelopesOnly
}

func (engine *Engine) logOperation(ctx context.Context, entry OperationLog) {
	if engine.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	engine.logger.LogOperation(ctx, entry)
}
