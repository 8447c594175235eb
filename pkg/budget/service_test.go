package budget

import (
	"context"
	"errors"
	"testing"
)

func TestPlanRejectsNegativeAvailableBalance(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	input := PlanInput{
		Envelopes:      []Envelope{mustEnvelope(test, "env-1", TierEssential, 100, 0)},
		Debt:           mustDebt(test, 0, 0),
		AvailableCents: -1,
		Strategy:       EnvelopesOnlyStrategy(),
	}

	_, err := engine.Plan(context.Background(), input)
	if !errors.Is(err, ErrInvalidAmountCents) {
		test.Fatalf("expected ErrInvalidAmountCents, got %v", err)
	}
}

func TestPlanRejectsUnknownStrategy(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	input := PlanInput{
		Envelopes:      nil,
		Debt:           mustDebt(test, 0, 0),
		AvailableCents: 100,
		Strategy:       AllocationStrategy{kind: StrategyKind("pay_later")},
	}

	_, err := engine.Plan(context.Background(), input)
	if !errors.Is(err, ErrInvalidStrategyKind) {
		test.Fatalf("expected ErrInvalidStrategyKind, got %v", err)
	}
}

func TestPlanRejectsHybridAmountAboveDebt(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	input := PlanInput{
		Envelopes:      nil,
		Debt:           mustDebt(test, 500, 100),
		AvailableCents: 1000,
		Strategy:       mustHybridStrategy(test, 200),
	}

	_, err := engine.Plan(context.Background(), input)
	if !errors.Is(err, ErrInvalidHybridAmount) {
		test.Fatalf("expected ErrInvalidHybridAmount, got %v", err)
	}
}

func TestPlanRejectsHybridAmountAboveBalance(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	input := PlanInput{
		Envelopes:      nil,
		Debt:           mustDebt(test, 2000, 2000),
		AvailableCents: 150,
		Strategy:       mustHybridStrategy(test, 200),
	}

	_, err := engine.Plan(context.Background(), input)
	if !errors.Is(err, ErrInvalidHybridAmount) {
		test.Fatalf("expected ErrInvalidHybridAmount, got %v", err)
	}
}

func TestPlanHybridAtExactCapSucceeds(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	input := PlanInput{
		Envelopes:      nil,
		Debt:           mustDebt(test, 2000, 2000),
		AvailableCents: 150,
		Strategy:       mustHybridStrategy(test, 150),
	}

	plan, err := engine.Plan(context.Background(), input)
	if err != nil {
		test.Fatalf("plan: %v", err)
	}
	if plan.DebtCents != 150 || plan.RemainderCents != 0 {
		test.Fatalf("expected full balance to debt, got debt=%d remainder=%d", plan.DebtCents, plan.RemainderCents)
	}
}

func TestRecommendStrategyFollowsDebt(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	if got := engine.RecommendStrategy(mustDebt(test, 900, 900)); got != StrategyCreditFirst {
		test.Fatalf("expected credit_first while debt remains, got %s", got)
	}
	if got := engine.RecommendStrategy(mustDebt(test, 900, 0)); got != StrategyEnvelopesOnly {
		test.Fatalf("expected envelopes_only once cleared, got %s", got)
	}
}

func TestNewEngineRejectsBadThreshold(test *testing.T) {
	test.Parallel()
	_, err := NewEngine(WithEssentialsThreshold(0))
	if !errors.Is(err, ErrInvalidEngineConfig) {
		test.Fatalf("expected ErrInvalidEngineConfig, got %v", err)
	}
	_, err = NewEngine(WithEssentialsThreshold(101))
	if !errors.Is(err, ErrInvalidEngineConfig) {
		test.Fatalf("expected ErrInvalidEngineConfig, got %v", err)
	}
}

func mustEngine(test testing.TB, options ...EngineOption) *Engine {
	test.Helper()
	engine, err := NewEngine(options...)
	if err != nil {
		test.Fatalf("engine init failed: %v", err)
	}
	return engine
}

func mustEnvelopeID(test testing.TB, raw string) EnvelopeID {
	test.Helper()
	id, err := NewEnvelopeID(raw)
	if err != nil {
		test.Fatalf("envelope id %q: %v", raw, err)
	}
	return id
}

func mustEnvelope(test testing.TB, id string, tier PriorityTier, targetCents int64, currentCents int64) Envelope {
	test.Helper()
	envelope, err := NewEnvelope(mustEnvelopeID(test, id), id, "", AmountCents(targetCents), AmountCents(currentCents), tier)
	if err != nil {
		test.Fatalf("envelope %q: %v", id, err)
	}
	return envelope
}

func mustGoalEnvelope(test testing.TB, id string, suggestion SuggestionType, targetCents int64, currentCents int64) Envelope {
	test.Helper()
	envelope, err := NewGoalEnvelope(mustEnvelopeID(test, id), id, "", AmountCents(targetCents), AmountCents(currentCents), suggestion)
	if err != nil {
		test.Fatalf("goal envelope %q: %v", id, err)
	}
	return envelope
}

func mustDebt(test testing.TB, startingCents int64, currentCents int64) DebtSnapshot {
	test.Helper()
	debt, err := NewDebtSnapshot(AmountCents(startingCents), AmountCents(currentCents), "", 0)
	if err != nil {
		test.Fatalf("debt snapshot: %v", err)
	}
	return debt
}

func mustHybridStrategy(test testing.TB, hybridCents int64) AllocationStrategy {
	test.Helper()
	strategy, err := NewHybridStrategy(AmountCents(hybridCents))
	if err != nil {
		test.Fatalf("hybrid strategy: %v", err)
	}
	return strategy
}
