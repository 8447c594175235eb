package budget

import (
	"context"
	"testing"
)

func TestPlanFillsEnvelopesInPriorityOrder(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	envelopes := []Envelope{
		mustEnvelope(test, "env-extra", TierExtra, 500, 0),
		mustEnvelope(test, "env-essential", TierEssential, 600, 0),
		mustEnvelope(test, "env-important", TierImportant, 300, 0),
	}
	input := PlanInput{
		Envelopes:      envelopes,
		Debt:           mustDebt(test, 0, 0),
		AvailableCents: 1000,
		Strategy:       EnvelopesOnlyStrategy(),
	}

	plan, err := engine.Plan(context.Background(), input)
	if err != nil {
		test.Fatalf("plan: %v", err)
	}
	if plan.DebtCents != 0 {
		test.Fatalf("expected no debt payment, got %d", plan.DebtCents)
	}
	if len(plan.Allocations) != 3 {
		test.Fatalf("expected 3 allocations, got %d", len(plan.Allocations))
	}
	expected := []struct {
		envelopeID string
		cents      AmountCents
	}{
		{"env-essential", 600},
		{"env-important", 300},
		{"env-extra", 100},
	}
	for index, want := range expected {
		got := plan.Allocations[index]
		if got.EnvelopeID.String() != want.envelopeID || got.AmountCents != want.cents {
			test.Fatalf("allocation %d: expected %s=%d, got %s=%d", index, want.envelopeID, want.cents, got.EnvelopeID.String(), got.AmountCents)
		}
	}
	if plan.RemainderCents != 0 {
		test.Fatalf("expected zero remainder, got %d", plan.RemainderCents)
	}
}

func TestPlanCreditFirstConsumesBalanceBeforeEnvelopes(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	input := PlanInput{
		Envelopes: []Envelope{
			mustEnvelope(test, "env-1", TierEssential, 600, 0),
		},
		Debt:           mustDebt(test, 2500, 2000),
		AvailableCents: 500,
		Strategy:       CreditFirstStrategy(),
	}

	plan, err := engine.Plan(context.Background(), input)
	if err != nil {
		test.Fatalf("plan: %v", err)
	}
	if plan.DebtCents != 500 {
		test.Fatalf("expected full balance to debt, got %d", plan.DebtCents)
	}
	if len(plan.Allocations) != 0 {
		test.Fatalf("expected no envelope allocations, got %d", len(plan.Allocations))
	}
	if plan.RemainderCents != 0 {
		test.Fatalf("expected zero remainder, got %d", plan.RemainderCents)
	}
}

func TestPlanCreditFirstCapsPaymentAtDebtBalance(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	input := PlanInput{
		Envelopes: []Envelope{
			mustEnvelope(test, "env-1", TierEssential, 600, 0),
		},
		Debt:           mustDebt(test, 400, 400),
		AvailableCents: 1000,
		Strategy:       CreditFirstStrategy(),
	}

	plan, err := engine.Plan(context.Background(), input)
	if err != nil {
		test.Fatalf("plan: %v", err)
	}
	if plan.DebtCents != 400 {
		test.Fatalf("expected debt payment capped at 400, got %d", plan.DebtCents)
	}
	if total := sumAllocations(plan); total != 600 {
		test.Fatalf("expected 600 into envelopes, got %d", total)
	}
}

func TestPlanHybridSplitsBetweenDebtAndEnvelopes(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	input := PlanInput{
		Envelopes: []Envelope{
			mustEnvelope(test, "env-1", TierEssential, 600, 0),
		},
		Debt:           mustDebt(test, 2500, 2000),
		AvailableCents: 500,
		Strategy:       mustHybridStrategy(test, 200),
	}

	plan, err := engine.Plan(context.Background(), input)
	if err != nil {
		test.Fatalf("plan: %v", err)
	}
	if plan.DebtCents != 200 {
		test.Fatalf("expected 200 to debt, got %d", plan.DebtCents)
	}
	if total := sumAllocations(plan); total != 300 {
		test.Fatalf("expected 300 into envelopes, got %d", total)
	}
	if plan.RemainderCents != 0 {
		test.Fatalf("expected zero remainder, got %d", plan.RemainderCents)
	}
}

func TestPlanEmptyEnvelopeListLeavesFullRemainder(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	input := PlanInput{
		Envelopes:      nil,
		Debt:           mustDebt(test, 0, 0),
		AvailableCents: 750,
		Strategy:       EnvelopesOnlyStrategy(),
	}

	plan, err := engine.Plan(context.Background(), input)
	if err != nil {
		test.Fatalf("plan: %v", err)
	}
	if len(plan.Allocations) != 0 {
		test.Fatalf("expected no allocations, got %d", len(plan.Allocations))
	}
	if plan.RemainderCents != 750 {
		test.Fatalf("expected remainder 750, got %d", plan.RemainderCents)
	}
}

func TestPlanNeverAllocatesBeyondFundingGap(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	envelopes := []Envelope{
		mustEnvelope(test, "env-partial", TierEssential, 500, 350),
		mustEnvelope(test, "env-overfunded", TierEssential, 200, 900),
	}
	input := PlanInput{
		Envelopes:      envelopes,
		Debt:           mustDebt(test, 0, 0),
		AvailableCents: 10_000,
		Strategy:       EnvelopesOnlyStrategy(),
	}

	plan, err := engine.Plan(context.Background(), input)
	if err != nil {
		test.Fatalf("plan: %v", err)
	}
	if len(plan.Allocations) != 1 {
		test.Fatalf("expected one allocation, got %d", len(plan.Allocations))
	}
	if plan.Allocations[0].AmountCents != 150 {
		test.Fatalf("expected gap-capped allocation 150, got %d", plan.Allocations[0].AmountCents)
	}
	if plan.RemainderCents != 9850 {
		test.Fatalf("expected remainder 9850, got %d", plan.RemainderCents)
	}
}

func TestPlanPriorityMonotonicity(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	envelopes := []Envelope{
		mustEnvelope(test, "env-extra", TierExtra, 400, 0),
		mustEnvelope(test, "env-essential", TierEssential, 400, 0),
	}
	input := PlanInput{
		Envelopes:      envelopes,
		Debt:           mustDebt(test, 0, 0),
		AvailableCents: 300,
		Strategy:       EnvelopesOnlyStrategy(),
	}

	plan, err := engine.Plan(context.Background(), input)
	if err != nil {
		test.Fatalf("plan: %v", err)
	}
	if len(plan.Allocations) != 1 {
		test.Fatalf("expected only the essential envelope funded, got %d allocations", len(plan.Allocations))
	}
	if plan.Allocations[0].EnvelopeID.String() != "env-essential" {
		test.Fatalf("expected env-essential first, got %s", plan.Allocations[0].EnvelopeID.String())
	}
}

func TestPlanStarterStashRanksBetweenEssentialAndImportant(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	envelopes := []Envelope{
		mustEnvelope(test, "env-important", TierImportant, 300, 0),
		mustGoalEnvelope(test, "env-starter", SuggestionStarterStash, 500, 0),
		mustEnvelope(test, "env-essential", TierEssential, 200, 0),
	}
	input := PlanInput{
		Envelopes:      envelopes,
		Debt:           mustDebt(test, 0, 0),
		AvailableCents: 600,
		Strategy:       EnvelopesOnlyStrategy(),
	}

	plan, err := engine.Plan(context.Background(), input)
	if err != nil {
		test.Fatalf("plan: %v", err)
	}
	if len(plan.Allocations) != 2 {
		test.Fatalf("expected 2 allocations, got %d", len(plan.Allocations))
	}
	if plan.Allocations[0].EnvelopeID.String() != "env-essential" || plan.Allocations[0].AmountCents != 200 {
		test.Fatalf("expected env-essential=200 first, got %s=%d", plan.Allocations[0].EnvelopeID.String(), plan.Allocations[0].AmountCents)
	}
	if plan.Allocations[1].EnvelopeID.String() != "env-starter" || plan.Allocations[1].AmountCents != 400 {
		test.Fatalf("expected env-starter=400 second, got %s=%d", plan.Allocations[1].EnvelopeID.String(), plan.Allocations[1].AmountCents)
	}
}

func TestPlanLockedGoalsReceiveNothingUnderEveryStrategy(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	strategies := []struct {
		name     string
		strategy AllocationStrategy
	}{
		{name: "credit_first", strategy: CreditFirstStrategy()},
		{name: "envelopes_only", strategy: EnvelopesOnlyStrategy()},
		{name: "hybrid", strategy: mustHybridStrategy(test, 100)},
	}
	for _, testCase := range strategies {
		testCase := testCase
		test.Run(testCase.name, func(subtest *testing.T) {
			subtest.Parallel()
			input := PlanInput{
				Envelopes: []Envelope{
					mustGoalEnvelope(subtest, "env-safety", SuggestionSafetyNet, 1000, 0),
					mustGoalEnvelope(subtest, "env-cc", SuggestionCCHolding, 800, 0),
				},
				Debt:           mustDebt(subtest, 900, 900),
				AvailableCents: 5000,
				Strategy:       testCase.strategy,
			}
			plan, err := engine.Plan(context.Background(), input)
			if err != nil {
				subtest.Fatalf("plan: %v", err)
			}
			if len(plan.Allocations) != 0 {
				subtest.Fatalf("expected locked goals to receive nothing, got %d allocations", len(plan.Allocations))
			}
		})
	}
}

func TestPlanConservation(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	inputs := []PlanInput{
		{
			Envelopes: []Envelope{
				mustEnvelope(test, "env-1", TierEssential, 600, 100),
				mustEnvelope(test, "env-2", TierImportant, 300, 0),
				mustGoalEnvelope(test, "env-starter", SuggestionStarterStash, 500, 250),
				mustGoalEnvelope(test, "env-safety", SuggestionSafetyNet, 10_000, 0),
			},
			Debt:           mustDebt(test, 2000, 1500),
			AvailableCents: 1234,
			Strategy:       CreditFirstStrategy(),
		},
		{
			Envelopes: []Envelope{
				mustEnvelope(test, "env-1", TierExtra, 50, 0),
			},
			Debt:           mustDebt(test, 100, 40),
			AvailableCents: 3,
			Strategy:       mustHybridStrategy(test, 1),
		},
		{
			Envelopes:      nil,
			Debt:           mustDebt(test, 0, 0),
			AvailableCents: 0,
			Strategy:       EnvelopesOnlyStrategy(),
		},
	}
	for index, input := range inputs {
		plan, err := engine.Plan(context.Background(), input)
		if err != nil {
			test.Fatalf("plan %d: %v", index, err)
		}
		total := sumAllocations(plan) + plan.DebtCents + plan.RemainderCents
		if total != input.AvailableCents {
			test.Fatalf("plan %d: conservation broken: %d != %d", index, total, input.AvailableCents)
		}
	}
}

func TestPlanIdempotence(test *testing.T) {
	test.Parallel()
	engine := mustEngine(test)
	input := PlanInput{
		Envelopes: []Envelope{
			mustEnvelope(test, "env-1", TierEssential, 600, 100),
			mustEnvelope(test, "env-2", TierImportant, 300, 0),
			mustGoalEnvelope(test, "env-starter", SuggestionStarterStash, 500, 250),
		},
		Debt:           mustDebt(test, 2000, 700),
		AvailableCents: 950,
		Strategy:       mustHybridStrategy(test, 300),
	}

	first, err := engine.Plan(context.Background(), input)
	if err != nil {
		test.Fatalf("first plan: %v", err)
	}
	second, err := engine.Plan(context.Background(), input)
	if err != nil {
		test.Fatalf("second plan: %v", err)
	}
	if first.DebtCents != second.DebtCents || first.RemainderCents != second.RemainderCents {
		test.Fatalf("expected identical plans, got %+v vs %+v", first, second)
	}
	if len(first.Allocations) != len(second.Allocations) {
		test.Fatalf("expected identical allocation counts, got %d vs %d", len(first.Allocations), len(second.Allocations))
	}
	for index := range first.Allocations {
		if first.Allocations[index] != second.Allocations[index] {
			test.Fatalf("allocation %d differs: %+v vs %+v", index, first.Allocations[index], second.Allocations[index])
		}
	}
}

func sumAllocations(plan Plan) AmountCents {
	var total AmountCents
	for _, allocation := range plan.Allocations {
		total += allocation.AmountCents
	}
	return total
}
