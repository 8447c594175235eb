package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/thebudgetway/budgetway/pkg/budget"
)

const (
	defaultListRunsLimit = 50
	maxListRunsLimit     = 200
)

// Service orchestrates the pure engine over a Store: it loads a snapshot,
// runs the engine, and applies the resulting plan atomically.
type Service struct {
	store  Store
	engine *budget.Engine
	nowFn  func() int64
}

// NewService wires a Service.
func NewService(store Store, engine *budget.Engine, now func() int64) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: engine dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	return &Service{store: store, engine: engine, nowFn: now}, nil
}

// Journey reports milestone progress, lock states, and the recommended
// strategy for a budget.
type Journey struct {
	Progress    budget.MilestoneProgress
	Locks       []budget.GoalLock
	Recommended budget.StrategyKind
	Debt        budget.DebtSnapshot
}

// Journey derives the journey view from the stored snapshot.
func (service *Service) Journey(ctx context.Context, budgetID string) (Journey, error) {
	normalizedBudgetID, err := normalizeBudgetID(budgetID)
	if err != nil {
		return Journey{}, err
	}
	snapshot, err := service.loadSnapshot(ctx, service.store, normalizedBudgetID)
	if err != nil {
		return Journey{}, err
	}
	return Journey{
		Progress:    service.engine.Progress(snapshot.envelopes),
		Locks:       service.engine.Locks(snapshot.envelopes, snapshot.debt),
		Recommended: service.engine.RecommendStrategy(snapshot.debt),
		Debt:        snapshot.debt,
	}, nil
}

// Preview computes a plan against the stored snapshot without persisting it.
func (service *Service) Preview(ctx context.Context, budgetID string, availableCentsRaw int64, strategy budget.AllocationStrategy) (budget.Plan, error) {
	normalizedBudgetID, err := normalizeBudgetID(budgetID)
	if err != nil {
		return budget.Plan{}, err
	}
	availableCents, err := budget.NewAmountCents(availableCentsRaw)
	if err != nil {
		return budget.Plan{}, err
	}
	snapshot, err := service.loadSnapshot(ctx, service.store, normalizedBudgetID)
	if err != nil {
		return budget.Plan{}, err
	}
	return service.engine.Plan(ctx, budget.PlanInput{
		Envelopes:      snapshot.envelopes,
		Debt:           snapshot.debt,
		AvailableCents: availableCents,
		Strategy:       strategy,
	})
}

// Apply computes a plan against the stored snapshot and persists it inside
// one transaction: every envelope credit, the debt payment, and the audit run
// commit together or not at all. Writes are guarded by the versions captured
// when the snapshot was read, so a concurrent balance change aborts the whole
// apply with ErrStaleSnapshot instead of double-allocating funds.
func (service *Service) Apply(ctx context.Context, budgetID string, availableCentsRaw int64, strategy budget.AllocationStrategy) (AllocationRun, budget.Plan, error) {
	normalizedBudgetID, err := normalizeBudgetID(budgetID)
	if err != nil {
		return AllocationRun{}, budget.Plan{}, err
	}
	availableCents, err := budget.NewAmountCents(availableCentsRaw)
	if err != nil {
		return AllocationRun{}, budget.Plan{}, err
	}

	var run AllocationRun
	var plan budget.Plan
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		snapshot, err := service.loadSnapshot(ctx, txStore, normalizedBudgetID)
		if err != nil {
			return err
		}
		plan, err = service.engine.Plan(ctx, budget.PlanInput{
			Envelopes:      snapshot.envelopes,
			Debt:           snapshot.debt,
			AvailableCents: availableCents,
			Strategy:       strategy,
		})
		if err != nil {
			return err
		}
		for _, allocation := range plan.Allocations {
			envelopeID := allocation.EnvelopeID.String()
			if err := txStore.AddToEnvelopeBalance(ctx, normalizedBudgetID, envelopeID, allocation.AmountCents.Int64(), snapshot.envelopeVersions[envelopeID]); err != nil {
				return err
			}
		}
		if plan.DebtCents > 0 {
			if err := txStore.ReduceDebt(ctx, normalizedBudgetID, plan.DebtCents.Int64(), snapshot.debtVersion); err != nil {
				return err
			}
		}
		linesJSON, err := marshalRunLines(plan.Allocations)
		if err != nil {
			return err
		}
		run = AllocationRun{
			RunID:          uuid.NewString(),
			BudgetID:       normalizedBudgetID,
			Strategy:       strategy.Kind().String(),
			AvailableCents: availableCents.Int64(),
			DebtCents:      plan.DebtCents.Int64(),
			RemainderCents: plan.RemainderCents.Int64(),
			LinesJSON:      linesJSON,
			CreatedUnixUTC: service.nowFn(),
		}
		return txStore.InsertRun(ctx, run)
	})
	if operationError != nil {
		return AllocationRun{}, budget.Plan{}, operationError
	}
	return run, plan, nil
}

// ListRuns lists applied allocation runs for a budget before a cutoff time.
func (service *Service) ListRuns(ctx context.Context, budgetID string, beforeUnixUTC int64, limit int) ([]AllocationRun, error) {
	normalizedBudgetID, err := normalizeBudgetID(budgetID)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = defaultListRunsLimit
	}
	if limit < 0 || limit > maxListRunsLimit {
		return nil, fmt.Errorf("%w: %d", ErrInvalidListLimit, limit)
	}
	return service.store.ListRuns(ctx, normalizedBudgetID, beforeUnixUTC, limit)
}

type storedSnapshot struct {
	envelopes        []budget.Envelope
	debt             budget.DebtSnapshot
	envelopeVersions map[string]int64
	debtVersion      int64
}

func (service *Service) loadSnapshot(ctx context.Context, store Store, budgetID string) (storedSnapshot, error) {
	records, err := store.ListEnvelopes(ctx, budgetID)
	if err != nil {
		return storedSnapshot{}, err
	}
	snapshot := storedSnapshot{
		envelopes:        make([]budget.Envelope, 0, len(records)),
		envelopeVersions: make(map[string]int64, len(records)),
	}
	for _, record := range records {
		envelope, err := recordToEnvelope(record)
		if err != nil {
			return storedSnapshot{}, err
		}
		snapshot.envelopes = append(snapshot.envelopes, envelope)
		snapshot.envelopeVersions[record.EnvelopeID] = record.Version
	}

	debtRecord, err := store.GetDebt(ctx, budgetID)
	if err != nil {
		// A budget with no debt row has never tracked debt.
		if errors.Is(err, ErrUnknownDebt) {
			snapshot.debt = budget.DebtSnapshot{}
			return snapshot, nil
		}
		return storedSnapshot{}, err
	}
	debt, err := budget.NewDebtSnapshot(
		budget.AmountCents(debtRecord.StartingCents),
		budget.AmountCents(debtRecord.CurrentCents),
		debtRecord.ActiveDebtName,
		budget.AmountCents(debtRecord.ActiveDebtCents),
	)
	if err != nil {
		return storedSnapshot{}, err
	}
	snapshot.debt = debt
	snapshot.debtVersion = debtRecord.Version
	return snapshot, nil
}

func recordToEnvelope(record EnvelopeRecord) (budget.Envelope, error) {
	id, err := budget.NewEnvelopeID(record.EnvelopeID)
	if err != nil {
		return budget.Envelope{}, err
	}
	suggestion, err := budget.ParseSuggestionType(record.Suggestion)
	if err != nil {
		return budget.Envelope{}, err
	}
	if suggestion != budget.SuggestionNone {
		return budget.NewGoalEnvelope(id, record.Name, record.Icon, budget.AmountCents(record.TargetCents), budget.AmountCents(record.CurrentCents), suggestion)
	}
	tier, err := budget.ParsePriorityTier(record.Tier)
	if err != nil {
		return budget.Envelope{}, err
	}
	return budget.NewEnvelope(id, record.Name, record.Icon, budget.AmountCents(record.TargetCents), budget.AmountCents(record.CurrentCents), tier)
}

func marshalRunLines(allocations []budget.Allocation) (string, error) {
	lines := make([]RunLine, 0, len(allocations))
	for _, allocation := range allocations {
		lines = append(lines, RunLine{
			EnvelopeID:  allocation.EnvelopeID.String(),
			AmountCents: allocation.AmountCents.Int64(),
		})
	}
	encoded, err := json.Marshal(lines)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func normalizeBudgetID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidBudgetID)
	}
	return trimmed, nil
}
