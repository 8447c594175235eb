package planner

import (
	"context"

	"github.com/google/uuid"
	"github.com/thebudgetway/budgetway/pkg/budget"
)

// ListEnvelopes returns every envelope of a budget in creation order.
func (service *Service) ListEnvelopes(ctx context.Context, budgetID string) ([]EnvelopeRecord, error) {
	normalizedBudgetID, err := normalizeBudgetID(budgetID)
	if err != nil {
		return nil, err
	}
	return service.store.ListEnvelopes(ctx, normalizedBudgetID)
}

// CreateEnvelope validates and stores a new envelope.
func (service *Service) CreateEnvelope(ctx context.Context, budgetID string, params EnvelopeParams) (EnvelopeRecord, error) {
	normalizedBudgetID, err := normalizeBudgetID(budgetID)
	if err != nil {
		return EnvelopeRecord{}, err
	}
	record := EnvelopeRecord{
		EnvelopeID:          uuid.NewString(),
		BudgetID:            normalizedBudgetID,
		Name:                params.Name,
		Icon:                params.Icon,
		TargetCents:         params.TargetCents,
		CurrentCents:        params.CurrentCents,
		Suggestion:          normalizeSuggestion(params.Suggestion),
		Tier:                params.Tier,
		Dismissed:           params.Dismissed,
		SnoozedUntilUnixUTC: params.SnoozedUntilUnixUTC,
		Version:             1,
		CreatedUnixUTC:      service.nowFn(),
	}
	if _, err := recordToEnvelope(record); err != nil {
		return EnvelopeRecord{}, err
	}
	if err := service.store.InsertEnvelope(ctx, record); err != nil {
		return EnvelopeRecord{}, err
	}
	return record, nil
}

// UpdateEnvelope validates and stores new envelope fields, guarded by the
// version read inside the same transaction.
func (service *Service) UpdateEnvelope(ctx context.Context, budgetID string, envelopeID string, params EnvelopeParams) (EnvelopeRecord, error) {
	normalizedBudgetID, err := normalizeBudgetID(budgetID)
	if err != nil {
		return EnvelopeRecord{}, err
	}
	var updated EnvelopeRecord
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		record, err := txStore.GetEnvelope(ctx, normalizedBudgetID, envelopeID)
		if err != nil {
			return err
		}
		record.Name = params.Name
		record.Icon = params.Icon
		record.TargetCents = params.TargetCents
		record.CurrentCents = params.CurrentCents
		record.Suggestion = normalizeSuggestion(params.Suggestion)
		record.Tier = params.Tier
		record.Dismissed = params.Dismissed
		record.SnoozedUntilUnixUTC = params.SnoozedUntilUnixUTC
		if _, err := recordToEnvelope(record); err != nil {
			return err
		}
		if err := txStore.UpdateEnvelope(ctx, record); err != nil {
			return err
		}
		record.Version++
		updated = record
		return nil
	})
	if operationError != nil {
		return EnvelopeRecord{}, operationError
	}
	return updated, nil
}

// DeleteEnvelope removes an envelope.
func (service *Service) DeleteEnvelope(ctx context.Context, budgetID string, envelopeID string) error {
	normalizedBudgetID, err := normalizeBudgetID(budgetID)
	if err != nil {
		return err
	}
	return service.store.DeleteEnvelope(ctx, normalizedBudgetID, envelopeID)
}

// GetDebt returns the stored debt snapshot.
func (service *Service) GetDebt(ctx context.Context, budgetID string) (DebtRecord, error) {
	normalizedBudgetID, err := normalizeBudgetID(budgetID)
	if err != nil {
		return DebtRecord{}, err
	}
	return service.store.GetDebt(ctx, normalizedBudgetID)
}

// SetDebt validates and upserts the debt snapshot of a budget.
func (service *Service) SetDebt(ctx context.Context, budgetID string, params DebtParams) (DebtRecord, error) {
	normalizedBudgetID, err := normalizeBudgetID(budgetID)
	if err != nil {
		return DebtRecord{}, err
	}
	if _, err := budget.NewDebtSnapshot(
		budget.AmountCents(params.StartingCents),
		budget.AmountCents(params.CurrentCents),
		params.ActiveDebtName,
		budget.AmountCents(params.ActiveDebtCents),
	); err != nil {
		return DebtRecord{}, err
	}
	record := DebtRecord{
		BudgetID:        normalizedBudgetID,
		StartingCents:   params.StartingCents,
		CurrentCents:    params.CurrentCents,
		ActiveDebtName:  params.ActiveDebtName,
		ActiveDebtCents: params.ActiveDebtCents,
	}
	if err := service.store.UpsertDebt(ctx, record); err != nil {
		return DebtRecord{}, err
	}
	return service.store.GetDebt(ctx, normalizedBudgetID)
}

// normalizeSuggestion defaults a blank stored tag to "none" so records
// created before suggestion tracking keep validating.
func normalizeSuggestion(raw string) string {
	if raw == "" {
		return budget.SuggestionNone.String()
	}
	return raw
}
