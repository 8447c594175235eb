package budget

import (
	"fmt"
	"strings"
)

// AmountCents is an integer currency amount in cents.
type AmountCents int64

// NewAmountCents validates a non-negative amount.
func NewAmountCents(raw int64) (AmountCents, error) {
	if raw < 0 {
		return 0, fmt.Errorf("%w: must not be negative", ErrInvalidAmountCents)
	}
	return AmountCents(raw), nil
}

// Int64 returns the raw cent value.
func (amount AmountCents) Int64() int64 {
	return int64(amount)
}

// EnvelopeID identifies an envelope.
type EnvelopeID struct {
	value string
}

// NewEnvelopeID validates and normalizes an envelope id.
func NewEnvelopeID(raw string) (EnvelopeID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return EnvelopeID{}, fmt.Errorf("%w: empty value", ErrInvalidEnvelopeID)
	}
	return EnvelopeID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id EnvelopeID) String() string {
	return id.value
}

// SuggestionType marks an envelope as one of the suggested journey goals.
type SuggestionType string

const (
	SuggestionNone         SuggestionType = "none"
	SuggestionStarterStash SuggestionType = "starter_stash"
	SuggestionSafetyNet    SuggestionType = "safety_net"
	SuggestionCCHolding    SuggestionType = "cc_holding"
)

// ParseSuggestionType validates a stored suggestion tag.
func ParseSuggestionType(raw string) (SuggestionType, error) {
	switch SuggestionType(raw) {
	case SuggestionNone, SuggestionStarterStash, SuggestionSafetyNet, SuggestionCCHolding:
		return SuggestionType(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSuggestionType, raw)
}

// String returns the stored tag.
func (suggestion SuggestionType) String() string {
	return string(suggestion)
}

// PriorityTier orders ordinary spending envelopes.
type PriorityTier string

const (
	TierEssential PriorityTier = "essential"
	TierImportant PriorityTier = "important"
	TierExtra     PriorityTier = "extra"
)

// ParsePriorityTier validates a stored tier tag.
func ParsePriorityTier(raw string) (PriorityTier, error) {
	switch PriorityTier(raw) {
	case TierEssential, TierImportant, TierExtra:
		return PriorityTier(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriorityTier, raw)
}

// String returns the stored tag.
func (tier PriorityTier) String() string {
	return string(tier)
}

// Envelope is a named money bucket with a funding target.
type Envelope struct {
	id           EnvelopeID
	name         string
	icon         string
	targetCents  AmountCents
	currentCents AmountCents
	suggestion   SuggestionType
	tier         PriorityTier
}

// NewEnvelope builds an ordinary spending envelope.
func NewEnvelope(id EnvelopeID, name string, icon string, targetCents AmountCents, currentCents AmountCents, tier PriorityTier) (Envelope, error) {
	envelope := Envelope{
		id:           id,
		name:         strings.TrimSpace(name),
		icon:         strings.TrimSpace(icon),
		targetCents:  targetCents,
		currentCents: currentCents,
		suggestion:   SuggestionNone,
		tier:         tier,
	}
	if err := envelope.validate(); err != nil {
		return Envelope{}, err
	}
	if _, err := ParsePriorityTier(tier.String()); err != nil {
		return Envelope{}, err
	}
	return envelope, nil
}

// NewGoalEnvelope builds a suggested journey-goal envelope. Goal envelopes
// are ordered by their suggestion type, not by a priority tier.
func NewGoalEnvelope(id EnvelopeID, name string, icon string, targetCents AmountCents, currentCents AmountCents, suggestion SuggestionType) (Envelope, error) {
	if suggestion == SuggestionNone {
		return Envelope{}, fmt.Errorf("%w: goal envelope requires a suggestion", ErrInvalidSuggestionType)
	}
	if _, err := ParseSuggestionType(suggestion.String()); err != nil {
		return Envelope{}, err
	}
	envelope := Envelope{
		id:           id,
		name:         strings.TrimSpace(name),
		icon:         strings.TrimSpace(icon),
		targetCents:  targetCents,
		currentCents: currentCents,
		suggestion:   suggestion,
	}
	if err := envelope.validate(); err != nil {
		return Envelope{}, err
	}
	return envelope, nil
}

func (envelope Envelope) validate() error {
	if envelope.id.value == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidEnvelopeID)
	}
	if envelope.name == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidEnvelopeName)
	}
	if envelope.targetCents < 0 {
		return fmt.Errorf("%w: negative target", ErrInvalidAmountCents)
	}
	if envelope.currentCents < 0 {
		return fmt.Errorf("%w: negative balance", ErrInvalidAmountCents)
	}
	return nil
}

// ID returns the envelope identifier.
func (envelope Envelope) ID() EnvelopeID {
	return envelope.id
}

// Name returns the display name.
func (envelope Envelope) Name() string {
	return envelope.name
}

// Icon returns the display icon.
func (envelope Envelope) Icon() string {
	return envelope.icon
}

// TargetCents returns the funding target.
func (envelope Envelope) TargetCents() AmountCents {
	return envelope.targetCents
}

// CurrentCents returns the current balance.
func (envelope Envelope) CurrentCents() AmountCents {
	return envelope.currentCents
}

// Suggestion returns the suggestion tag (SuggestionNone for ordinary envelopes).
func (envelope Envelope) Suggestion() SuggestionType {
	return envelope.suggestion
}

// Tier returns the priority tier of an ordinary envelope.
func (envelope Envelope) Tier() PriorityTier {
	return envelope.tier
}

// FundingGapCents returns how much the envelope still needs. Over-funded
// envelopes report a zero gap, never a negative one.
func (envelope Envelope) FundingGapCents() AmountCents {
	gap := envelope.targetCents - envelope.currentCents
	if gap < 0 {
		return 0
	}
	return gap
}

// ProgressPercent returns funding progress clamped to [0,100]. A zero-target
// envelope has nothing left to fund and reports full progress.
func (envelope Envelope) ProgressPercent() float64 {
	if envelope.targetCents <= 0 {
		return fullProgressPercent
	}
	percent := float64(envelope.currentCents) / float64(envelope.targetCents) * fullProgressPercent
	if percent > fullProgressPercent {
		return fullProgressPercent
	}
	if percent < 0 {
		return 0
	}
	return percent
}

// DebtSnapshot captures revolving-debt balances at plan time.
type DebtSnapshot struct {
	startingCents   AmountCents
	currentCents    AmountCents
	activeDebtName  string
	activeDebtCents AmountCents
}

// NewDebtSnapshot validates a debt snapshot. activeDebtName and
// activeDebtCents describe the currently-targeted liability and may be empty.
func NewDebtSnapshot(startingCents AmountCents, currentCents AmountCents, activeDebtName string, activeDebtCents AmountCents) (DebtSnapshot, error) {
	if startingCents < 0 || currentCents < 0 || activeDebtCents < 0 {
		return DebtSnapshot{}, fmt.Errorf("%w: negative balance", ErrInvalidDebtSnapshot)
	}
	return DebtSnapshot{
		startingCents:   startingCents,
		currentCents:    currentCents,
		activeDebtName:  strings.TrimSpace(activeDebtName),
		activeDebtCents: activeDebtCents,
	}, nil
}

// StartingCents returns the balance recorded when the payoff milestone began.
func (debt DebtSnapshot) StartingCents() AmountCents {
	return debt.startingCents
}

// CurrentCents returns the outstanding balance.
func (debt DebtSnapshot) CurrentCents() AmountCents {
	return debt.currentCents
}

// ActiveDebtName returns the name of the currently-targeted liability.
func (debt DebtSnapshot) ActiveDebtName() string {
	return debt.activeDebtName
}

// ActiveDebtCents returns the balance of the currently-targeted liability.
func (debt DebtSnapshot) ActiveDebtCents() AmountCents {
	return debt.activeDebtCents
}

// HasDebt reports whether any revolving debt remains.
func (debt DebtSnapshot) HasDebt() bool {
	return debt.currentCents > 0
}

// StrategyKind enumerates the allocation strategies.
type StrategyKind string

const (
	StrategyCreditFirst   StrategyKind = "credit_first"
	StrategyEnvelopesOnly StrategyKind = "envelopes_only"
	StrategyHybrid        StrategyKind = "hybrid"
)

// ParseStrategyKind validates a stored strategy tag.
func ParseStrategyKind(raw string) (StrategyKind, error) {
	switch StrategyKind(raw) {
	case StrategyCreditFirst, StrategyEnvelopesOnly, StrategyHybrid:
		return StrategyKind(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStrategyKind, raw)
}

// String returns the stored tag.
func (kind StrategyKind) String() string {
	return string(kind)
}

// AllocationStrategy selects how new money splits between debt and envelopes.
type AllocationStrategy struct {
	kind        StrategyKind
	hybridCents AmountCents
}

// CreditFirstStrategy pays the full debt balance before funding envelopes.
func CreditFirstStrategy() AllocationStrategy {
	return AllocationStrategy{kind: StrategyCreditFirst}
}

// EnvelopesOnlyStrategy sends nothing to debt.
func EnvelopesOnlyStrategy() AllocationStrategy {
	return AllocationStrategy{kind: StrategyEnvelopesOnly}
}

// NewHybridStrategy sends a fixed amount to debt and funds envelopes with the
// rest. The amount is bounds-checked against the debt balance at plan time.
func NewHybridStrategy(hybridCents AmountCents) (AllocationStrategy, error) {
	if hybridCents < 0 {
		return AllocationStrategy{}, fmt.Errorf("%w: must not be negative", ErrInvalidHybridAmount)
	}
	return AllocationStrategy{kind: StrategyHybrid, hybridCents: hybridCents}, nil
}

// NewAllocationStrategy builds a strategy from stored tags.
func NewAllocationStrategy(kindRaw string, hybridCentsRaw int64) (AllocationStrategy, error) {
	kind, err := ParseStrategyKind(kindRaw)
	if err != nil {
		return AllocationStrategy{}, err
	}
	switch kind {
	case StrategyCreditFirst:
		return CreditFirstStrategy(), nil
	case StrategyEnvelopesOnly:
		return EnvelopesOnlyStrategy(), nil
	default:
		hybridCents, err := NewAmountCents(hybridCentsRaw)
		if err != nil {
			return AllocationStrategy{}, fmt.Errorf("%w: must not be negative", ErrInvalidHybridAmount)
		}
		return NewHybridStrategy(hybridCents)
	}
}

// Kind returns the strategy tag.
func (strategy AllocationStrategy) Kind() StrategyKind {
	return strategy.kind
}

// HybridCents returns the fixed debt payment of a hybrid strategy.
func (strategy AllocationStrategy) HybridCents() AmountCents {
	return strategy.hybridCents
}

// GoalID identifies one milestone of the journey.
type GoalID string

const (
	GoalEssentials   GoalID = "essentials"
	GoalStarterStash GoalID = "starter_stash"
	GoalDebtPayoff   GoalID = "debt_payoff"
	GoalSafetyNet    GoalID = "safety_net"
	GoalCCHolding    GoalID = "cc_holding"
)

// String returns the stored tag.
func (goal GoalID) String() string {
	return string(goal)
}

// LockState describes a milestone, recomputed from current facts on every plan.
type LockState string

const (
	LockStateLocked    LockState = "locked"
	LockStateCompleted LockState = "completed"
	LockStateActive    LockState = "active"
	LockStatePending   LockState = "pending"
)

// String returns the stored tag.
func (state LockState) String() string {
	return string(state)
}

// GoalLock pairs a milestone with its derived state and progress.
type GoalLock struct {
	Goal            GoalID
	State           LockState
	ProgressPercent float64
}

// Allocation is one line of an allocation plan.
type Allocation struct {
	EnvelopeID  EnvelopeID
	AmountCents AmountCents
}

// MilestoneProgress aggregates funding progress across ordinary envelopes.
type MilestoneProgress struct {
	OverallPercent        float64
	TotalTargetCents      AmountCents
	TotalCurrentCents     AmountCents
	FundedCount           int
	TotalCount            int
	NeedsFunding          int
	EssentialsUnderfunded bool
}

// PlanInput is the full snapshot a plan is computed from.
type PlanInput struct {
	Envelopes      []Envelope
	Debt           DebtSnapshot
	AvailableCents AmountCents
	Strategy       AllocationStrategy
}

func (input PlanInput) validate() error {
	if input.AvailableCents < 0 {
		return fmt.Errorf("%w: negative available balance", ErrInvalidAmountCents)
	}
	if _, err := ParseStrategyKind(input.Strategy.kind.String()); err != nil {
		return err
	}
	if input.Strategy.hybridCents < 0 {
		return fmt.Errorf("%w: must not be negative", ErrInvalidHybridAmount)
	}
	for _, envelope := range input.Envelopes {
		if err := envelope.validate(); err != nil {
			return err
		}
	}
	if input.Debt.startingCents < 0 || input.Debt.currentCents < 0 {
		return fmt.Errorf("%w: negative balance", ErrInvalidDebtSnapshot)
	}
	return nil
}

// Plan is the engine's complete answer for one snapshot: the allocation
// split, derived progress, and milestone lock states. Allocations sum with
// DebtCents and RemainderCents to exactly the available balance.
type Plan struct {
	Allocations    []Allocation
	DebtCents      AmountCents
	RemainderCents AmountCents
	Progress       MilestoneProgress
	Locks          []GoalLock
}
