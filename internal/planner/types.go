package planner

import "context"

// EnvelopeRecord is the stored form of an envelope. It carries fields the
// engine never reads (dismissal, snooze) and the optimistic-concurrency
// version guarding balance writes.
type EnvelopeRecord struct {
	EnvelopeID          string
	BudgetID            string
	Name                string
	Icon                string
	TargetCents         int64
	CurrentCents        int64
	Suggestion          string
	Tier                string
	Dismissed           bool
	SnoozedUntilUnixUTC int64
	Version             int64
	CreatedUnixUTC      int64
}

// DebtRecord is the stored revolving-debt snapshot, one row per budget.
type DebtRecord struct {
	BudgetID        string
	StartingCents   int64
	CurrentCents    int64
	ActiveDebtName  string
	ActiveDebtCents int64
	Version         int64
}

// AllocationRun is the audit record of one applied plan.
type AllocationRun struct {
	RunID          string
	BudgetID       string
	Strategy       string
	AvailableCents int64
	DebtCents      int64
	RemainderCents int64
	LinesJSON      string
	CreatedUnixUTC int64
}

// RunLine is one envelope allocation inside a stored run.
type RunLine struct {
	EnvelopeID  string `json:"envelope_id"`
	AmountCents int64  `json:"amount_cents"`
}

// EnvelopeParams carries the caller-editable envelope fields.
type EnvelopeParams struct {
	Name                string
	Icon                string
	TargetCents         int64
	CurrentCents        int64
	Suggestion          string
	Tier                string
	Dismissed           bool
	SnoozedUntilUnixUTC int64
}

// DebtParams carries the caller-editable debt snapshot fields.
type DebtParams struct {
	StartingCents   int64
	CurrentCents    int64
	ActiveDebtName  string
	ActiveDebtCents int64
}

// Store is the persistence contract used by Service. Balance mutations are
// guarded by the record version captured when the snapshot was read; a moved
// row fails the write with ErrStaleSnapshot and the transaction rolls back.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error
	ListEnvelopes(ctx context.Context, budgetID string) ([]EnvelopeRecord, error)
	GetEnvelope(ctx context.Context, budgetID string, envelopeID string) (EnvelopeRecord, error)
	InsertEnvelope(ctx context.Context, record EnvelopeRecord) error
	UpdateEnvelope(ctx context.Context, record EnvelopeRecord) error
	DeleteEnvelope(ctx context.Context, budgetID string, envelopeID string) error
	AddToEnvelopeBalance(ctx context.Context, budgetID string, envelopeID string, deltaCents int64, expectedVersion int64) error
	GetDebt(ctx context.Context, budgetID string) (DebtRecord, error)
	UpsertDebt(ctx context.Context, record DebtRecord) error
	ReduceDebt(ctx context.Context, budgetID string, amountCents int64, expectedVersion int64) error
	InsertRun(ctx context.Context, run AllocationRun) error
	ListRuns(ctx context.Context, budgetID string, beforeUnixUTC int64, limit int) ([]AllocationRun, error)
}
