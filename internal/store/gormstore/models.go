package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnvelopeRow mirrors the envelopes table.
type EnvelopeRow struct {
	EnvelopeID   string `gorm:"type:uuid;primaryKey"`
	BudgetID     string `gorm:"not null;index:idx_envelopes_budget_created,priority:1;index:uniq_envelope_budget_name,unique,priority:1"`
	Name         string `gorm:"not null;index:uniq_envelope_budget_name,unique,priority:2"`
	Icon         string `gorm:""`
	TargetCents  int64  `gorm:"not null"`
	CurrentCents int64  `gorm:"not null"`
	Suggestion   string `gorm:"not null"`
	Tier         string `gorm:""`
	Dismissed    bool   `gorm:"not null"`
	SnoozedUntil *time.Time
	Version      int64     `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null;index:idx_envelopes_budget_created,priority:2"`
}

func (EnvelopeRow) TableName() string { return "envelopes" }

func (row *EnvelopeRow) BeforeCreate(tx *gorm.DB) error {
	if row.EnvelopeID == "" {
		row.EnvelopeID = uuid.NewString()
	}
	if row.Version == 0 {
		row.Version = 1
	}
	return nil
}

// DebtSnapshotRow mirrors the debt_snapshots table, one row per budget.
type DebtSnapshotRow struct {
	BudgetID        string    `gorm:"primaryKey"`
	StartingCents   int64     `gorm:"not null"`
	CurrentCents    int64     `gorm:"not null"`
	ActiveDebtName  string    `gorm:""`
	ActiveDebtCents int64     `gorm:"not null"`
	Version         int64     `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (DebtSnapshotRow) TableName() string { return "debt_snapshots" }

// AllocationRunRow mirrors the allocation_runs audit table.
type AllocationRunRow struct {
	RunID          string         `gorm:"type:uuid;primaryKey"`
	BudgetID       string         `gorm:"not null;index:idx_runs_budget_created,priority:1"`
	Strategy       string         `gorm:"not null"`
	AvailableCents int64          `gorm:"not null"`
	DebtCents      int64          `gorm:"not null"`
	RemainderCents int64          `gorm:"not null"`
	Lines          datatypes.JSON `gorm:"not null"`
	CreatedAt      time.Time      `gorm:"not null;index:idx_runs_budget_created,priority:2"`
}

func (AllocationRunRow) TableName() string { return "allocation_runs" }

func (row *AllocationRunRow) BeforeCreate(tx *gorm.DB) error {
	if row.RunID == "" {
		row.RunID = uuid.NewString()
	}
	return nil
}
