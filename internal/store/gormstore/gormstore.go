package gormstore

import (
	"context"
	"errors"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thebudgetway/budgetway/internal/planner"
	"github.com/thebudgetway/budgetway/pkg/budget"
)

const (
	constraintEnvelopeBudgetName = "uniq_envelope_budget_name"
	pgUniqueViolationCode        = "23505"
	sqliteConstraintCode         = 19
	defaultLinesJSON             = "[]"
	errorOperationStore          = "store"
	errorSubjectEnvelope         = "envelope"
	errorSubjectDebt             = "debt"
	errorSubjectRun              = "run"
	errorCodeDelete              = "delete"
	errorCodeDuplicate           = "duplicate"
	errorCodeGet                 = "get"
	errorCodeInsert              = "insert"
	errorCodeList                = "list"
	errorCodeReduce              = "reduce"
	errorCodeUpdate              = "update"
	errorCodeUpdateBalance       = "update_balance"
	errorCodeUpsert              = "upsert"
)

// Store implements planner.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema for all three tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&EnvelopeRow{}, &DebtSnapshotRow{}, &AllocationRunRow{})
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore planner.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

func (store *Store) ListEnvelopes(ctx context.Context, budgetID string) ([]planner.EnvelopeRecord, error) {
	var rows []EnvelopeRow
	err := store.db.WithContext(ctx).
		Where("budget_id = ?", budgetID).
		Order("created_at ASC, envelope_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectEnvelope, errorCodeList, err)
	}
	records := make([]planner.EnvelopeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, envelopeRecord(row))
	}
	return records, nil
}

func (store *Store) GetEnvelope(ctx context.Context, budgetID string, envelopeID string) (planner.EnvelopeRecord, error) {
	var row EnvelopeRow
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("budget_id = ? AND envelope_id = ?", budgetID, envelopeID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return planner.EnvelopeRecord{}, wrapStoreError(errorSubjectEnvelope, errorCodeGet, planner.ErrUnknownEnvelope)
		}
		return planner.EnvelopeRecord{}, wrapStoreError(errorSubjectEnvelope, errorCodeGet, err)
	}
	return envelopeRecord(row), nil
}

func (store *Store) InsertEnvelope(ctx context.Context, record planner.EnvelopeRecord) error {
	row := envelopeRow(record)
	err := store.db.WithContext(ctx).Create(&row).Error
	if isUniqueViolation(err, constraintEnvelopeBudgetName) {
		return wrapStoreError(errorSubjectEnvelope, errorCodeDuplicate, planner.ErrDuplicateEnvelopeName)
	}
	if err != nil {
		return wrapStoreError(errorSubjectEnvelope, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) UpdateEnvelope(ctx context.Context, record planner.EnvelopeRecord) error {
	row := envelopeRow(record)
	result := store.db.WithContext(ctx).
		Model(&EnvelopeRow{}).
		Where("budget_id = ? AND envelope_id = ? AND version = ?", record.BudgetID, record.EnvelopeID, record.Version).
		Updates(map[string]interface{}{
			"name":          row.Name,
			"icon":          row.Icon,
			"target_cents":  row.TargetCents,
			"current_cents": row.CurrentCents,
			"suggestion":    row.Suggestion,
			"tier":          row.Tier,
			"dismissed":     row.Dismissed,
			"snoozed_until": row.SnoozedUntil,
			"version":       gorm.Expr("version + 1"),
		})
	if isUniqueViolation(result.Error, constraintEnvelopeBudgetName) {
		return wrapStoreError(errorSubjectEnvelope, errorCodeDuplicate, planner.ErrDuplicateEnvelopeName)
	}
	if result.Error != nil {
		return wrapStoreError(errorSubjectEnvelope, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectEnvelope, errorCodeUpdate, planner.ErrStaleSnapshot)
	}
	return nil
}

func (store *Store) DeleteEnvelope(ctx context.Context, budgetID string, envelopeID string) error {
	result := store.db.WithContext(ctx).
		Where("budget_id = ? AND envelope_id = ?", budgetID, envelopeID).
		Delete(&EnvelopeRow{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectEnvelope, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectEnvelope, errorCodeDelete, planner.ErrUnknownEnvelope)
	}
	return nil
}

func (store *Store) AddToEnvelopeBalance(ctx context.Context, budgetID string, envelopeID string, deltaCents int64, expectedVersion int64) error {
	result := store.db.WithContext(ctx).
		Model(&EnvelopeRow{}).
		Where("budget_id = ? AND envelope_id = ? AND version = ?", budgetID, envelopeID, expectedVersion).
		Updates(map[string]interface{}{
			"current_cents": gorm.Expr("current_cents + ?", deltaCents),
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectEnvelope, errorCodeUpdateBalance, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectEnvelope, errorCodeUpdateBalance, planner.ErrStaleSnapshot)
	}
	return nil
}

func (store *Store) GetDebt(ctx context.Context, budgetID string) (planner.DebtRecord, error) {
	var row DebtSnapshotRow
	err := store.db.WithContext(ctx).
		Where("budget_id = ?", budgetID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return planner.DebtRecord{}, wrapStoreError(errorSubjectDebt, errorCodeGet, planner.ErrUnknownDebt)
		}
		return planner.DebtRecord{}, wrapStoreError(errorSubjectDebt, errorCodeGet, err)
	}
	return planner.DebtRecord{
		BudgetID:        row.BudgetID,
		StartingCents:   row.StartingCents,
		CurrentCents:    row.CurrentCents,
		ActiveDebtName:  row.ActiveDebtName,
		ActiveDebtCents: row.ActiveDebtCents,
		Version:         row.Version,
	}, nil
}

func (store *Store) UpsertDebt(ctx context.Context, record planner.DebtRecord) error {
	row := DebtSnapshotRow{
		BudgetID:        record.BudgetID,
		StartingCents:   record.StartingCents,
		CurrentCents:    record.CurrentCents,
		ActiveDebtName:  record.ActiveDebtName,
		ActiveDebtCents: record.ActiveDebtCents,
		Version:         1,
		UpdatedAt:       time.Now().UTC(),
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "budget_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"starting_cents":    row.StartingCents,
				"current_cents":     row.CurrentCents,
				"active_debt_name":  row.ActiveDebtName,
				"active_debt_cents": row.ActiveDebtCents,
				"version":           gorm.Expr("debt_snapshots.version + 1"),
				"updated_at":        row.UpdatedAt,
			}),
		}).
		Create(&row).Error
	if err != nil {
		return wrapStoreError(errorSubjectDebt, errorCodeUpsert, err)
	}
	return nil
}

func (store *Store) ReduceDebt(ctx context.Context, budgetID string, amountCents int64, expectedVersion int64) error {
	result := store.db.WithContext(ctx).
		Model(&DebtSnapshotRow{}).
		Where("budget_id = ? AND version = ?", budgetID, expectedVersion).
		Updates(map[string]interface{}{
			"current_cents": gorm.Expr("current_cents - ?", amountCents),
			"version":       gorm.Expr("version + 1"),
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectDebt, errorCodeReduce, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectDebt, errorCodeReduce, planner.ErrStaleSnapshot)
	}
	return nil
}

func (store *Store) InsertRun(ctx context.Context, run planner.AllocationRun) error {
	row := AllocationRunRow{
		RunID:          run.RunID,
		BudgetID:       run.BudgetID,
		Strategy:       run.Strategy,
		AvailableCents: run.AvailableCents,
		DebtCents:      run.DebtCents,
		RemainderCents: run.RemainderCents,
		Lines:          datatypesJSON(run.LinesJSON),
		CreatedAt:      time.Unix(run.CreatedUnixUTC, 0).UTC(),
	}
	if run.CreatedUnixUTC == 0 {
		row.CreatedAt = time.Now().UTC()
	}
	if err := store.db.WithContext(ctx).Create(&row).Error; err != nil {
		return wrapStoreError(errorSubjectRun, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) ListRuns(ctx context.Context, budgetID string, beforeUnixUTC int64, limit int) ([]planner.AllocationRun, error) {
	before := time.Unix(beforeUnixUTC, 0).UTC()
	if beforeUnixUTC == 0 {
		before = time.Now().UTC().Add(time.Second)
	}

	var rows []AllocationRunRow
	err := store.db.WithContext(ctx).
		Where("budget_id = ? AND created_at < ?", budgetID, before).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectRun, errorCodeList, err)
	}

	runs := make([]planner.AllocationRun, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, planner.AllocationRun{
			RunID:          row.RunID,
			BudgetID:       row.BudgetID,
			Strategy:       row.Strategy,
			AvailableCents: row.AvailableCents,
			DebtCents:      row.DebtCents,
			RemainderCents: row.RemainderCents,
			LinesJSON:      string(row.Lines),
			CreatedUnixUTC: row.CreatedAt.Unix(),
		})
	}
	return runs, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return budget.WrapError(errorOperationStore, subject, code, err)
}

func envelopeRecord(row EnvelopeRow) planner.EnvelopeRecord {
	return planner.EnvelopeRecord{
		EnvelopeID:          row.EnvelopeID,
		BudgetID:            row.BudgetID,
		Name:                row.Name,
		Icon:                row.Icon,
		TargetCents:         row.TargetCents,
		CurrentCents:        row.CurrentCents,
		Suggestion:          row.Suggestion,
		Tier:                row.Tier,
		Dismissed:           row.Dismissed,
		SnoozedUntilUnixUTC: timeOrZero(row.SnoozedUntil),
		Version:             row.Version,
		CreatedUnixUTC:      row.CreatedAt.Unix(),
	}
}

func envelopeRow(record planner.EnvelopeRecord) EnvelopeRow {
	var snoozedUntil *time.Time
	if record.SnoozedUntilUnixUTC != 0 {
		value := time.Unix(record.SnoozedUntilUnixUTC, 0).UTC()
		snoozedUntil = &value
	}
	row := EnvelopeRow{
		EnvelopeID:   record.EnvelopeID,
		BudgetID:     record.BudgetID,
		Name:         record.Name,
		Icon:         record.Icon,
		TargetCents:  record.TargetCents,
		CurrentCents: record.CurrentCents,
		Suggestion:   record.Suggestion,
		Tier:         record.Tier,
		Dismissed:    record.Dismissed,
		SnoozedUntil: snoozedUntil,
		Version:      record.Version,
		CreatedAt:    time.Unix(record.CreatedUnixUTC, 0).UTC(),
	}
	if record.CreatedUnixUTC == 0 {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func timeOrZero(value *time.Time) int64 {
	if value == nil {
		return 0
	}
	return value.Unix()
}

func datatypesJSON(raw string) datatypes.JSON {
	if raw == "" {
		return datatypes.JSON([]byte(defaultLinesJSON))
	}
	return datatypes.JSON([]byte(raw))
}

func isUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintName
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
