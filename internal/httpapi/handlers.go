package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thebudgetway/budgetway/internal/planner"
	"github.com/thebudgetway/budgetway/pkg/budget"
)

type httpHandler struct {
	logger   *zap.Logger
	service  *planner.Service
	sessions *SessionManager
}

type sessionRequest struct {
	BudgetID string `json:"budget_id"`
}

func (handler *httpHandler) handleCreateSession(ctx *gin.Context) {
	var request sessionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	if strings.TrimSpace(request.BudgetID) == "" {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "budget_id is required"))
		return
	}
	token, err := handler.sessions.Issue(strings.TrimSpace(request.BudgetID))
	if err != nil {
		handler.logger.Error("session issue failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "could not issue session"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

func (handler *httpHandler) handleJourney(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	journey, err := handler.service.Journey(ctx.Request.Context(), claims.BudgetID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"progress":    progressPayloadFrom(journey.Progress),
		"locks":       lockPayloadsFrom(journey.Locks),
		"recommended": journey.Recommended.String(),
		"debt":        debtSnapshotPayloadFrom(journey.Debt),
	})
}

type allocationRequest struct {
	AvailableCents int64  `json:"available_cents"`
	Strategy       string `json:"strategy"`
	HybridCents    int64  `json:"hybrid_cents"`
}

func (handler *httpHandler) handlePreviewAllocation(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	var request allocationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	strategy, err := budget.NewAllocationStrategy(request.Strategy, request.HybridCents)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	plan, err := handler.service.Preview(ctx.Request.Context(), claims.BudgetID, request.AvailableCents, strategy)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"plan": planPayloadFrom(plan)})
}

func (handler *httpHandler) handleApplyAllocation(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	var request allocationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	strategy, err := budget.NewAllocationStrategy(request.Strategy, request.HybridCents)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	run, plan, err := handler.service.Apply(ctx.Request.Context(), claims.BudgetID, request.AvailableCents, strategy)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"run":  runPayloadFrom(run),
		"plan": planPayloadFrom(plan),
	})
}

func (handler *httpHandler) handleListEnvelopes(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	records, err := handler.service.ListEnvelopes(ctx.Request.Context(), claims.BudgetID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payloads := make([]envelopePayload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, envelopePayloadFrom(record))
	}
	ctx.JSON(http.StatusOK, gin.H{"envelopes": payloads})
}

type envelopeRequest struct {
	Name                string `json:"name"`
	Icon                string `json:"icon"`
	TargetCents         int64  `json:"target_cents"`
	CurrentCents        int64  `json:"current_cents"`
	Suggestion          string `json:"suggestion"`
	Tier                string `json:"tier"`
	Dismissed           bool   `json:"dismissed"`
	SnoozedUntilUnixUTC int64  `json:"snoozed_until_unix_utc"`
}

func (request envelopeRequest) params() planner.EnvelopeParams {
	return planner.EnvelopeParams{
		Name:                request.Name,
		Icon:                request.Icon,
		TargetCents:         request.TargetCents,
		CurrentCents:        request.CurrentCents,
		Suggestion:          request.Suggestion,
		Tier:                request.Tier,
		Dismissed:           request.Dismissed,
		SnoozedUntilUnixUTC: request.SnoozedUntilUnixUTC,
	}
}

func (handler *httpHandler) handleCreateEnvelope(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	var request envelopeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	record, err := handler.service.CreateEnvelope(ctx.Request.Context(), claims.BudgetID, request.params())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"envelope": envelopePayloadFrom(record)})
}

func (handler *httpHandler) handleUpdateEnvelope(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	var request envelopeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	record, err := handler.service.UpdateEnvelope(ctx.Request.Context(), claims.BudgetID, ctx.Param("envelope_id"), request.params())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"envelope": envelopePayloadFrom(record)})
}

func (handler *httpHandler) handleDeleteEnvelope(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	if err := handler.service.DeleteEnvelope(ctx.Request.Context(), claims.BudgetID, ctx.Param("envelope_id")); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (handler *httpHandler) handleGetDebt(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	record, err := handler.service.GetDebt(ctx.Request.Context(), claims.BudgetID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"debt": debtPayloadFrom(record)})
}

type debtRequest struct {
	StartingCents   int64  `json:"starting_cents"`
	CurrentCents    int64  `json:"current_cents"`
	ActiveDebtName  string `json:"active_debt_name"`
	ActiveDebtCents int64  `json:"active_debt_cents"`
}

func (handler *httpHandler) handleSetDebt(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	var request debtRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	record, err := handler.service.SetDebt(ctx.Request.Context(), claims.BudgetID, planner.DebtParams{
		StartingCents:   request.StartingCents,
		CurrentCents:    request.CurrentCents,
		ActiveDebtName:  request.ActiveDebtName,
		ActiveDebtCents: request.ActiveDebtCents,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"debt": debtPayloadFrom(record)})
}

func (handler *httpHandler) handleListRuns(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	before, err := queryInt64(ctx, "before", 0)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "before must be a unix timestamp"))
		return
	}
	limit, err := queryInt64(ctx, "limit", 0)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "limit must be an integer"))
		return
	}
	runs, err := handler.service.ListRuns(ctx.Request.Context(), claims.BudgetID, before, int(limit))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payloads := make([]runPayload, 0, len(runs))
	for _, run := range runs {
		payloads = append(payloads, runPayloadFrom(run))
	}
	ctx.JSON(http.StatusOK, gin.H{"runs": payloads})
}

func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, planner.ErrUnknownEnvelope), errors.Is(err, planner.ErrUnknownDebt):
		ctx.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	case errors.Is(err, planner.ErrStaleSnapshot):
		ctx.JSON(http.StatusConflict, errorResponse("stale_snapshot", "snapshot changed, retry the operation"))
	case errors.Is(err, planner.ErrDuplicateEnvelopeName):
		ctx.JSON(http.StatusConflict, errorResponse("duplicate_name", err.Error()))
	case isValidationError(err):
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_request", err.Error()))
	default:
		handler.logger.Error("request failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "unexpected failure"))
	}
}

func isValidationError(err error) bool {
	validationErrors := []error{
		budget.ErrInvalidEnvelopeID,
		budget.ErrInvalidEnvelopeName,
		budget.ErrInvalidAmountCents,
		budget.ErrInvalidSuggestionType,
		budget.ErrInvalidPriorityTier,
		budget.ErrInvalidStrategyKind,
		budget.ErrInvalidHybridAmount,
		budget.ErrInvalidDebtSnapshot,
		planner.ErrInvalidBudgetID,
		planner.ErrInvalidListLimit,
	}
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func queryInt64(ctx *gin.Context, name string, fallback int64) (int64, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

type allocationPayload struct {
	EnvelopeID  string `json:"envelope_id"`
	AmountCents int64  `json:"amount_cents"`
}

type progressPayload struct {
	OverallPercent        float64 `json:"overall_percent"`
	TotalTargetCents      int64   `json:"total_target_cents"`
	TotalCurrentCents     int64   `json:"total_current_cents"`
	FundedCount           int     `json:"funded_count"`
	TotalCount            int     `json:"total_count"`
	NeedsFunding          int     `json:"needs_funding"`
	EssentialsUnderfunded bool    `json:"essentials_underfunded"`
}

type lockPayload struct {
	Goal            string  `json:"goal"`
	State           string  `json:"state"`
	ProgressPercent float64 `json:"progress_percent"`
}

type planPayload struct {
	Allocations    []allocationPayload `json:"allocations"`
	DebtCents      int64               `json:"debt_cents"`
	RemainderCents int64               `json:"remainder_cents"`
	Progress       progressPayload     `json:"progress"`
	Locks          []lockPayload       `json:"locks"`
}

type envelopePayload struct {
	EnvelopeID          string `json:"envelope_id"`
	Name                string `json:"name"`
	Icon                string `json:"icon"`
	TargetCents         int64  `json:"target_cents"`
	CurrentCents        int64  `json:"current_cents"`
	Suggestion          string `json:"suggestion"`
	Tier                string `json:"tier"`
	Dismissed           bool   `json:"dismissed"`
	SnoozedUntilUnixUTC int64  `json:"snoozed_until_unix_utc"`
	Version             int64  `json:"version"`
	CreatedUnixUTC      int64  `json:"created_unix_utc"`
}

type debtPayload struct {
	StartingCents   int64  `json:"starting_cents"`
	CurrentCents    int64  `json:"current_cents"`
	ActiveDebtName  string `json:"active_debt_name"`
	ActiveDebtCents int64  `json:"active_debt_cents"`
	Version         int64  `json:"version"`
}

type debtSnapshotPayload struct {
	StartingCents   int64  `json:"starting_cents"`
	CurrentCents    int64  `json:"current_cents"`
	ActiveDebtName  string `json:"active_debt_name"`
	ActiveDebtCents int64  `json:"active_debt_cents"`
	HasDebt         bool   `json:"has_debt"`
}

type runPayload struct {
	RunID          string          `json:"run_id"`
	Strategy       string          `json:"strategy"`
	AvailableCents int64           `json:"available_cents"`
	DebtCents      int64           `json:"debt_cents"`
	RemainderCents int64           `json:"remainder_cents"`
	Lines          json.RawMessage `json:"lines"`
	CreatedUnixUTC int64           `json:"created_unix_utc"`
}

func planPayloadFrom(plan budget.Plan) planPayload {
	allocations := make([]allocationPayload, 0, len(plan.Allocations))
	for _, allocation := range plan.Allocations {
		allocations = append(allocations, allocationPayload{
			EnvelopeID:  allocation.EnvelopeID.String(),
			AmountCents: allocation.AmountCents.Int64(),
		})
	}
	return planPayload{
		Allocations:    allocations,
		DebtCents:      plan.DebtCents.Int64(),
		RemainderCents: plan.RemainderCents.Int64(),
		Progress:       progressPayloadFrom(plan.Progress),
		Locks:          lockPayloadsFrom(plan.Locks),
	}
}

func progressPayloadFrom(progress budget.MilestoneProgress) progressPayload {
	return progressPayload{
		OverallPercent:        progress.OverallPercent,
		TotalTargetCents:      progress.TotalTargetCents.Int64(),
		TotalCurrentCents:     progress.TotalCurrentCents.Int64(),
		FundedCount:           progress.FundedCount,
		TotalCount:            progress.TotalCount,
		NeedsFunding:          progress.NeedsFunding,
		EssentialsUnderfunded: progress.EssentialsUnderfunded,
	}
}

func lockPayloadsFrom(locks []budget.GoalLock) []lockPayload {
	payloads := make([]lockPayload, 0, len(locks))
	for _, lock := range locks {
		payloads = append(payloads, lockPayload{
			Goal:            lock.Goal.String(),
			State:           lock.State.String(),
			ProgressPercent: lock.ProgressPercent,
		})
	}
	return payloads
}

func envelopePayloadFrom(record planner.EnvelopeRecord) envelopePayload {
	return envelopePayload{
		EnvelopeID:          record.EnvelopeID,
		Name:                record.Name,
		Icon:                record.Icon,
		TargetCents:         record.TargetCents,
		CurrentCents:        record.CurrentCents,
		Suggestion:          record.Suggestion,
		Tier:                record.Tier,
		Dismissed:           record.Dismissed,
		SnoozedUntilUnixUTC: record.SnoozedUntilUnixUTC,
		Version:             record.Version,
		CreatedUnixUTC:      record.CreatedUnixUTC,
	}
}

func debtPayloadFrom(record planner.DebtRecord) debtPayload {
	return debtPayload{
		StartingCents:   record.StartingCents,
		CurrentCents:    record.CurrentCents,
		ActiveDebtName:  record.ActiveDebtName,
		ActiveDebtCents: record.ActiveDebtCents,
		Version:         record.Version,
	}
}

func debtSnapshotPayloadFrom(debt budget.DebtSnapshot) debtSnapshotPayload {
	return debtSnapshotPayload{
		StartingCents:   debt.StartingCents().Int64(),
		CurrentCents:    debt.CurrentCents().Int64(),
		ActiveDebtName:  debt.ActiveDebtName(),
		ActiveDebtCents: debt.ActiveDebtCents().Int64(),
		HasDebt:         debt.HasDebt(),
	}
}

func runPayloadFrom(run planner.AllocationRun) runPayload {
	lines := json.RawMessage(run.LinesJSON)
	if len(lines) == 0 {
		lines = json.RawMessage("[]")
	}
	return runPayload{
		RunID:          run.RunID,
		Strategy:       run.Strategy,
		AvailableCents: run.AvailableCents,
		DebtCents:      run.DebtCents,
		RemainderCents: run.RemainderCents,
		Lines:          lines,
		CreatedUnixUTC: run.CreatedUnixUTC,
	}
}
