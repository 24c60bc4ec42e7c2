package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"manualexec/internal/docstore"
	"manualexec/internal/metrics"
	"manualexec/internal/models"
	"manualexec/internal/planlock"
)

const defaultProofMethod = "MANUAL"

// RecordPayload is the operator's report of what was executed at the broker.
type RecordPayload struct {
	Source       RecordSource      `json:"source"`
	Items        []RecordItemInput `json:"items"`
	Dedupe       models.Dedupe     `json:"dedupe"`
	FilledAt     string            `json:"filled_at,omitempty"`
	Method       string            `json:"method,omitempty"`
	EvidenceNote string            `json:"evidence_note,omitempty"`
	Operator     string            `json:"-"`
}

type RecordSource struct {
	PlanID string `json:"plan_id"`
}

type RecordItemInput struct {
	Ticker      string          `json:"ticker"`
	Side        string          `json:"side"`
	Status      string          `json:"status"`
	ExecutedQty decimal.Decimal `json:"executed_qty"`
	AvgPrice    decimal.Decimal `json:"avg_price"`
	Note        string          `json:"note,omitempty"`
}

// SubmitResult carries the stored record. Duplicate is set when the key was
// already recorded and nothing was written.
type SubmitResult struct {
	Record    *models.ManualExecutionRecord
	Duplicate bool
}

// RecordSubmitter appends the operator's execution report to the plan's
// version chain.
type RecordSubmitter struct {
	Base
	Locks planlock.Locker
}

func (s *RecordSubmitter) Submit(ctx context.Context, c Confirm, token string, payload RecordPayload) (*SubmitResult, error) {
	if err := requireConfirm(c, "record submit"); err != nil {
		return nil, err
	}
	planID, items, err := validatePayload(payload)
	if err != nil {
		return nil, err
	}

	var exp models.OrderPlanExport
	found, err := s.load(ctx, &exp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(models.DocOrderPlanExport)
	}
	if !tokensEqual(token, exp.HumanConfirm.ConfirmToken) {
		s.log().Warn("record submit rejected", zap.String("plan_id", planID), zap.String("reason", string(CodeTokenMismatch)))
		return nil, newError(CodeTokenMismatch, "confirm token does not match the current export", nil)
	}

	var ticket models.ManualExecutionTicket
	found, err = s.load(ctx, &ticket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(models.DocTicket)
	}
	var plan models.OrderPlan
	found, err = s.load(ctx, &plan)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(models.DocOrderPlan)
	}
	if err := checkLinkage(planID, ticket.Linkage.PlanID, plan.PlanID, exp.Source.PlanID); err != nil {
		s.log().Warn("record submit rejected", zap.String("plan_id", planID), zap.String("reason", string(CodeLinkageMismatch)))
		return nil, err
	}

	unlock, err := s.Locks.Lock(ctx, planID)
	if err != nil {
		if errors.Is(err, planlock.ErrTimeout) || ctx.Err() != nil {
			return nil, newError(CodeLockTimeout, "plan "+planID+" is busy", err)
		}
		return nil, newError(CodeIO, "acquire plan lock", err)
	}
	defer unlock()

	var prev models.ManualExecutionRecord
	hasPrev, err := s.loadByKey(ctx, planID, &prev)
	if err != nil {
		return nil, err
	}
	if hasPrev && prev.Dedupe.IdempotencyKey == payload.Dedupe.IdempotencyKey {
		metrics.ObserveOperation("record", string(CodeDuplicateIgnored))
		s.log().Info("record submit deduplicated",
			zap.String("plan_id", planID),
			zap.Int("record_version", prev.RecordVersion),
		)
		return &SubmitResult{Record: &prev, Duplicate: true}, nil
	}

	now := s.Clock.Now()
	rec := &models.ManualExecutionRecord{
		Schema:        models.SchemaRecord,
		ID:            uuid.NewString(),
		Asof:          asof(now),
		RecordVersion: 1,
		Linkage: models.RecordLinkage{
			PlanID:   planID,
			ExportID: exp.ID,
			TicketID: ticket.ID,
		},
		Dedupe: payload.Dedupe,
		Items:  items,
		Fills:  fillsOf(items),
		OperatorProof: models.OperatorProof{
			FilledAt:     strings.TrimSpace(payload.FilledAt),
			Method:       strings.TrimSpace(payload.Method),
			EvidenceNote: payload.EvidenceNote,
			Operator:     payload.Operator,
		},
		Reason: "SUBMITTED",
	}
	if hasPrev {
		rec.RecordVersion = prev.RecordVersion + 1
	}
	if rec.OperatorProof.FilledAt == "" {
		rec.OperatorProof.FilledAt = rec.Asof
	}
	if rec.OperatorProof.Method == "" {
		rec.OperatorProof.Method = defaultProofMethod
	}
	rec.Decision, rec.ExecutionResult = classify(items)
	rec.Summary = summarize(items)
	rec.Reconciliation = reconcile(rec.Summary, len(ticket.Orders))

	if _, err := s.save(ctx, rec, docstore.PutOptions{Key: planID, At: now}); err != nil {
		return nil, err
	}
	metrics.ObserveOperation("record", string(rec.Decision))
	metrics.SetRecordVersion(planID, rec.RecordVersion)
	s.log().Info("manual execution recorded",
		zap.String("plan_id", planID),
		zap.Int("record_version", rec.RecordVersion),
		zap.String("decision", string(rec.Decision)),
		zap.String("execution_result", string(rec.ExecutionResult)),
	)
	return &SubmitResult{Record: rec}, nil
}

// Latest returns the newest record of planID, or of any plan when planID is
// empty.
func (s *RecordSubmitter) Latest(ctx context.Context, planID string) (*models.ManualExecutionRecord, error) {
	var rec models.ManualExecutionRecord
	var found bool
	var err error
	if planID = strings.TrimSpace(planID); planID != "" {
		found, err = s.loadByKey(ctx, planID, &rec)
	} else {
		found, err = s.load(ctx, &rec)
	}
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(models.DocRecord)
	}
	return &rec, nil
}

func validatePayload(p RecordPayload) (string, []models.RecordItem, error) {
	planID := strings.TrimSpace(p.Source.PlanID)
	if planID == "" {
		return "", nil, newError(CodeValidation, "source.plan_id required", nil)
	}
	if strings.TrimSpace(p.Dedupe.IdempotencyKey) == "" {
		return "", nil, newError(CodeValidation, "dedupe.idempotency_key required", nil)
	}
	items := make([]models.RecordItem, 0, len(p.Items))
	for i, in := range p.Items {
		ticker := strings.TrimSpace(in.Ticker)
		if ticker == "" {
			return "", nil, newError(CodeValidation, fmt.Sprintf("items[%d].ticker required", i), nil)
		}
		side, ok := models.ParseSide(in.Side)
		if !ok {
			return "", nil, newError(CodeValidation, fmt.Sprintf("items[%d].side %q must be BUY or SELL", i, in.Side), nil)
		}
		status, ok := models.ParseItemStatus(in.Status)
		if !ok {
			return "", nil, newError(CodeValidation, fmt.Sprintf("items[%d].status %q is not a known status", i, in.Status), nil)
		}
		if in.ExecutedQty.IsNegative() || in.AvgPrice.IsNegative() {
			return "", nil, newError(CodeValidation, fmt.Sprintf("items[%d] has a negative amount", i), nil)
		}
		items = append(items, models.RecordItem{
			Ticker:      ticker,
			Side:        side,
			Status:      status,
			ExecutedQty: in.ExecutedQty,
			AvgPrice:    in.AvgPrice,
			Note:        in.Note,
		})
	}
	return planID, items, nil
}

func checkLinkage(planID, ticketPlan, orderPlan, exportPlan string) error {
	switch {
	case planID != ticketPlan:
		return newError(CodeLinkageMismatch, fmt.Sprintf("plan %s does not match ticket plan %s", planID, ticketPlan), nil)
	case planID != orderPlan:
		return newError(CodeLinkageMismatch, fmt.Sprintf("plan %s does not match order plan %s", planID, orderPlan), nil)
	case planID != exportPlan:
		return newError(CodeLinkageMismatch, fmt.Sprintf("plan %s does not match export plan %s", planID, exportPlan), nil)
	}
	return nil
}

// classify keeps the top-level decision at EXECUTED for any non-empty report;
// partial fills surface through execution_result and the item statuses.
func classify(items []models.RecordItem) (models.RecordDecision, models.ExecutionResult) {
	if len(items) == 0 {
		return models.RecordNoItems, models.ResultNotExecuted
	}
	var executed, partial int
	for _, it := range items {
		switch it.Status {
		case models.ItemExecuted:
			executed++
		case models.ItemPartial:
			partial++
		}
	}
	switch {
	case executed == len(items):
		return models.RecordExecuted, models.ResultExecuted
	case partial > 0 || executed > 0:
		return models.RecordExecuted, models.ResultPartial
	default:
		return models.RecordExecuted, models.ResultNotExecuted
	}
}

func fillsOf(items []models.RecordItem) []models.Fill {
	fills := []models.Fill{}
	for _, it := range items {
		if it.Status != models.ItemExecuted && it.Status != models.ItemPartial {
			continue
		}
		fills = append(fills, models.Fill{
			Ticker:    it.Ticker,
			Side:      it.Side,
			QtyFilled: it.ExecutedQty,
			AvgPrice:  it.AvgPrice,
			Note:      it.Note,
		})
	}
	return fills
}

func summarize(items []models.RecordItem) models.RecordSummary {
	s := models.RecordSummary{OrdersTotal: len(items)}
	for _, it := range items {
		switch it.Status {
		case models.ItemExecuted:
			s.ExecutedCount++
		case models.ItemPartial:
			s.PartialCount++
		case models.ItemSkipped:
			s.SkippedCount++
		case models.ItemCanceled:
			s.CanceledCount++
		}
	}
	return s
}

func reconcile(s models.RecordSummary, planned int) models.Reconciliation {
	unreported := planned - s.OrdersTotal
	if unreported < 0 {
		unreported = 0
	}
	return models.Reconciliation{
		PlannedCount: planned,
		Unreported:   unreported,
		DiffSummary: fmt.Sprintf("Exec:%d, Part:%d, Skip:%d, Cncl:%d",
			s.ExecutedCount, s.PartialCount, s.SkippedCount, s.CanceledCount),
	}
}
