package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type RecordDecision string

const (
	RecordExecuted RecordDecision = "EXECUTED"
	RecordNoItems  RecordDecision = "NO_ITEMS"
	RecordBlocked  RecordDecision = "BLOCKED"
)

type ExecutionResult string

const (
	ResultExecuted    ExecutionResult = "EXECUTED"
	ResultPartial     ExecutionResult = "PARTIAL"
	ResultNotExecuted ExecutionResult = "NOT_EXECUTED"
	ResultDryRun      ExecutionResult = "DRY_RUN"
)

type ItemStatus string

const (
	ItemExecuted ItemStatus = "EXECUTED"
	ItemPartial  ItemStatus = "PARTIAL"
	ItemCanceled ItemStatus = "CANCELED"
	ItemSkipped  ItemStatus = "SKIPPED"
)

func ParseItemStatus(raw string) (ItemStatus, bool) {
	switch s := ItemStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case ItemExecuted, ItemPartial, ItemCanceled, ItemSkipped:
		return s, true
	default:
		return "", false
	}
}

type ManualExecutionRecord struct {
	Schema          string          `json:"schema"`
	ID              string          `json:"id"`
	Asof            string          `json:"asof"`
	RecordVersion   int             `json:"record_version"`
	Linkage         RecordLinkage   `json:"linkage"`
	Dedupe          Dedupe          `json:"dedupe"`
	Items           []RecordItem    `json:"items"`
	Fills           []Fill          `json:"fills"`
	Summary         RecordSummary   `json:"summary"`
	Reconciliation  Reconciliation  `json:"reconciliation"`
	OperatorProof   OperatorProof   `json:"operator_proof"`
	Decision        RecordDecision  `json:"decision"`
	ExecutionResult ExecutionResult `json:"execution_result"`
	Reason          string          `json:"reason"`
}

type RecordLinkage struct {
	PlanID   string `json:"plan_id"`
	ExportID string `json:"export_id,omitempty"`
	TicketID string `json:"ticket_id,omitempty"`
}

type Dedupe struct {
	IdempotencyKey string `json:"idempotency_key"`
}

type RecordItem struct {
	Ticker      string          `json:"ticker"`
	Side        Side            `json:"side"`
	Status      ItemStatus      `json:"status"`
	ExecutedQty decimal.Decimal `json:"executed_qty"`
	AvgPrice    decimal.Decimal `json:"avg_price"`
	Note        string          `json:"note,omitempty"`
}

type Fill struct {
	Ticker    string          `json:"ticker"`
	Side      Side            `json:"side"`
	QtyFilled decimal.Decimal `json:"qty_filled"`
	AvgPrice  decimal.Decimal `json:"avg_price"`
	Note      string          `json:"note,omitempty"`
}

type RecordSummary struct {
	OrdersTotal   int `json:"orders_total"`
	ExecutedCount int `json:"executed_count"`
	PartialCount  int `json:"partial_count"`
	SkippedCount  int `json:"skipped_count"`
	CanceledCount int `json:"canceled_count"`
}

type Reconciliation struct {
	PlannedCount int    `json:"planned_count"`
	Unreported   int    `json:"unreported_count"`
	DiffSummary  string `json:"diff_summary"`
}

type OperatorProof struct {
	FilledAt     string `json:"filled_at"`
	Method       string `json:"method"`
	EvidenceNote string `json:"evidence_note,omitempty"`
	Operator     string `json:"operator,omitempty"`
}

// AllExecuted is true for a non-empty item list where every item filled.
func (r *ManualExecutionRecord) AllExecuted() bool {
	if r == nil || len(r.Items) == 0 {
		return false
	}
	for _, it := range r.Items {
		if it.Status != ItemExecuted {
			return false
		}
	}
	return true
}

func (r *ManualExecutionRecord) HasPartial() bool {
	if r == nil {
		return false
	}
	for _, it := range r.Items {
		if it.Status == ItemPartial {
			return true
		}
	}
	return r.ExecutionResult == ResultPartial
}

func (ManualExecutionRecord) DocType() DocType  { return DocRecord }
func (ManualExecutionRecord) SchemaTag() string { return SchemaRecord }
