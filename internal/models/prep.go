package models

import "github.com/shopspring/decimal"

type PrepDecision string

const (
	PrepReady         PrepDecision = "READY"
	PrepTokenMismatch PrepDecision = "TOKEN_MISMATCH"
	PrepBlocked       PrepDecision = "BLOCKED"
)

type SafetyVerdict string

const (
	SafetyPass SafetyVerdict = "PASS"
	SafetyWarn SafetyVerdict = "WARN"
)

type ExecutionPrep struct {
	Schema       string       `json:"schema"`
	Asof         string       `json:"asof"`
	Source       PrepSource   `json:"source"`
	Decision     PrepDecision `json:"decision"`
	Reason       string       `json:"reason"`
	ReasonDetail string       `json:"reason_detail,omitempty"`
	Orders       []OrderLine  `json:"orders"`
	Safety       *PrepSafety  `json:"safety,omitempty"`
}

// PrepSource echoes the confirm token only when the prep is READY.
type PrepSource struct {
	PlanID       string `json:"plan_id"`
	ExportID     string `json:"export_id,omitempty"`
	ConfirmToken string `json:"confirm_token,omitempty"`
}

type PrepSafety struct {
	OrdersCount         int             `json:"orders_count"`
	MaxOrdersAllowed    int             `json:"max_orders_allowed"`
	MaxSingleOrderRatio decimal.Decimal `json:"max_single_order_ratio"`
	LargestOrderRatio   decimal.Decimal `json:"largest_order_ratio"`
	Verdict             SafetyVerdict   `json:"verdict"`
	Warnings            []string        `json:"warnings,omitempty"`
}

func (ExecutionPrep) DocType() DocType  { return DocExecutionPrep }
func (ExecutionPrep) SchemaTag() string { return SchemaExecutionPrep }
