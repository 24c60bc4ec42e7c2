package models

import "github.com/shopspring/decimal"

type PlanDecision string

const (
	PlanGenerated PlanDecision = "GENERATED"
	PlanEmpty     PlanDecision = "EMPTY"
	PlanBlocked   PlanDecision = "BLOCKED"
)

// OrderPlan is owned by the external planner. The pipeline only reads it,
// or stores one handed over through the import endpoint.
type OrderPlan struct {
	Schema       string           `json:"schema"`
	Asof         string           `json:"asof"`
	PlanID       string           `json:"plan_id"`
	Decision     PlanDecision     `json:"decision"`
	Reason       string           `json:"reason,omitempty"`
	Orders       []OrderLine      `json:"orders"`
	CashBefore   *decimal.Decimal `json:"cash_before,omitempty"`
	CashAfterEst *decimal.Decimal `json:"cash_after_est,omitempty"`
}

func (OrderPlan) DocType() DocType  { return DocOrderPlan }
func (OrderPlan) SchemaTag() string { return SchemaOrderPlan }
