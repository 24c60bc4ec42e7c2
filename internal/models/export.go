package models

import "github.com/shopspring/decimal"

type ExportDecision string

const (
	ExportReady   ExportDecision = "READY"
	ExportEmpty   ExportDecision = "EMPTY"
	ExportBlocked ExportDecision = "BLOCKED"
)

type OrderPlanExport struct {
	Schema       string         `json:"schema"`
	ID           string         `json:"id"`
	Asof         string         `json:"asof"`
	Source       ExportSource   `json:"source"`
	Summary      ExportSummary  `json:"summary"`
	Orders       []OrderLine    `json:"orders"`
	HumanConfirm HumanConfirm   `json:"human_confirm"`
	Decision     ExportDecision `json:"decision"`
	Reason       string         `json:"reason,omitempty"`
	ReasonDetail string         `json:"reason_detail,omitempty"`
}

type ExportSource struct {
	PlanID       string       `json:"plan_id"`
	PlanAsof     string       `json:"plan_asof,omitempty"`
	PlanDecision PlanDecision `json:"plan_decision,omitempty"`
}

type ExportSummary struct {
	OrdersCount  int              `json:"orders_count"`
	BuysCount    int              `json:"buys_count"`
	SellsCount   int              `json:"sells_count"`
	BuyNotional  decimal.Decimal  `json:"buy_notional"`
	SellNotional decimal.Decimal  `json:"sell_notional"`
	CashBefore   *decimal.Decimal `json:"cash_before,omitempty"`
	CashAfterEst *decimal.Decimal `json:"cash_after_est,omitempty"`
}

// HumanConfirm carries the one-time token. It is the only place the token
// is ever written, apart from a successful prep echo.
type HumanConfirm struct {
	Required     bool   `json:"required"`
	ConfirmToken string `json:"confirm_token,omitempty"`
	HowToConfirm string `json:"how_to_confirm,omitempty"`
}

func (OrderPlanExport) DocType() DocType  { return DocOrderPlanExport }
func (OrderPlanExport) SchemaTag() string { return SchemaOrderPlanExport }
