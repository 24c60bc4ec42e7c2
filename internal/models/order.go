package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func ParseSide(raw string) (Side, bool) {
	switch Side(strings.ToUpper(strings.TrimSpace(raw))) {
	case SideBuy:
		return SideBuy, true
	case SideSell:
		return SideSell, true
	default:
		return "", false
	}
}

// OrderLine is one recommended order as produced by the planner and carried
// through export, prep and ticket.
type OrderLine struct {
	Ticker       string          `json:"ticker"`
	Side         Side            `json:"side"`
	Qty          decimal.Decimal `json:"qty"`
	PriceRef     decimal.Decimal `json:"price_ref"`
	Notional     decimal.Decimal `json:"notional"`
	Reason       string          `json:"reason,omitempty"`
	ReasonDetail string          `json:"reason_detail,omitempty"`
}

// EffectiveNotional falls back to qty*price_ref when the planner left the
// notional empty.
func (o OrderLine) EffectiveNotional() decimal.Decimal {
	if !o.Notional.IsZero() {
		return o.Notional.Abs()
	}
	return o.Qty.Mul(o.PriceRef).Abs()
}

func CloneOrders(in []OrderLine) []OrderLine {
	if len(in) == 0 {
		return []OrderLine{}
	}
	out := make([]OrderLine, len(in))
	copy(out, in)
	return out
}
