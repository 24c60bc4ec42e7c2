package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"manualexec/internal/docstore"
	"manualexec/internal/models"
)

// PlanSource reads the planner's latest OrderPlan and accepts a hand-off
// from the planner through ImportPlan.
type PlanSource struct {
	Base
}

func (s *PlanSource) LatestPlan(ctx context.Context) (*models.OrderPlan, error) {
	var plan models.OrderPlan
	found, err := s.load(ctx, &plan)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(models.DocOrderPlan)
	}
	return &plan, nil
}

func (s *PlanSource) ImportPlan(ctx context.Context, c Confirm, plan *models.OrderPlan) (*models.OrderPlan, error) {
	if err := requireConfirm(c, "plan import"); err != nil {
		return nil, err
	}
	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	out := *plan
	out.Schema = models.SchemaOrderPlan
	out.PlanID = strings.TrimSpace(out.PlanID)
	out.Orders = models.CloneOrders(plan.Orders)
	for i := range out.Orders {
		out.Orders[i].Ticker = strings.TrimSpace(out.Orders[i].Ticker)
	}
	if out.Asof == "" {
		out.Asof = asof(now)
	}
	if _, err := s.save(ctx, &out, docstore.PutOptions{At: now}); err != nil {
		return nil, err
	}
	s.log().Info("order plan imported",
		zap.String("plan_id", out.PlanID),
		zap.String("decision", string(out.Decision)),
		zap.Int("orders", len(out.Orders)),
	)
	return &out, nil
}

func validatePlan(plan *models.OrderPlan) error {
	if plan == nil {
		return newError(CodeValidation, "order plan body required", nil)
	}
	if plan.Schema != "" && plan.Schema != models.SchemaOrderPlan {
		return newError(CodeValidation, fmt.Sprintf("unknown schema %q", plan.Schema), nil)
	}
	if strings.TrimSpace(plan.PlanID) == "" {
		return newError(CodeValidation, "plan_id required", nil)
	}
	switch plan.Decision {
	case models.PlanGenerated, models.PlanEmpty, models.PlanBlocked:
	default:
		return newError(CodeValidation, fmt.Sprintf("unknown plan decision %q", plan.Decision), nil)
	}
	for i, o := range plan.Orders {
		if strings.TrimSpace(o.Ticker) == "" {
			return newError(CodeValidation, fmt.Sprintf("orders[%d].ticker required", i), nil)
		}
		if o.Side != models.SideBuy && o.Side != models.SideSell {
			return newError(CodeValidation, fmt.Sprintf("orders[%d].side must be BUY or SELL", i), nil)
		}
		if o.Qty.IsNegative() || o.PriceRef.IsNegative() || o.Notional.IsNegative() {
			return newError(CodeValidation, fmt.Sprintf("orders[%d] has a negative amount", i), nil)
		}
	}
	return nil
}
