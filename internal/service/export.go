package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"manualexec/internal/docstore"
	"manualexec/internal/metrics"
	"manualexec/internal/models"
)

const howToConfirm = "POST /api/manual_loop/prepare?confirm=true with body {\"confirm_token\": \"<token>\"}"

// ExportGenerator renders the latest plan for human review and mints the
// confirm token that gates everything downstream.
type ExportGenerator struct {
	Base
	Plans *PlanSource
}

func (g *ExportGenerator) Generate(ctx context.Context, c Confirm) (*models.OrderPlanExport, error) {
	if err := requireConfirm(c, "export regenerate"); err != nil {
		return nil, err
	}
	plan, err := g.Plans.LatestPlan(ctx)
	if err != nil {
		return nil, err
	}

	now := g.Clock.Now()
	exp := &models.OrderPlanExport{
		Schema: models.SchemaOrderPlanExport,
		ID:     uuid.NewString(),
		Asof:   asof(now),
		Source: models.ExportSource{
			PlanID:       plan.PlanID,
			PlanAsof:     plan.Asof,
			PlanDecision: plan.Decision,
		},
		Summary:      summarizeOrders(plan),
		Orders:       models.CloneOrders(plan.Orders),
		HumanConfirm: models.HumanConfirm{Required: true},
	}

	switch {
	case plan.Decision == models.PlanBlocked:
		exp.Decision = models.ExportBlocked
		exp.Reason = "ORDER_PLAN_BLOCKED"
		exp.ReasonDetail = plan.Reason
	case len(plan.Orders) == 0 && plan.Decision == models.PlanEmpty:
		exp.Decision = models.ExportEmpty
		exp.Reason = "ORDER_PLAN_EMPTY"
	default:
		token, err := newConfirmToken()
		if err != nil {
			return nil, newError(CodeIO, "mint confirm token", err)
		}
		exp.Decision = models.ExportReady
		exp.Reason = "AWAITING_HUMAN_CONFIRM"
		exp.HumanConfirm.ConfirmToken = token
		exp.HumanConfirm.HowToConfirm = howToConfirm
	}

	if _, err := g.save(ctx, exp, docstore.PutOptions{At: now}); err != nil {
		return nil, err
	}
	metrics.ObserveOperation("export", string(exp.Decision))
	g.log().Info("order plan export generated",
		zap.String("export_id", exp.ID),
		zap.String("plan_id", exp.Source.PlanID),
		zap.String("decision", string(exp.Decision)),
		zap.Int("orders", exp.Summary.OrdersCount),
	)
	return exp, nil
}

func (g *ExportGenerator) Latest(ctx context.Context) (*models.OrderPlanExport, error) {
	var exp models.OrderPlanExport
	found, err := g.load(ctx, &exp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(models.DocOrderPlanExport)
	}
	return &exp, nil
}

func summarizeOrders(plan *models.OrderPlan) models.ExportSummary {
	s := models.ExportSummary{
		OrdersCount:  len(plan.Orders),
		BuyNotional:  decimal.Zero,
		SellNotional: decimal.Zero,
		CashBefore:   plan.CashBefore,
		CashAfterEst: plan.CashAfterEst,
	}
	for _, o := range plan.Orders {
		switch o.Side {
		case models.SideBuy:
			s.BuysCount++
			s.BuyNotional = s.BuyNotional.Add(o.EffectiveNotional())
		case models.SideSell:
			s.SellsCount++
			s.SellNotional = s.SellNotional.Add(o.EffectiveNotional())
		}
	}
	if s.CashAfterEst == nil && s.CashBefore != nil {
		est := s.CashBefore.Sub(s.BuyNotional).Add(s.SellNotional)
		s.CashAfterEst = &est
	}
	return s
}

func describeExport(exp *models.OrderPlanExport) string {
	return fmt.Sprintf("export %s for plan %s is %s", exp.ID, exp.Source.PlanID, exp.Decision)
}
