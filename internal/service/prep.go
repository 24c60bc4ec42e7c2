package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"manualexec/internal/docstore"
	"manualexec/internal/metrics"
	"manualexec/internal/models"
)

const (
	defaultMaxOrdersAllowed = 20
	defaultMaxSingleRatio   = "0.35"
)

// PrepValidator checks the operator's token against the current export.
// Every outcome is persisted for audit.
type PrepValidator struct {
	Base
	MaxOrdersAllowed    int
	MaxSingleOrderRatio decimal.Decimal
}

func (p *PrepValidator) Prepare(ctx context.Context, c Confirm, token string) (*models.ExecutionPrep, error) {
	if err := requireConfirm(c, "prepare"); err != nil {
		return nil, err
	}
	var exp models.OrderPlanExport
	found, err := p.load(ctx, &exp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(models.DocOrderPlanExport)
	}

	now := p.Clock.Now()
	prep := &models.ExecutionPrep{
		Schema: models.SchemaExecutionPrep,
		Asof:   asof(now),
		Source: models.PrepSource{
			PlanID:   exp.Source.PlanID,
			ExportID: exp.ID,
		},
		Orders: []models.OrderLine{},
	}

	switch {
	case exp.Decision != models.ExportReady:
		prep.Decision = models.PrepBlocked
		prep.Reason = "EXPORT_NOT_READY"
		prep.ReasonDetail = describeExport(&exp)
	case !tokensEqual(token, exp.HumanConfirm.ConfirmToken):
		prep.Decision = models.PrepTokenMismatch
		prep.Reason = "TOKEN_MISMATCH"
		prep.ReasonDetail = "supplied token does not match the current export"
	default:
		prep.Decision = models.PrepReady
		prep.Reason = "CONFIRMED"
		prep.ReasonDetail = "human confirmation token matched"
		prep.Source.ConfirmToken = exp.HumanConfirm.ConfirmToken
		prep.Orders = models.CloneOrders(exp.Orders)
		prep.Safety = p.safety(prep.Orders)
	}

	if _, err := p.save(ctx, prep, docstore.PutOptions{At: now}); err != nil {
		return nil, err
	}
	metrics.ObserveOperation("prepare", string(prep.Decision))
	p.log().Info("execution prep recorded",
		zap.String("plan_id", prep.Source.PlanID),
		zap.String("export_id", prep.Source.ExportID),
		zap.String("decision", string(prep.Decision)),
	)
	return prep, nil
}

func (p *PrepValidator) Latest(ctx context.Context) (*models.ExecutionPrep, error) {
	var prep models.ExecutionPrep
	found, err := p.load(ctx, &prep)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(models.DocExecutionPrep)
	}
	return &prep, nil
}

// safety is informational: WARN never blocks the ticket.
func (p *PrepValidator) safety(orders []models.OrderLine) *models.PrepSafety {
	maxOrders := p.MaxOrdersAllowed
	if maxOrders <= 0 {
		maxOrders = defaultMaxOrdersAllowed
	}
	maxRatio := p.MaxSingleOrderRatio
	if !maxRatio.IsPositive() {
		maxRatio = decimal.RequireFromString(defaultMaxSingleRatio)
	}

	total := decimal.Zero
	largest := decimal.Zero
	for _, o := range orders {
		n := o.EffectiveNotional()
		total = total.Add(n)
		if n.GreaterThan(largest) {
			largest = n
		}
	}
	ratio := decimal.Zero
	if total.IsPositive() {
		ratio = largest.DivRound(total, 4)
	}

	s := &models.PrepSafety{
		OrdersCount:         len(orders),
		MaxOrdersAllowed:    maxOrders,
		MaxSingleOrderRatio: maxRatio,
		LargestOrderRatio:   ratio,
		Verdict:             models.SafetyPass,
	}
	if len(orders) > maxOrders {
		s.Warnings = append(s.Warnings, fmt.Sprintf("ORDERS_COUNT_EXCEEDS_LIMIT: %d > %d", len(orders), maxOrders))
	}
	// A single order is trivially 100% of the total.
	if len(orders) > 1 && ratio.GreaterThan(maxRatio) {
		s.Warnings = append(s.Warnings, fmt.Sprintf("SINGLE_ORDER_RATIO_EXCEEDS_LIMIT: %s > %s", ratio.String(), maxRatio.String()))
	}
	if len(s.Warnings) > 0 {
		s.Verdict = models.SafetyWarn
	}
	return s
}
