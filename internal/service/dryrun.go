package service

import (
	"context"

	"go.uber.org/zap"

	"manualexec/internal/docstore"
	"manualexec/internal/metrics"
	"manualexec/internal/models"
)

// DryRunRecorder rehearses the record step against the current ticket.
type DryRunRecorder struct {
	Base
	Settings      *SettingsService
	DefaultPolicy string
}

func (d *DryRunRecorder) Generate(ctx context.Context, c Confirm) (*models.DryRunRecord, error) {
	if err := requireConfirm(c, "dry run"); err != nil {
		return nil, err
	}
	var ticket models.ManualExecutionTicket
	found, err := d.load(ctx, &ticket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(models.DocTicket)
	}

	policy := d.Policy(ctx)
	if policy == DryRunRefuseAfterReal {
		var rec models.ManualExecutionRecord
		hasReal, err := d.loadByKey(ctx, ticket.Linkage.PlanID, &rec)
		if err != nil {
			return nil, err
		}
		if hasReal {
			return nil, newError(CodePolicyBlocked, "a real record already exists for plan "+ticket.Linkage.PlanID, nil)
		}
	}

	now := d.Clock.Now()
	dr := &models.DryRunRecord{
		Schema: models.SchemaDryRun,
		ID:     "dry_run_" + now.Format("20060102_150405"),
		Asof:   asof(now),
		Linkage: models.RecordLinkage{
			PlanID:   ticket.Linkage.PlanID,
			ExportID: ticket.Linkage.ExportID,
			TicketID: ticket.ID,
		},
		Items:           []models.RecordItem{},
		Decision:        models.DryRunCompleted,
		ExecutionResult: models.ResultDryRun,
		Reason:          "DRY_RUN",
	}
	if _, err := d.save(ctx, dr, docstore.PutOptions{At: now}); err != nil {
		return nil, err
	}
	metrics.ObserveOperation("dry_run", string(dr.Decision))
	d.log().Info("dry run recorded",
		zap.String("id", dr.ID),
		zap.String("plan_id", dr.Linkage.PlanID),
		zap.String("policy", policy),
	)
	return dr, nil
}

func (d *DryRunRecorder) Latest(ctx context.Context) (*models.DryRunRecord, error) {
	var dr models.DryRunRecord
	found, err := d.load(ctx, &dr)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(models.DocDryRun)
	}
	return &dr, nil
}

// Policy resolves the runtime setting first, then the configured default.
func (d *DryRunRecorder) Policy(ctx context.Context) string {
	fallback, ok := ParseDryRunPolicy(d.DefaultPolicy)
	if !ok {
		fallback = DryRunRefuseAfterReal
	}
	if p, ok := ParseDryRunPolicy(d.Settings.GetString(ctx, SettingDryRunPolicy, fallback)); ok {
		return p
	}
	return fallback
}
