package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"manualexec/internal/docstore"
	"manualexec/internal/metrics"
	"manualexec/internal/models"
)

// Documents is the input of Derive. A nil field means missing or unreadable.
type Documents struct {
	Plan   *models.OrderPlan
	Export *models.OrderPlanExport
	Prep   *models.ExecutionPrep
	Ticket *models.ManualExecutionTicket
	Record *models.ManualExecutionRecord
	DryRun *models.DryRunRecord
}

// Publisher receives every regenerated summary, e.g. websocket subscribers.
type Publisher interface {
	Publish(summary *models.OpsSummary)
}

// Derive reduces the latest documents to one stage. It is a pure function:
// the first matching rule wins and nothing is read or written.
func Derive(docs Documents, at string) models.OpsSummary {
	out := models.OpsSummary{
		Schema:   models.SchemaOpsSummary,
		Asof:     at,
		TopRisks: []models.Risk{},
	}
	loop := &out.ManualLoop
	exp := docs.Export
	if exp != nil {
		loop.PlanID = exp.Source.PlanID
		loop.Export = &models.ExportStatus{
			ID:          exp.ID,
			Asof:        exp.Asof,
			PlanID:      exp.Source.PlanID,
			Decision:    exp.Decision,
			OrdersCount: exp.Summary.OrdersCount,
		}
	}
	if p := docs.Prep; p != nil {
		loop.Prep = &models.PrepStatus{Asof: p.Asof, PlanID: p.Source.PlanID, Decision: p.Decision, Reason: p.Reason}
	}
	if t := docs.Ticket; t != nil {
		loop.Ticket = &models.TicketStatus{ID: t.ID, Asof: t.Asof, PlanID: t.Linkage.PlanID}
	}
	if r := docs.Record; r != nil {
		loop.Record = &models.RecordStatus{
			ID:              r.ID,
			Asof:            r.Asof,
			RecordVersion:   r.RecordVersion,
			Decision:        r.Decision,
			ExecutionResult: r.ExecutionResult,
			DiffSummary:     r.Reconciliation.DiffSummary,
		}
	}
	if d := docs.DryRun; d != nil {
		loop.DryRun = &models.DryRunStatus{ID: d.ID, Asof: d.Asof}
	}

	addRisk := func(code string, sev models.Severity, msg string, refs ...models.DocType) {
		r := models.Risk{Code: code, Severity: sev, Message: msg, EvidenceRefs: []string{}}
		for _, t := range refs {
			r.EvidenceRefs = append(r.EvidenceRefs, latestRef(t))
		}
		out.TopRisks = append(out.TopRisks, r)
	}

	switch {
	case exp == nil:
		loop.Stage = models.StageNeedPlan
		addRisk("NO_EXPORT", models.SeverityCritical, "no readable order plan export", models.DocOrderPlanExport)
	case exp.Decision == models.ExportBlocked:
		loop.Stage = models.StageNeedPlan
		addRisk("ORDER_PLAN_BLOCKED", models.SeverityCritical, fmt.Sprintf("plan %s is blocked: %s", exp.Source.PlanID, exp.ReasonDetail), models.DocOrderPlanExport, models.DocOrderPlan)
	case exp.Decision != models.ExportReady:
		loop.Stage = models.StageNeedPlan
		addRisk("EXPORT_EMPTY", models.SeverityInfo, fmt.Sprintf("plan %s has no orders to execute", exp.Source.PlanID), models.DocOrderPlanExport)
	case !prepConfirms(docs.Prep, exp):
		loop.Stage = models.StageNeedHumanConfirm
		addRisk("NEED_HUMAN_CONFIRM", models.SeverityWarn, fmt.Sprintf("plan %s awaits human confirmation", exp.Source.PlanID), models.DocOrderPlanExport, models.DocExecutionPrep)
		if p := docs.Prep; p != nil && p.Decision == models.PrepTokenMismatch && p.Source.ExportID == exp.ID {
			addRisk("TOKEN_MISMATCH", models.SeverityWarn, "last prepare attempt used a wrong token", models.DocExecutionPrep)
		}
	case docs.Ticket == nil || docs.Ticket.Linkage.PlanID != exp.Source.PlanID:
		loop.Stage = models.StageNeedTicket
		addRisk("NEED_TICKET", models.SeverityWarn, fmt.Sprintf("no ticket for plan %s", exp.Source.PlanID), models.DocTicket)
	case realRecordFor(docs.Record, exp.Source.PlanID) && docs.Record.AllExecuted():
		loop.Stage = models.StageDoneToday
	case realRecordFor(docs.Record, exp.Source.PlanID) && docs.Record.HasPartial():
		loop.Stage = models.StageDoneTodayPartial
		addRisk("PARTIAL_FILL", models.SeverityWarn, fmt.Sprintf("record v%d has partial fills (%s)", docs.Record.RecordVersion, docs.Record.Reconciliation.DiffSummary), models.DocRecord)
	default:
		loop.Stage = models.StagePrepReady
		switch {
		case realRecordFor(docs.Record, exp.Source.PlanID):
			addRisk("RECORD_NOT_EXECUTED", models.SeverityInfo, fmt.Sprintf("record v%d reports nothing executed", docs.Record.RecordVersion), models.DocRecord)
		case docs.DryRun != nil && docs.DryRun.Linkage.PlanID == exp.Source.PlanID:
			addRisk("DRY_RUN_ONLY", models.SeverityInfo, "only a dry run exists for this plan", models.DocDryRun)
		}
	}
	if docs.Plan != nil && exp != nil && docs.Plan.PlanID != exp.Source.PlanID {
		addRisk("EXPORT_STALE", models.SeverityWarn, fmt.Sprintf("plan %s has no export yet; export is for %s", docs.Plan.PlanID, exp.Source.PlanID), models.DocOrderPlan, models.DocOrderPlanExport)
	}
	loop.NextAction = nextAction(loop.Stage)
	return out
}

func prepConfirms(p *models.ExecutionPrep, exp *models.OrderPlanExport) bool {
	return p != nil &&
		p.Decision == models.PrepReady &&
		p.Source.PlanID == exp.Source.PlanID &&
		tokensEqual(p.Source.ConfirmToken, exp.HumanConfirm.ConfirmToken)
}

// realRecordFor ignores anything that was not a real report for planID.
func realRecordFor(r *models.ManualExecutionRecord, planID string) bool {
	return r != nil && r.Linkage.PlanID == planID && r.ExecutionResult != models.ResultDryRun
}

func latestRef(t models.DocType) string {
	return fmt.Sprintf("%s/latest/%s_latest.json", t, t)
}

func nextAction(stage models.Stage) models.NextAction {
	switch stage {
	case models.StageNeedPlan:
		return models.NextAction{
			Title:   "Import a plan and regenerate the export",
			Command: "manualexecctl plan import --file plan.json --confirm && manualexecctl export regenerate --confirm",
		}
	case models.StageNeedHumanConfirm:
		return models.NextAction{
			Title:   "Review the export and confirm with its token",
			Command: "manualexecctl prepare --confirm-token <token> --confirm",
			Notes:   "read the token from the export, never from logs",
		}
	case models.StageNeedTicket:
		return models.NextAction{Title: "Generate the execution ticket", Command: "manualexecctl ticket regenerate --confirm"}
	case models.StagePrepReady:
		return models.NextAction{
			Title:   "Execute at the broker and submit the record",
			Command: "manualexecctl record submit --file record.json --confirm-token <token> --confirm",
		}
	case models.StageDoneTodayPartial:
		return models.NextAction{
			Title:   "Follow up on partial fills",
			Command: "manualexecctl record submit --file record.json --confirm-token <token> --confirm",
			Notes:   "submit with a new idempotency key once the remaining orders are resolved",
		}
	default:
		return models.NextAction{Title: "Nothing to do until the next plan"}
	}
}

// OpsStageDeriver collects the latest documents and persists the derived
// summary.
type OpsStageDeriver struct {
	Base
	Publisher Publisher
}

// Collect loads the inputs of Derive. Unreadable documents are logged and
// treated as missing.
func (o *OpsStageDeriver) Collect(ctx context.Context) Documents {
	var docs Documents
	var plan models.OrderPlan
	if o.tryLoad(ctx, &plan) {
		docs.Plan = &plan
	}
	var exp models.OrderPlanExport
	if o.tryLoad(ctx, &exp) {
		docs.Export = &exp
	}
	var prep models.ExecutionPrep
	if o.tryLoad(ctx, &prep) {
		docs.Prep = &prep
	}
	var ticket models.ManualExecutionTicket
	if o.tryLoad(ctx, &ticket) {
		docs.Ticket = &ticket
	}
	if docs.Export != nil {
		var rec models.ManualExecutionRecord
		found, err := o.loadByKey(ctx, docs.Export.Source.PlanID, &rec)
		if err != nil {
			o.log().Warn("ops summary input unreadable", zap.String("doc_type", string(models.DocRecord)), zap.Error(err))
		} else if found {
			docs.Record = &rec
		}
	}
	var dr models.DryRunRecord
	if o.tryLoad(ctx, &dr) {
		docs.DryRun = &dr
	}
	return docs
}

func (o *OpsStageDeriver) tryLoad(ctx context.Context, doc models.Document) bool {
	found, err := o.load(ctx, doc)
	if err != nil {
		o.log().Warn("ops summary input unreadable", zap.String("doc_type", string(doc.DocType())), zap.Error(err))
		return false
	}
	return found
}

func (o *OpsStageDeriver) Regenerate(ctx context.Context, c Confirm) (*models.OpsSummary, error) {
	if err := requireConfirm(c, "ops summary regenerate"); err != nil {
		return nil, err
	}
	return o.refresh(ctx)
}

func (o *OpsStageDeriver) refresh(ctx context.Context) (*models.OpsSummary, error) {
	now := o.Clock.Now()
	summary := Derive(o.Collect(ctx), asof(now))
	if _, err := o.save(ctx, &summary, docstore.PutOptions{At: now}); err != nil {
		return nil, err
	}
	metrics.SetStage(summary.ManualLoop.Stage)
	if o.Publisher != nil {
		o.Publisher.Publish(&summary)
	}
	o.log().Info("ops summary regenerated",
		zap.String("stage", string(summary.ManualLoop.Stage)),
		zap.String("plan_id", summary.ManualLoop.PlanID),
		zap.Int("risks", len(summary.TopRisks)),
	)
	return &summary, nil
}

func (o *OpsStageDeriver) Latest(ctx context.Context) (*models.OpsSummary, error) {
	var summary models.OpsSummary
	found, err := o.load(ctx, &summary)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(models.DocOpsSummary)
	}
	return &summary, nil
}
