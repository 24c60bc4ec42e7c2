package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"manualexec/internal/audit"
	"manualexec/internal/auth"
	"manualexec/internal/models"
	"manualexec/internal/service"
	"manualexec/internal/stream"
)

type ManualLoopHandler struct {
	Pipeline *service.Pipeline
	// Hub is optional; without it the stream route answers 404.
	Hub *stream.Hub
}

type prepareRequest struct {
	ConfirmToken string `json:"confirm_token"`
}

type recordRequest struct {
	ConfirmToken string `json:"confirm_token"`
	service.RecordPayload
}

func (h *ManualLoopHandler) Register(r *gin.Engine) {
	g := r.Group("/api/manual_loop")
	g.GET("/order_plan/latest", h.planLatest)
	g.POST("/order_plan/import", h.planImport)
	g.GET("/export/latest", h.exportLatest)
	g.POST("/export/regenerate", h.exportRegenerate)
	g.POST("/prepare", h.prepare)
	g.GET("/prep/latest", h.prepLatest)
	g.POST("/ticket/regenerate", h.ticketRegenerate)
	g.GET("/ticket/latest", h.ticketLatest)
	g.POST("/record/submit", h.recordSubmit)
	g.GET("/record/latest", h.recordLatest)
	g.POST("/dry_run", h.dryRun)
	g.GET("/dry_run/latest", h.dryRunLatest)
	g.GET("/ops/summary/latest", h.opsLatest)
	g.POST("/ops/summary/regenerate", h.opsRegenerate)
	g.GET("/ops/summary/stream", h.opsStream)
	g.GET("/ops/summary/stream/status", h.opsStreamStatus)
	g.GET("/snapshots/:type", h.snapshots)
	g.DELETE("/derived/:type", h.purge)
}

// @Summary Latest order plan
// @Tags manual_loop
// @Success 200 {object} models.OrderPlan
// @Failure 404 {object} map[string]any
// @Router /api/manual_loop/order_plan/latest [get]
func (h *ManualLoopHandler) planLatest(c *gin.Context) {
	plan, err := h.Pipeline.Plans.LatestPlan(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, plan, nil)
}

// @Summary Import an order plan from the planner
// @Tags manual_loop
// @Param confirm query string true "must be true"
// @Param body body models.OrderPlan true "order plan"
// @Success 200 {object} models.OrderPlan
// @Failure 400 {object} map[string]any
// @Router /api/manual_loop/order_plan/import [post]
func (h *ManualLoopHandler) planImport(c *gin.Context) {
	confirm := confirmOf(c)
	var plan models.OrderPlan
	if confirm.IsSet() {
		if err := c.ShouldBindJSON(&plan); err != nil {
			Fail(c, service.Validation("invalid json: "+err.Error()))
			return
		}
	}
	out, err := h.Pipeline.Plans.ImportPlan(c.Request.Context(), confirm, &plan)
	if err != nil {
		Fail(c, err)
		return
	}
	h.mutated(c, string(out.Decision))
	Ok(c, out, nil)
}

// @Summary Latest order plan export
// @Tags manual_loop
// @Success 200 {object} models.OrderPlanExport
// @Failure 404 {object} map[string]any
// @Router /api/manual_loop/export/latest [get]
func (h *ManualLoopHandler) exportLatest(c *gin.Context) {
	exp, err := h.Pipeline.Exports.Latest(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, exp, nil)
}

// @Summary Regenerate the export from the latest plan
// @Tags manual_loop
// @Param confirm query string true "must be true"
// @Success 200 {object} models.OrderPlanExport
// @Router /api/manual_loop/export/regenerate [post]
func (h *ManualLoopHandler) exportRegenerate(c *gin.Context) {
	exp, err := h.Pipeline.Exports.Generate(c.Request.Context(), confirmOf(c))
	if err != nil {
		Fail(c, err)
		return
	}
	h.mutated(c, string(exp.Decision))
	Ok(c, exp, nil)
}

// @Summary Confirm the export with its token
// @Tags manual_loop
// @Param confirm query string true "must be true"
// @Param body body prepareRequest true "confirm token"
// @Success 200 {object} models.ExecutionPrep
// @Failure 409 {object} map[string]any
// @Router /api/manual_loop/prepare [post]
func (h *ManualLoopHandler) prepare(c *gin.Context) {
	confirm := confirmOf(c)
	var req prepareRequest
	if confirm.IsSet() {
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, service.Validation("invalid json: "+err.Error()))
			return
		}
	}
	prep, err := h.Pipeline.Preps.Prepare(c.Request.Context(), confirm, strings.TrimSpace(req.ConfirmToken))
	if err != nil {
		Fail(c, err)
		return
	}
	h.Pipeline.AutoRefresh(c.Request.Context())
	if prep.Decision != models.PrepReady {
		Decision(c, http.StatusConflict, string(prep.Decision), prep)
		return
	}
	c.Set(audit.DecisionKey, string(prep.Decision))
	Ok(c, prep, nil)
}

// @Summary Latest execution prep
// @Tags manual_loop
// @Success 200 {object} models.ExecutionPrep
// @Router /api/manual_loop/prep/latest [get]
func (h *ManualLoopHandler) prepLatest(c *gin.Context) {
	prep, err := h.Pipeline.Preps.Latest(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, prep, nil)
}

// @Summary Generate the execution ticket
// @Tags manual_loop
// @Param confirm query string true "must be true"
// @Success 200 {object} models.ManualExecutionTicket
// @Failure 409 {object} map[string]any
// @Router /api/manual_loop/ticket/regenerate [post]
func (h *ManualLoopHandler) ticketRegenerate(c *gin.Context) {
	ticket, err := h.Pipeline.Tickets.Generate(c.Request.Context(), confirmOf(c))
	if err != nil {
		Fail(c, err)
		return
	}
	h.mutated(c, "GENERATED")
	Ok(c, ticket, nil)
}

// @Summary Latest execution ticket
// @Tags manual_loop
// @Success 200 {object} models.ManualExecutionTicket
// @Router /api/manual_loop/ticket/latest [get]
func (h *ManualLoopHandler) ticketLatest(c *gin.Context) {
	ticket, err := h.Pipeline.Tickets.Latest(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, ticket, nil)
}

// @Summary Submit what was executed at the broker
// @Tags manual_loop
// @Param confirm query string true "must be true"
// @Param body body recordRequest true "record payload"
// @Success 200 {object} models.ManualExecutionRecord
// @Failure 409 {object} map[string]any
// @Router /api/manual_loop/record/submit [post]
func (h *ManualLoopHandler) recordSubmit(c *gin.Context) {
	confirm := confirmOf(c)
	var req recordRequest
	if confirm.IsSet() {
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, service.Validation("invalid json: "+err.Error()))
			return
		}
	}
	req.Operator = auth.OperatorFromContext(c)
	res, err := h.Pipeline.Records.Submit(c.Request.Context(), confirm, strings.TrimSpace(req.ConfirmToken), req.RecordPayload)
	if err != nil {
		Fail(c, err)
		return
	}
	if res.Duplicate {
		c.Set(audit.DecisionKey, string(service.CodeDuplicateIgnored))
		Ok(c, res.Record, map[string]any{"result": string(service.CodeDuplicateIgnored), "record_version": res.Record.RecordVersion})
		return
	}
	h.mutated(c, string(res.Record.ExecutionResult))
	Ok(c, res.Record, map[string]any{"result": "SUBMITTED", "record_version": res.Record.RecordVersion})
}

// @Summary Latest execution record
// @Tags manual_loop
// @Param plan_id query string false "plan id; empty means the most recent of any plan"
// @Success 200 {object} models.ManualExecutionRecord
// @Router /api/manual_loop/record/latest [get]
func (h *ManualLoopHandler) recordLatest(c *gin.Context) {
	rec, err := h.Pipeline.Records.Latest(c.Request.Context(), strings.TrimSpace(c.Query("plan_id")))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, rec, nil)
}

// @Summary Record a dry run against the current ticket
// @Tags manual_loop
// @Param confirm query string true "must be true"
// @Success 200 {object} models.DryRunRecord
// @Failure 409 {object} map[string]any
// @Router /api/manual_loop/dry_run [post]
func (h *ManualLoopHandler) dryRun(c *gin.Context) {
	dr, err := h.Pipeline.DryRuns.Generate(c.Request.Context(), confirmOf(c))
	if err != nil {
		Fail(c, err)
		return
	}
	h.mutated(c, string(dr.Decision))
	Ok(c, dr, map[string]any{"policy": h.Pipeline.DryRuns.Policy(c.Request.Context())})
}

// @Summary Latest dry run
// @Tags manual_loop
// @Success 200 {object} models.DryRunRecord
// @Router /api/manual_loop/dry_run/latest [get]
func (h *ManualLoopHandler) dryRunLatest(c *gin.Context) {
	dr, err := h.Pipeline.DryRuns.Latest(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, dr, nil)
}

// @Summary Latest ops summary
// @Tags manual_loop
// @Success 200 {object} models.OpsSummary
// @Router /api/manual_loop/ops/summary/latest [get]
func (h *ManualLoopHandler) opsLatest(c *gin.Context) {
	summary, err := h.Pipeline.Ops.Latest(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, summary, nil)
}

// @Summary Rebuild the ops summary
// @Tags manual_loop
// @Param confirm query string true "must be true"
// @Success 200 {object} models.OpsSummary
// @Router /api/manual_loop/ops/summary/regenerate [post]
func (h *ManualLoopHandler) opsRegenerate(c *gin.Context) {
	summary, err := h.Pipeline.Ops.Regenerate(c.Request.Context(), confirmOf(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.Set(audit.DecisionKey, string(summary.ManualLoop.Stage))
	Ok(c, summary, nil)
}

// @Summary Stream ops summaries over websocket
// @Tags manual_loop
// @Router /api/manual_loop/ops/summary/stream [get]
func (h *ManualLoopHandler) opsStream(c *gin.Context) {
	if h.Hub == nil {
		Error(c, http.StatusNotFound, "stream disabled", nil)
		return
	}
	h.Hub.Serve(c)
}

func (h *ManualLoopHandler) opsStreamStatus(c *gin.Context) {
	if h.Hub == nil {
		Error(c, http.StatusNotFound, "stream disabled", nil)
		return
	}
	h.Hub.Status(c)
}

// @Summary List snapshots of a document type
// @Tags manual_loop
// @Param type path string true "document type"
// @Param limit query int false "max items"
// @Success 200 {array} docstore.SnapshotInfo
// @Router /api/manual_loop/snapshots/{type} [get]
func (h *ManualLoopHandler) snapshots(c *gin.Context) {
	docType, ok := models.ParseDocType(c.Param("type"))
	if !ok {
		Fail(c, service.Validation("unknown document type "+c.Param("type")))
		return
	}
	limit := intQuery(c, "limit", 50)
	items, err := h.Pipeline.ListSnapshots(c.Request.Context(), docType, limit)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, map[string]any{"doc_type": docType, "limit": limit, "count": len(items)})
}

// @Summary Purge a derived document type
// @Tags manual_loop
// @Param type path string true "dry_run_record or ops_summary"
// @Param confirm query string true "must be true"
// @Success 200 {object} map[string]any
// @Router /api/manual_loop/derived/{type} [delete]
func (h *ManualLoopHandler) purge(c *gin.Context) {
	docType, ok := models.ParseDocType(c.Param("type"))
	if !ok {
		Fail(c, service.Validation("unknown document type "+c.Param("type")))
		return
	}
	if err := h.Pipeline.Purge(c.Request.Context(), confirmOf(c), docType); err != nil {
		Fail(c, err)
		return
	}
	c.Set(audit.DecisionKey, "PURGED")
	Ok(c, gin.H{"doc_type": docType, "purged": true}, nil)
}

func (h *ManualLoopHandler) mutated(c *gin.Context, decision string) {
	c.Set(audit.DecisionKey, decision)
	h.Pipeline.AutoRefresh(c.Request.Context())
}
