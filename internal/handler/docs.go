package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# Manual Execution Service

Turns the planner's order plan into a human-confirmed ticket and records
what the operator executed at the broker.

## Auth

All /api/* routes require a Bearer token (issue one with `+"`manualexecctl token issue`"+`).
Health endpoints and /metrics are public.

## Confirm latch

Every mutating route requires the query parameter confirm=true. Without it
the call is refused with 400 and reason CONFIRM_REQUIRED; nothing is written.

## Loop

1. POST /api/manual_loop/order_plan/import?confirm=true
2. POST /api/manual_loop/export/regenerate?confirm=true
3. POST /api/manual_loop/prepare?confirm=true  {"confirm_token": "..."}
4. POST /api/manual_loop/ticket/regenerate?confirm=true
5. POST /api/manual_loop/record/submit?confirm=true
6. GET  /api/manual_loop/ops/summary/latest

## Notable Routes

- GET /healthz
- GET /readyz
- GET /metrics
- GET /swagger/index.html
- GET /api/manual_loop/export/latest
- GET /api/manual_loop/prep/latest
- GET /api/manual_loop/ticket/latest
- GET /api/manual_loop/record/latest?plan_id=
- POST /api/manual_loop/dry_run?confirm=true
- GET /api/manual_loop/dry_run/latest
- POST /api/manual_loop/ops/summary/regenerate?confirm=true
- GET /api/manual_loop/ops/summary/stream (websocket)
- GET /api/manual_loop/snapshots/:type?limit=
- DELETE /api/manual_loop/derived/:type?confirm=true
- GET /api/settings
- GET /api/settings/:key
- PUT /api/settings/:key?confirm=true
`)
	})
}
