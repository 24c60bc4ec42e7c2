package audit

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"manualexec/internal/auth"
)

// Middleware records every non-GET call under /api. The request body is not
// recorded since it may carry a confirm token.
func Middleware(sink Sink, agent string, logger *zap.Logger) gin.HandlerFunc {
	if sink == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if strings.TrimSpace(agent) == "" {
		agent = "manualexec"
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		method := strings.ToUpper(c.Request.Method)
		if !strings.HasPrefix(path, "/api/") {
			return
		}
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			return
		}

		status := c.Writer.Status()
		details := map[string]any{
			"method":   method,
			"path":     path,
			"confirm":  c.Query("confirm") == "true",
			"status":   status,
			"duration": time.Since(start).String(),
		}
		if d, ok := c.Get(DecisionKey); ok {
			details["decision"] = d
		}
		e := Entry{
			ID:        uuid.NewString(),
			Agent:     agent,
			Action:    "manualexec_http_write",
			Level:     levelFromStatus(status),
			Operator:  auth.OperatorFromContext(c),
			Details:   details,
			CreatedAt: time.Now().UTC(),
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := sink.Write(ctx, e); err != nil && logger != nil {
			logger.Warn("audit write failed", zap.String("path", path), zap.Error(err))
		}
	}
}

// DecisionKey is set by handlers so the trail carries the outcome.
const DecisionKey = "manualexec.decision"
