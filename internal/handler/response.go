package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"manualexec/internal/audit"
	"manualexec/internal/service"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// decisionBody is what a mutating call answers with when it did not
// produce a document.
type decisionBody struct {
	Decision     string `json:"decision"`
	Reason       string `json:"reason"`
	ReasonDetail string `json:"reason_detail,omitempty"`
	Error        string `json:"error,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Decision answers with a document whose own decision is not a success, e.g.
// a TOKEN_MISMATCH prep.
func Decision(c *gin.Context, status int, decision string, data any) {
	c.Set(audit.DecisionKey, decision)
	c.JSON(status, apiResponse{
		Code:    status,
		Message: decision,
		Data:    data,
	})
}

// Fail maps a pipeline error to a decision-shaped body. Unclassified errors
// become BLOCKED with an error string and never a stack trace.
func Fail(c *gin.Context, err error) {
	code := service.CodeOf(err)
	status := statusFor(code)
	body := decisionBody{Decision: "BLOCKED", Reason: string(code), ReasonDetail: service.DetailOf(err)}
	if code == "" {
		body.Reason = "INTERNAL"
		body.ReasonDetail = ""
		body.Error = err.Error()
	}
	c.Set(audit.DecisionKey, "BLOCKED:"+body.Reason)
	c.JSON(status, apiResponse{
		Code:    status,
		Message: body.Reason,
		Data:    body,
	})
}

func statusFor(code service.Code) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation, service.CodeConfirmRequired:
		return http.StatusBadRequest
	case service.CodeNotReady, service.CodePolicyBlocked, service.CodeTokenMismatch, service.CodeLinkageMismatch:
		return http.StatusConflict
	case service.CodeLockTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func confirmOf(c *gin.Context) service.Confirm {
	return service.ParseConfirm(c.Query("confirm"))
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}
