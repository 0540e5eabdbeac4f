package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusOf maps the error taxonomy onto HTTP status codes.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case common.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrJobAlreadyTerminal), errors.Is(err, common.ErrJobInProgress):
		return http.StatusConflict
	case errors.Is(err, common.ErrUnextractableDocument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) fail(c *gin.Context, err error) {
	status := StatusOf(err)
	body := ErrorResponse{
		Code:      strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_")),
		Message:   err.Error(),
		RequestID: common.RequestIDFromContext(c.Request.Context()),
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		body.Code = appErr.Code
		body.Message = appErr.Message
	}
	if status == http.StatusInternalServerError {
		h.log.Error("http.internal_error", "route", c.FullPath(), "error", err, "request_id", body.RequestID)
		body.Message = "internal error"
	}
	c.AbortWithStatusJSON(status, body)
}

func (h *handlers) badRequest(c *gin.Context, msg string) {
	h.fail(c, common.NewAppError("INVALID_INPUT", msg, common.ErrInvalidInput))
}

// scopeOf reads the tenant from headers, falling back to query parameters.
func scopeOf(c *gin.Context) entity.Scope {
	pick := func(header, query string) string {
		if v := strings.TrimSpace(c.GetHeader(header)); v != "" {
			return v
		}
		return strings.TrimSpace(c.Query(query))
	}
	return entity.Scope{
		CompanyID: pick("X-Company-ID", "company_id"),
		SiteID:    pick("X-Site-ID", "site_id"),
	}
}

func (h *handlers) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.badRequest(c, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *handlers) uuidQuery(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.badRequest(c, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *handlers) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
