package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/student-service/internal/services"
	"github.com/SAP-F-2025/student-service/internal/utils"
)

// Response is the uniform envelope every endpoint answers with.
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     interface{} `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"requestId,omitempty"`
}

// BaseHandler provides logging and response helpers shared by all handlers.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs a request-scoped info line.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c.Request.Context(), h.logger).Info(msg, args...)
}

// LogError logs a request-scoped error with full context; stack detail stays
// server-side.
func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err)
	utils.FromContext(c.Request.Context(), h.logger).Error(msg, args...)
}

// respondSuccess writes the success envelope.
func (h *BaseHandler) respondSuccess(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Response{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC(),
		RequestID: c.GetString("request_id"),
	})
}

// respondError writes the error envelope.
func (h *BaseHandler) respondError(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, Response{
		Success:   false,
		Error:     details,
		Message:   message,
		Timestamp: time.Now().UTC(),
		RequestID: c.GetString("request_id"),
	})
}

// handleServiceError maps domain errors to status codes: validation 400,
// not found 404, conflict 409, anything else 500.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError

	switch {
	case errors.As(err, &validationErr):
		h.respondError(c, http.StatusBadRequest, "Validation failed", validationErr.Violations)
	case errors.Is(err, services.ErrValidationFailed):
		h.respondError(c, http.StatusBadRequest, "Validation failed", err.Error())
	case errors.Is(err, services.ErrNotFound):
		h.respondError(c, http.StatusNotFound, "Resource not found", nil)
	case errors.Is(err, services.ErrAlreadyExists):
		h.respondError(c, http.StatusConflict, "Resource already exists", err.Error())
	default:
		h.LogError(c, err, "Unexpected service error")
		h.respondError(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}
