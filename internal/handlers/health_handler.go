package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/student-service/internal/services"
	"github.com/SAP-F-2025/student-service/internal/utils"
)

type HealthHandler struct {
	BaseHandler
	health services.HealthService
}

func NewHealthHandler(health services.HealthService, logger utils.Logger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: NewBaseHandler(logger),
		health:      health,
	}
}

// Check probes every backend and reports itemized results. Answers 200 when
// all components pass, 503 otherwise so load balancers can act on it.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} Response{data=services.HealthReport}
// @Failure 503 {object} Response{data=services.HealthReport}
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	report := h.health.Check(c.Request.Context())

	if !report.Healthy {
		c.JSON(http.StatusServiceUnavailable, Response{
			Success:   false,
			Data:      report,
			Message:   "unhealthy",
			Timestamp: report.Timestamp,
			RequestID: c.GetString("request_id"),
		})
		return
	}

	h.respondSuccess(c, http.StatusOK, report, "healthy")
}
