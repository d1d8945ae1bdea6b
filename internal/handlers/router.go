package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/student-service/internal/services"
	"github.com/SAP-F-2025/student-service/internal/utils"
)

type HandlerManager struct {
	studentHandler *StudentHandler
	batchHandler   *BatchHandler
	healthHandler  *HealthHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		studentHandler: NewStudentHandler(serviceManager.Student(), logger),
		batchHandler:   NewBatchHandler(serviceManager.Batch(), serviceManager.Import(), logger),
		healthHandler:  NewHealthHandler(serviceManager.Health(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		students := v1.Group("/students")
		{
			students.POST("", hm.studentHandler.CreateStudent)
			students.GET("", hm.studentHandler.ListStudents)
			students.GET("/:id", hm.studentHandler.GetStudent)
			students.PUT("/:id", hm.studentHandler.UpdateStudent)
			students.DELETE("/:id", hm.studentHandler.DeleteStudent)

			students.POST("/batch", hm.batchHandler.SubmitBatch)
			students.POST("/batch/import", hm.batchHandler.ImportBatch)
		}
	}

	// Health check endpoints
	router.GET("/health", hm.healthHandler.Check)
	router.GET("/status", hm.healthHandler.Check)
}
