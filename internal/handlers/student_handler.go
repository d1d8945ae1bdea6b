package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/student-service/internal/services"
	"github.com/SAP-F-2025/student-service/internal/utils"
)

type StudentHandler struct {
	BaseHandler
	service services.StudentService
}

func NewStudentHandler(service services.StudentService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateStudent creates a single student record
// @Summary Create student
// @Tags students
// @Accept json
// @Produce json
// @Param student body services.CreateStudentRequest true "Student data"
// @Success 201 {object} Response{data=models.Student}
// @Failure 400 {object} Response
// @Failure 409 {object} Response
// @Router /students [post]
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req services.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Creating student")

	student, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusCreated, student, "Student created")
}

// GetStudent retrieves a student by id
// @Summary Get student
// @Tags students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} Response{data=models.Student}
// @Failure 404 {object} Response
// @Router /students/{id} [get]
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id := c.Param("id")

	h.LogRequest(c, "Getting student", "student_id", id)

	student, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusOK, student, "")
}

// UpdateStudent applies a partial update to a student
// @Summary Update student
// @Tags students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param student body services.UpdateStudentRequest true "Fields to update"
// @Success 200 {object} Response{data=models.Student}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /students/{id} [put]
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id := c.Param("id")

	var req services.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Updating student", "student_id", id)

	student, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusOK, student, "Student updated")
}

// DeleteStudent hard-deletes a student
// @Summary Delete student
// @Tags students
// @Param id path string true "Student ID"
// @Success 204 "No Content"
// @Failure 404 {object} Response
// @Router /students/{id} [delete]
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id := c.Param("id")

	h.LogRequest(c, "Deleting student", "student_id", id)

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListStudents lists students with optional filters and pagination
// @Summary List students
// @Tags students
// @Produce json
// @Param limit query int false "Page size (1-100, default 20)"
// @Param status query string false "Filter by status"
// @Param programId query string false "Filter by program"
// @Param employerId query string false "Filter by employer"
// @Param lastKey query string false "Opaque continuation token"
// @Success 200 {object} Response{data=repositories.StudentList}
// @Failure 400 {object} Response
// @Router /students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	query := services.ListStudentsQuery{}

	if err := c.ShouldBindQuery(&query); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}
	// Empty string pointers from unset query params would fail enum checks.
	if query.Status != nil && *query.Status == "" {
		query.Status = nil
	}
	if query.ProgramID != nil && *query.ProgramID == "" {
		query.ProgramID = nil
	}
	if query.EmployerID != nil && *query.EmployerID == "" {
		query.EmployerID = nil
	}

	h.LogRequest(c, "Listing students")

	list, err := h.service.List(c.Request.Context(), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusOK, list, "")
}
