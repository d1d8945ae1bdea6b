package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/student-service/internal/models"
	"github.com/SAP-F-2025/student-service/internal/services"
	"github.com/SAP-F-2025/student-service/internal/utils"
)

// maxImportSize caps uploaded workbook size at 10 MiB.
const maxImportSize = 10 << 20

type BatchHandler struct {
	BaseHandler
	batch   services.BatchService
	imports services.ImportService
}

func NewBatchHandler(batch services.BatchService, imports services.ImportService, logger utils.Logger) *BatchHandler {
	return &BatchHandler{
		BaseHandler: NewBaseHandler(logger),
		batch:       batch,
		imports:     imports,
	}
}

// SubmitBatch accepts a batch of students for creation. Small or sequential
// batches are processed inline and answer 200 COMPLETED; parallel batches are
// handed to the processing queue and answer 202 STARTED.
// @Summary Submit student batch
// @Tags students
// @Accept json
// @Produce json
// @Param batch body services.BatchCreateRequest true "Batch of students"
// @Success 200 {object} Response{data=services.BatchSubmitResponse}
// @Success 202 {object} Response{data=services.BatchSubmitResponse}
// @Failure 400 {object} Response
// @Failure 409 {object} Response
// @Router /students/batch [post]
func (h *BatchHandler) SubmitBatch(c *gin.Context) {
	var req services.BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Submitting student batch", "students", len(req.Students), "parallel", req.Parallel)

	resp, err := h.batch.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondBatch(c, resp)
}

// ImportBatch accepts an xlsx workbook upload, archives the raw file and
// submits its rows as a parallel batch.
// @Summary Import student batch from xlsx
// @Tags students
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx workbook"
// @Success 202 {object} Response{data=services.BatchSubmitResponse}
// @Failure 400 {object} Response
// @Router /students/batch/import [post]
func (h *BatchHandler) ImportBatch(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Missing upload", "form field 'file' is required")
		return
	}
	if fileHeader.Size > maxImportSize {
		h.respondError(c, http.StatusBadRequest, "Upload too large", "workbook exceeds 10MB limit")
		return
	}

	h.LogRequest(c, "Importing student batch", "filename", fileHeader.Filename, "size", fileHeader.Size)

	upload, err := fileHeader.Open()
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Unreadable upload", err.Error())
		return
	}
	defer upload.Close()

	key, err := h.imports.Archive(c.Request.Context(), fileHeader.Filename, upload)
	if err != nil {
		h.LogError(c, err, "Failed to archive import file")
		h.respondError(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	// Archive consumed the stream; reopen for parsing.
	parseFile, err := fileHeader.Open()
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Unreadable upload", err.Error())
		return
	}
	defer parseFile.Close()

	req, err := h.imports.ParseWorkbook(parseFile)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid workbook", err.Error())
		return
	}

	resp, err := h.batch.Submit(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Import batch submitted", "archive_key", key, "execution_id", resp.ExecutionID)

	h.respondBatch(c, resp)
}

func (h *BatchHandler) respondBatch(c *gin.Context, resp *services.BatchSubmitResponse) {
	if resp.Status == models.BatchStarted {
		h.respondSuccess(c, http.StatusAccepted, resp, "Batch processing started")
		return
	}
	h.respondSuccess(c, http.StatusOK, resp, "Batch processing completed")
}
