package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/SAP-F-2025/student-service/internal/models"
	"github.com/SAP-F-2025/student-service/internal/repositories"
	"github.com/SAP-F-2025/student-service/internal/validator"
)

// ===== SERVICE ERRORS =====

var (
	ErrValidationFailed = errors.New("validation failed")
	ErrNotFound         = errors.New("resource not found")
	ErrAlreadyExists    = errors.New("resource already exists")
)

// ValidationError carries the full violation list so handlers can surface
// every problem, not just the first.
type ValidationError struct {
	Violations validator.ValidationErrors
}

func (e *ValidationError) Error() string { return e.Violations.Error() }
func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

func newValidationError(violations validator.ValidationErrors) error {
	return &ValidationError{Violations: violations}
}

// ===== REQUEST/RESPONSE DTOs =====

// Use request types from the validator package
type CreateStudentRequest = validator.StudentCreateRequest
type UpdateStudentRequest = validator.StudentUpdateRequest
type ListStudentsQuery = validator.StudentListQuery
type BatchCreateRequest = validator.BatchCreateRequest

// BatchSubmitResponse reports the outcome of a batch submission. The
// synchronous path returns COMPLETED with inline results; the asynchronous
// path returns STARTED and the results arrive on the completion queue.
type BatchSubmitResponse struct {
	ExecutionID   string               `json:"executionId"`
	Status        string               `json:"status"`
	TotalStudents int                  `json:"totalStudents"`
	Successful    int                  `json:"successful"`
	Failed        int                  `json:"failed"`
	Skipped       []string             `json:"skipped,omitempty"`
	Results       []models.ItemResult  `json:"results,omitempty"`
	Summary       *models.BatchSummary `json:"summary,omitempty"`
}

// ComponentStatus is one backend's itemized health result.
type ComponentStatus struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latencyMs"`
}

// HealthReport aggregates all sub-checks; Healthy only if every check passed.
type HealthReport struct {
	Healthy    bool              `json:"healthy"`
	Timestamp  time.Time         `json:"timestamp"`
	Components []ComponentStatus `json:"components"`
}

// ===== SERVICE INTERFACES =====

type StudentService interface {
	Create(ctx context.Context, req *CreateStudentRequest) (*models.Student, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
	Update(ctx context.Context, id string, req *UpdateStudentRequest) (*models.Student, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, query *ListStudentsQuery) (*repositories.StudentList, error)
}

type BatchService interface {
	Submit(ctx context.Context, req *BatchCreateRequest) (*BatchSubmitResponse, error)
}

type ImportService interface {
	// ParseWorkbook converts an uploaded xlsx workbook into a batch request.
	ParseWorkbook(r io.Reader) (*BatchCreateRequest, error)
	// Archive stores the raw upload and returns its object key.
	Archive(ctx context.Context, filename string, r io.Reader) (string, error)
}

type HealthService interface {
	Check(ctx context.Context) *HealthReport
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Student() StudentService
	Batch() BatchService
	Import() ImportService
	Health() HealthService
	Aggregator() *AggregatorService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
