package repositories

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/student-service/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist (or disappeared
	// between resolve and write).
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a conditional "not exists" create guard
	// fires on an id collision.
	ErrDuplicate = errors.New("record already exists")

	// ErrInvalidPageToken is returned when a pagination token does not decode.
	// Tokens come straight from clients, so callers map this to a validation
	// failure rather than a backend error.
	ErrInvalidPageToken = errors.New("invalid page token")
)

// StudentFilters selects an access path for List. Exactly one filter is
// honored per request; priority order is status, employer, program.
type StudentFilters struct {
	Status     *models.StudentStatus
	EmployerID *string
	ProgramID  *string
	Limit      int
	LastKey    string
}

// StudentList is one page of records plus an opaque continuation token.
type StudentList struct {
	Records       []*models.Student `json:"records"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
	Count         int               `json:"count"`
	HasMore       bool              `json:"hasMore"`
}

// BatchFailure preserves the per-item failure reason for caller reporting.
type BatchFailure struct {
	Draft  models.StudentDraft `json:"draft"`
	Reason string              `json:"reason"`
}

// BatchCreateResult reports independent per-item outcomes; one failure never
// aborts the batch.
type BatchCreateResult struct {
	Succeeded []*models.Student `json:"succeeded"`
	Failed    []BatchFailure    `json:"failed"`
}

// StudentRepository is the record store contract. Operations look atomic to
// callers regardless of how the backend keys records.
type StudentRepository interface {
	Create(ctx context.Context, draft models.StudentDraft) (*models.Student, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Student, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filters StudentFilters) (*StudentList, error)
	BatchCreate(ctx context.Context, drafts []models.StudentDraft) (*BatchCreateResult, error)
}

// Repository aggregates all repositories and connection lifecycle.
type Repository interface {
	Student() StudentRepository
	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager handles repository initialization and shutdown.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
