package models

import "time"

// Batch execution status values returned by the orchestrator and carried on
// completion messages.
const (
	BatchStarted   = "STARTED"
	BatchCompleted = "COMPLETED"
	BatchFailed    = "FAILED"
)

// StudentDraft is one creatable unit of a batch after validation and
// de-duplication.
type StudentDraft struct {
	Email      string                 `json:"email"`
	FirstName  string                 `json:"firstName"`
	LastName   string                 `json:"lastName"`
	ProgramID  *string                `json:"programId,omitempty"`
	EmployerID *string                `json:"employerId,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ProcessingMessage is published to the processing queue when the orchestrator
// chooses the asynchronous path. Delivery is at-least-once.
type ProcessingMessage struct {
	ExecutionID string         `json:"executionId"`
	Timestamp   time.Time      `json:"timestamp"`
	Input       []StudentDraft `json:"input"`
	// TotalStudents is the original batch size including skipped duplicates,
	// carried so the completion summary can report it.
	TotalStudents int      `json:"totalStudents"`
	Skipped       []string `json:"skipped,omitempty"`
}

// ItemResult is the per-item outcome of one workflow branch.
type ItemResult struct {
	Email            string    `json:"email"`
	StudentID        string    `json:"studentId,omitempty"`
	Success          bool      `json:"success"`
	Error            string    `json:"error,omitempty"`
	Attempts         int       `json:"attempts"`
	ProcessingTimeMS int64     `json:"processingTimeMs"`
	CompletedAt      time.Time `json:"completedAt"`
}

// BatchSummary aggregates the per-item outcomes of one execution. Total counts
// every unit of the submitted batch, including duplicates skipped before
// processing.
type BatchSummary struct {
	Total            int   `json:"total"`
	Successful       int   `json:"successful"`
	Failed           int   `json:"failed"`
	Skipped          int   `json:"skipped"`
	ProcessingTimeMS int64 `json:"processingTime"`
}

// CompletionMessage is published to the completion queue once every branch of
// an execution has been accounted for. Consumers key on ExecutionID, so
// re-delivery of the same message is harmless.
type CompletionMessage struct {
	ExecutionID string       `json:"executionId"`
	Status      string       `json:"status"`
	Timestamp   time.Time    `json:"timestamp"`
	Results     []ItemResult `json:"results"`
	Skipped     []string     `json:"skipped,omitempty"`
	Summary     BatchSummary `json:"summary"`
}
