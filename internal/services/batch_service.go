package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/student-service/internal/messaging"
	"github.com/SAP-F-2025/student-service/internal/models"
	"github.com/SAP-F-2025/student-service/internal/repositories"
	"github.com/SAP-F-2025/student-service/internal/validator"
)

type batchService struct {
	repo      repositories.Repository
	queue     *messaging.Queue
	logger    *slog.Logger
	validator *validator.Validator
}

// NewBatchService creates the batch orchestrator.
func NewBatchService(repo repositories.Repository, queue *messaging.Queue, logger *slog.Logger, v *validator.Validator) BatchService {
	return &batchService{
		repo:      repo,
		queue:     queue,
		logger:    logger,
		validator: v,
	}
}

// Submit chooses between the synchronous and asynchronous execution strategy
// at submission time. Items whose email already exists are skipped; a batch
// where every item is skipped is rejected as a conflict before any write.
func (s *batchService) Submit(ctx context.Context, req *BatchCreateRequest) (*BatchSubmitResponse, error) {
	if violations := s.validator.ValidateBatchCreate(req); len(violations) > 0 {
		return nil, newValidationError(violations)
	}

	totalStudents := len(req.Students)
	executionID := uuid.New().String()

	creatable, skipped, err := s.partitionByEmail(ctx, req.Students)
	if err != nil {
		return nil, err
	}

	if len(creatable) == 0 {
		return nil, fmt.Errorf("all %d students already exist: %w", totalStudents, ErrAlreadyExists)
	}

	if req.Parallel && len(creatable) > 1 {
		return s.submitAsync(ctx, executionID, totalStudents, creatable, skipped)
	}
	return s.submitSync(ctx, executionID, totalStudents, creatable, skipped)
}

// partitionByEmail routes items whose email already exists to the skipped
// bucket. The check and the later create are separate operations; the race
// between them is accepted and surfaces as a per-item failure.
func (s *batchService) partitionByEmail(ctx context.Context, items []validator.StudentCreateRequest) ([]models.StudentDraft, []string, error) {
	var creatable []models.StudentDraft
	var skipped []string

	for _, item := range items {
		_, err := s.repo.Student().GetByEmail(ctx, item.Email)
		if err == nil {
			skipped = append(skipped, item.Email)
			continue
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, fmt.Errorf("duplicate check failed for %s: %w", item.Email, err)
		}

		creatable = append(creatable, models.StudentDraft{
			Email:      item.Email,
			FirstName:  item.FirstName,
			LastName:   item.LastName,
			ProgramID:  item.ProgramID,
			EmployerID: item.EmployerID,
			Metadata:   item.Metadata,
		})
	}

	return creatable, skipped, nil
}

// submitSync creates records inline, publishes the completion message
// immediately and returns COMPLETED with inline results.
func (s *batchService) submitSync(ctx context.Context, executionID string, totalStudents int, creatable []models.StudentDraft, skipped []string) (*BatchSubmitResponse, error) {
	start := time.Now()

	result, err := s.repo.Student().BatchCreate(ctx, creatable)
	if err != nil {
		return nil, fmt.Errorf("batch create failed: %w", err)
	}

	results := make([]models.ItemResult, 0, len(creatable))
	now := time.Now().UTC()
	for _, student := range result.Succeeded {
		results = append(results, models.ItemResult{
			Email:       student.Email,
			StudentID:   student.ID,
			Success:     true,
			Attempts:    1,
			CompletedAt: now,
		})
	}
	for _, failure := range result.Failed {
		results = append(results, models.ItemResult{
			Email:       failure.Draft.Email,
			Success:     false,
			Error:       failure.Reason,
			Attempts:    1,
			CompletedAt: now,
		})
	}

	summary := Summarize(results, skipped, time.Since(start))

	completion := &models.CompletionMessage{
		ExecutionID: executionID,
		Status:      completionStatus(summary),
		Timestamp:   now,
		Results:     results,
		Skipped:     skipped,
		Summary:     summary,
	}
	if err := s.queue.PublishCompletion(ctx, completion); err != nil {
		// The records are already written; a completion publish failure is
		// reported but does not undo the batch.
		s.logger.ErrorContext(ctx, "failed to publish completion message",
			"execution_id", executionID,
			"error", err)
	}

	s.logger.InfoContext(ctx, "batch completed synchronously",
		"execution_id", executionID,
		"total", totalStudents,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"skipped", len(skipped))

	return &BatchSubmitResponse{
		ExecutionID:   executionID,
		Status:        models.BatchCompleted,
		TotalStudents: totalStudents,
		Successful:    summary.Successful,
		Failed:        summary.Failed,
		Skipped:       skipped,
		Results:       results,
		Summary:       &summary,
	}, nil
}

// submitAsync hands the creatable items to the processing queue and returns
// immediately; the workflow consumer performs creation and aggregation.
func (s *batchService) submitAsync(ctx context.Context, executionID string, totalStudents int, creatable []models.StudentDraft, skipped []string) (*BatchSubmitResponse, error) {
	pm := &models.ProcessingMessage{
		ExecutionID:   executionID,
		Timestamp:     time.Now().UTC(),
		Input:         creatable,
		TotalStudents: totalStudents,
		Skipped:       skipped,
	}

	if err := s.queue.PublishProcessing(ctx, pm); err != nil {
		return nil, fmt.Errorf("failed to start execution: %w", err)
	}

	s.logger.InfoContext(ctx, "batch execution started",
		"execution_id", executionID,
		"total", totalStudents,
		"creatable", len(creatable),
		"skipped", len(skipped))

	return &BatchSubmitResponse{
		ExecutionID:   executionID,
		Status:        models.BatchStarted,
		TotalStudents: totalStudents,
		Skipped:       skipped,
	}, nil
}

// Summarize computes the run summary for a set of per-item outcomes. Skipped
// duplicates never reach processing but still count toward the batch total.
func Summarize(results []models.ItemResult, skipped []string, elapsed time.Duration) models.BatchSummary {
	summary := models.BatchSummary{
		Total:            len(results) + len(skipped),
		Skipped:          len(skipped),
		ProcessingTimeMS: elapsed.Milliseconds(),
	}
	for _, r := range results {
		if r.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	return summary
}

func completionStatus(summary models.BatchSummary) string {
	if summary.Successful == 0 && summary.Failed > 0 {
		return models.BatchFailed
	}
	return models.BatchCompleted
}
