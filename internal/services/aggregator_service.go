package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/SAP-F-2025/student-service/internal/cache"
	"github.com/SAP-F-2025/student-service/internal/messaging"
	"github.com/SAP-F-2025/student-service/internal/models"
	"github.com/SAP-F-2025/student-service/internal/repositories"
	"github.com/SAP-F-2025/student-service/internal/workflow"
)

// AggregatorService consumes processing messages, drives the workflow engine
// and publishes the completion summary. It is idempotent by execution id:
// re-delivery of an already-processed message publishes nothing.
type AggregatorService struct {
	repo        repositories.Repository
	queue       *messaging.Queue
	engine      workflow.Engine
	idempotency *cache.CacheHelper
	logger      *slog.Logger
}

// NewAggregatorService creates the processing-queue consumer.
func NewAggregatorService(repo repositories.Repository, queue *messaging.Queue, engine workflow.Engine, idempotency *cache.CacheHelper, logger *slog.Logger) *AggregatorService {
	return &AggregatorService{
		repo:        repo,
		queue:       queue,
		engine:      engine,
		idempotency: idempotency,
		logger:      logger,
	}
}

// RegisterHandlers attaches the processing-queue consumer to a watermill
// router.
func (s *AggregatorService) RegisterHandlers(router *message.Router, subscriber message.Subscriber) {
	router.AddNoPublisherHandler(
		"student_batch_processor",
		s.queue.ProcessingTopic(),
		subscriber,
		s.HandleProcessingMessage,
	)
}

// HandleProcessingMessage runs one execution end to end. Returning nil acks
// the message; the queue redelivers on error, so everything past the
// idempotency gate must tolerate re-runs.
func (s *AggregatorService) HandleProcessingMessage(msg *message.Message) error {
	ctx := msg.Context()

	var pm models.ProcessingMessage
	if err := json.Unmarshal(msg.Payload, &pm); err != nil {
		// Malformed payloads can never succeed; ack and drop.
		s.logger.ErrorContext(ctx, "dropping malformed processing message",
			"message_id", msg.UUID,
			"error", err)
		return nil
	}

	won, err := s.idempotency.SetNX(ctx, pm.ExecutionID, msg.UUID, cache.ExecutionCacheConfig.TTL)
	if err != nil {
		return fmt.Errorf("idempotency check failed: %w", err)
	}
	if !won {
		s.logger.InfoContext(ctx, "execution already processed, skipping",
			"execution_id", pm.ExecutionID)
		return nil
	}

	s.logger.InfoContext(ctx, "processing batch execution",
		"execution_id", pm.ExecutionID,
		"items", len(pm.Input))

	start := time.Now()
	results := s.engine.Execute(ctx, pm.ExecutionID, pm.Input, s.createStudent)

	if err := s.Complete(ctx, &pm, results, time.Since(start)); err != nil {
		// The records are written; losing the completion message would leave
		// the execution unaccounted for, so redeliver. The idempotency key
		// is released to let the retry through.
		cache.SafeDelete(ctx, s.idempotency, pm.ExecutionID)
		return err
	}

	return nil
}

// Complete computes the summary for a finished execution and emits the
// completion message. Units skipped at submission never reached this consumer,
// so the summary folds them back in from the processing message.
func (s *AggregatorService) Complete(ctx context.Context, pm *models.ProcessingMessage, results []models.ItemResult, elapsed time.Duration) error {
	summary := Summarize(results, pm.Skipped, elapsed)
	if pm.TotalStudents > summary.Total {
		// Older producers may carry a total without the skipped emails.
		summary.Total = pm.TotalStudents
	}

	cm := &models.CompletionMessage{
		ExecutionID: pm.ExecutionID,
		Status:      completionStatus(summary),
		Timestamp:   time.Now().UTC(),
		Results:     results,
		Skipped:     pm.Skipped,
		Summary:     summary,
	}

	if err := s.queue.PublishCompletion(ctx, cm); err != nil {
		return fmt.Errorf("failed to publish completion for %s: %w", pm.ExecutionID, err)
	}

	s.logger.InfoContext(ctx, "batch execution completed",
		"execution_id", pm.ExecutionID,
		"total", summary.Total,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"processing_time_ms", summary.ProcessingTimeMS)

	return nil
}

// createStudent is the per-item workflow step. The email existence check
// makes redelivered or late-arriving duplicates fail fast instead of
// creating a second record.
func (s *AggregatorService) createStudent(ctx context.Context, item models.StudentDraft) (*models.Student, error) {
	_, err := s.repo.Student().GetByEmail(ctx, item.Email)
	if err == nil {
		return nil, fmt.Errorf("email %s: %w", item.Email, repositories.ErrDuplicate)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}

	return s.repo.Student().Create(ctx, item)
}

// RetryableCreateError reports whether a step failure is transient. Duplicate
// conflicts can never succeed on retry; backend errors might.
func RetryableCreateError(err error) bool {
	return !errors.Is(err, repositories.ErrDuplicate)
}
