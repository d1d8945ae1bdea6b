package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SAP-F-2025/student-service/internal/models"
	"github.com/SAP-F-2025/student-service/internal/utils"
)

// Step processes a single batch item. Branches share no mutable state and
// communicate results only through the return value.
type Step func(ctx context.Context, item models.StudentDraft) (*models.Student, error)

// Engine executes a bounded-concurrency fan-out over a list of items. One
// item's failure never aborts the others, and every item is accounted for in
// the returned results.
type Engine interface {
	Execute(ctx context.Context, executionID string, items []models.StudentDraft, step Step) []models.ItemResult
	Ready() bool
}

// Config tunes the pool engine.
type Config struct {
	// Concurrency is the fan-out ceiling. Defaults to 10.
	Concurrency int
	// MaxRetries bounds retries of transient failures. Defaults to 3.
	MaxRetries int
	// RetryDelay is the pause between attempts. Defaults to 100ms.
	RetryDelay time.Duration
	// Retryable classifies errors. Non-retryable failures are recorded
	// immediately. Defaults to retrying everything.
	Retryable func(error) bool
}

// PoolEngine is the in-process Engine implementation. Durability of the
// asynchronous path comes from the at-least-once processing queue in front of
// it, not from the pool itself.
type PoolEngine struct {
	config Config
	logger utils.Logger
}

// NewPoolEngine creates an engine with defaults filled in.
func NewPoolEngine(config Config, logger utils.Logger) *PoolEngine {
	if config.Concurrency <= 0 {
		config.Concurrency = 10
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 100 * time.Millisecond
	}
	if config.Retryable == nil {
		config.Retryable = func(error) bool { return true }
	}

	return &PoolEngine{config: config, logger: logger}
}

// Ready reports whether the engine can accept executions.
func (e *PoolEngine) Ready() bool {
	return e != nil
}

// Execute fans items out across at most Concurrency branches and blocks until
// every branch has finished. Results are positionally aligned with items.
func (e *PoolEngine) Execute(ctx context.Context, executionID string, items []models.StudentDraft, step Step) []models.ItemResult {
	results := make([]models.ItemResult, len(items))

	sem := make(chan struct{}, e.config.Concurrency)
	var wg sync.WaitGroup

	for i := range items {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = e.runBranch(ctx, executionID, items[idx], step)
		}(i)
	}

	wg.Wait()

	return results
}

// runBranch processes one item with bounded retry. Panics inside the step are
// recorded as immediate failures so a malformed item cannot take down
// sibling branches.
func (e *PoolEngine) runBranch(ctx context.Context, executionID string, item models.StudentDraft, step Step) (result models.ItemResult) {
	start := time.Now()

	result = models.ItemResult{Email: item.Email}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("workflow branch panicked",
				"execution_id", executionID,
				"email", item.Email,
				"panic", fmt.Sprintf("%v", r))
			result.Success = false
			result.Error = fmt.Sprintf("branch panicked: %v", r)
		}
		result.ProcessingTimeMS = time.Since(start).Milliseconds()
		result.CompletedAt = time.Now().UTC()
	}()

	var lastErr error
	for attempt := 1; attempt <= e.config.MaxRetries; attempt++ {
		result.Attempts = attempt

		student, err := step(ctx, item)
		if err == nil {
			result.Success = true
			result.StudentID = student.ID
			return result
		}

		lastErr = err
		if !e.config.Retryable(err) {
			break
		}

		e.logger.Warn("workflow branch attempt failed",
			"execution_id", executionID,
			"email", item.Email,
			"attempt", attempt,
			"error", err)

		if attempt < e.config.MaxRetries {
			select {
			case <-time.After(e.config.RetryDelay):
			case <-ctx.Done():
				result.Success = false
				result.Error = ctx.Err().Error()
				return result
			}
		}
	}

	result.Success = false
	result.Error = lastErr.Error()
	return result
}
