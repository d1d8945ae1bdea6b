package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/student-service/internal/cache"
	"github.com/SAP-F-2025/student-service/internal/messaging"
	"github.com/SAP-F-2025/student-service/internal/repositories"
	"github.com/SAP-F-2025/student-service/internal/storage"
	"github.com/SAP-F-2025/student-service/internal/workflow"
)

const healthCheckTimeout = 3 * time.Second

type healthService struct {
	repo    repositories.Repository
	queue   *messaging.Queue
	objects storage.ObjectStorage
	engine  workflow.Engine
	cache   *cache.CacheHelper
	logger  *slog.Logger
}

// NewHealthService creates the aggregate liveness probe.
func NewHealthService(repo repositories.Repository, queue *messaging.Queue, objects storage.ObjectStorage, engine workflow.Engine, cacheHelper *cache.CacheHelper, logger *slog.Logger) HealthService {
	return &healthService{
		repo:    repo,
		queue:   queue,
		objects: objects,
		engine:  engine,
		cache:   cacheHelper,
		logger:  logger,
	}
}

// Check runs every sub-check independently; one backend's outage never masks
// the rest. Healthy only if all sub-checks pass.
func (s *healthService) Check(ctx context.Context) *HealthReport {
	checks := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"database", s.checkDatabase},
		{"cache", s.checkCache},
		{"object_storage", s.checkObjectStorage},
		{"queue", s.checkQueue},
		{"workflow", s.checkWorkflow},
	}

	report := &HealthReport{
		Healthy:    true,
		Timestamp:  time.Now().UTC(),
		Components: make([]ComponentStatus, len(checks)),
	}

	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func(idx int, name string, fn func(context.Context) error) {
			defer wg.Done()
			report.Components[idx] = s.runCheck(ctx, name, fn)
		}(i, check.name, check.fn)
	}
	wg.Wait()

	for _, component := range report.Components {
		if !component.Healthy {
			report.Healthy = false
			s.logger.WarnContext(ctx, "health sub-check failed",
				"component", component.Name,
				"error", component.Error)
		}
	}

	return report
}

// runCheck wraps one sub-check with its own timeout and panic isolation.
func (s *healthService) runCheck(ctx context.Context, name string, fn func(context.Context) error) (status ComponentStatus) {
	start := time.Now()
	status = ComponentStatus{Name: name, Healthy: true}

	defer func() {
		if r := recover(); r != nil {
			status.Healthy = false
			status.Error = fmt.Sprintf("check panicked: %v", r)
		}
		status.LatencyMS = time.Since(start).Milliseconds()
	}()

	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := fn(checkCtx); err != nil {
		status.Healthy = false
		status.Error = err.Error()
	}

	return status
}

func (s *healthService) checkDatabase(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// checkCache treats an unconfigured cache as healthy; redis is an optional
// backend.
func (s *healthService) checkCache(ctx context.Context) error {
	err := s.cache.HealthCheck(ctx)
	if errors.Is(err, cache.ErrCacheNotAvailable) {
		return nil
	}
	return err
}

func (s *healthService) checkObjectStorage(ctx context.Context) error {
	return s.objects.Ping(ctx)
}

func (s *healthService) checkQueue(ctx context.Context) error {
	return s.queue.Ping(ctx)
}

func (s *healthService) checkWorkflow(ctx context.Context) error {
	if !s.engine.Ready() {
		return fmt.Errorf("workflow engine not ready")
	}
	return nil
}
