package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/student-service/internal/cache"
	"github.com/SAP-F-2025/student-service/internal/messaging"
	"github.com/SAP-F-2025/student-service/internal/repositories"
	"github.com/SAP-F-2025/student-service/internal/storage"
	"github.com/SAP-F-2025/student-service/internal/utils"
	"github.com/SAP-F-2025/student-service/internal/validator"
	"github.com/SAP-F-2025/student-service/internal/workflow"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	WorkflowConcurrency int
	WorkflowMaxRetries  int
	DefaultTimeout      time.Duration
}

// Dependencies holds everything the services are built from. Construction is
// explicit; nothing reads global state.
type Dependencies struct {
	Repo      repositories.Repository
	Queue     *messaging.Queue
	Objects   storage.ObjectStorage
	Cache     *cache.CacheHelper
	Logger    *slog.Logger
	Validator *validator.Validator
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   Dependencies
	config ServiceManagerConfig

	engine workflow.Engine

	studentService StudentService
	batchService   BatchService
	importService  ImportService
	healthService  HealthService
	aggregator     *AggregatorService

	initialized bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps Dependencies, config ServiceManagerConfig) ServiceManager {
	if config.WorkflowConcurrency <= 0 {
		config.WorkflowConcurrency = 10
	}
	if config.WorkflowMaxRetries <= 0 {
		config.WorkflowMaxRetries = 3
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Second
	}

	return &serviceManager{
		deps:   deps,
		config: config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	if sm.deps.Repo == nil {
		return fmt.Errorf("repository is required")
	}
	if sm.deps.Queue == nil {
		return fmt.Errorf("queue is required")
	}
	if sm.deps.Objects == nil {
		return fmt.Errorf("object storage is required")
	}

	sm.deps.Logger.Info("Initializing service manager")

	sm.engine = workflow.NewPoolEngine(workflow.Config{
		Concurrency: sm.config.WorkflowConcurrency,
		MaxRetries:  sm.config.WorkflowMaxRetries,
		Retryable:   RetryableCreateError,
	}, utils.NewSlogLogger(sm.deps.Logger))

	sm.studentService = NewStudentService(sm.deps.Repo, sm.deps.Logger, sm.deps.Validator)
	sm.batchService = NewBatchService(sm.deps.Repo, sm.deps.Queue, sm.deps.Logger, sm.deps.Validator)
	sm.importService = NewImportService(sm.deps.Objects, sm.deps.Logger)
	sm.healthService = NewHealthService(sm.deps.Repo, sm.deps.Queue, sm.deps.Objects, sm.engine, sm.deps.Cache, sm.deps.Logger)
	sm.aggregator = NewAggregatorService(sm.deps.Repo, sm.deps.Queue, sm.engine, sm.deps.Cache, sm.deps.Logger)

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")

	return nil
}

// Student returns the student service
func (sm *serviceManager) Student() StudentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.studentService
}

// Batch returns the batch orchestrator
func (sm *serviceManager) Batch() BatchService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.batchService
}

// Import returns the xlsx import service
func (sm *serviceManager) Import() ImportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.importService
}

// Health returns the aggregate health probe
func (sm *serviceManager) Health() HealthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.healthService
}

// Aggregator returns the processing-queue consumer
func (sm *serviceManager) Aggregator() *AggregatorService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.aggregator
}

// HealthCheck verifies the manager is ready to serve
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	checkCtx, cancel := context.WithTimeout(ctx, sm.config.DefaultTimeout)
	defer cancel()

	return sm.deps.Repo.Ping(checkCtx)
}

// Shutdown gracefully shuts down all services
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")
	sm.initialized = false

	return nil
}
