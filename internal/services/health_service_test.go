package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/SAP-F-2025/student-service/internal/cache"
	"github.com/SAP-F-2025/student-service/internal/messaging"
	"github.com/SAP-F-2025/student-service/internal/storage"
	"github.com/SAP-F-2025/student-service/internal/utils"
	"github.com/SAP-F-2025/student-service/internal/workflow"
)

func newHealthServiceForTest(t *testing.T, repo *fakeRepository) HealthService {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(testLogger()))
	t.Cleanup(func() { pubSub.Close() })

	objects, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	engine := workflow.NewPoolEngine(workflow.Config{}, utils.NewSlogLogger(testLogger()))

	return NewHealthService(
		repo,
		messaging.NewQueue(pubSub, testProcessingTopic, testCompletionTopic),
		objects,
		engine,
		cache.NewCacheHelper(nil, "health:"),
		testLogger(),
	)
}

func TestHealthCheck_AllHealthy(t *testing.T) {
	svc := newHealthServiceForTest(t, newFakeRepository())

	report := svc.Check(context.Background())

	if !report.Healthy {
		t.Fatalf("report unhealthy: %+v", report.Components)
	}
	if len(report.Components) != 5 {
		t.Errorf("got %d components, want 5", len(report.Components))
	}
	if report.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	names := map[string]bool{}
	for _, c := range report.Components {
		names[c.Name] = c.Healthy
	}
	for _, want := range []string{"database", "cache", "object_storage", "queue", "workflow"} {
		healthy, ok := names[want]
		if !ok {
			t.Errorf("component %q missing from report", want)
		} else if !healthy {
			t.Errorf("component %q unhealthy", want)
		}
	}
}

func TestHealthCheck_DatabaseOutageIsItemized(t *testing.T) {
	repo := newFakeRepository()
	repo.pingErr = errors.New("connection refused")
	svc := newHealthServiceForTest(t, repo)

	report := svc.Check(context.Background())

	if report.Healthy {
		t.Fatal("report healthy despite database outage")
	}
	for _, c := range report.Components {
		switch c.Name {
		case "database":
			if c.Healthy {
				t.Error("database reported healthy")
			}
			if c.Error == "" {
				t.Error("database error not carried in report")
			}
		default:
			if !c.Healthy {
				t.Errorf("outage leaked into %q", c.Name)
			}
		}
	}
}

func TestHealthCheck_UnconfiguredCacheIsHealthy(t *testing.T) {
	svc := newHealthServiceForTest(t, newFakeRepository())

	report := svc.Check(context.Background())
	for _, c := range report.Components {
		if c.Name == "cache" && !c.Healthy {
			t.Error("nil cache client reported unhealthy")
		}
	}
}

func TestHealthCheck_ReportsLatency(t *testing.T) {
	svc := newHealthServiceForTest(t, newFakeRepository())

	start := time.Now()
	report := svc.Check(context.Background())
	elapsed := time.Since(start).Milliseconds()

	for _, c := range report.Components {
		if c.LatencyMS < 0 || c.LatencyMS > elapsed+1000 {
			t.Errorf("component %q latency %dms out of range", c.Name, c.LatencyMS)
		}
	}
}
