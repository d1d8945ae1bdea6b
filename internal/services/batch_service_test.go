package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/SAP-F-2025/student-service/internal/messaging"
	"github.com/SAP-F-2025/student-service/internal/models"
	"github.com/SAP-F-2025/student-service/internal/validator"
)

const (
	testProcessingTopic = "test-processing"
	testCompletionTopic = "test-completion"
)

type batchHarness struct {
	repo       *fakeRepository
	svc        BatchService
	processing <-chan *message.Message
	completion <-chan *message.Message
}

func newBatchHarness(t *testing.T) *batchHarness {
	t.Helper()

	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 16},
		watermill.NewSlogLogger(testLogger()),
	)
	t.Cleanup(func() { pubSub.Close() })

	processing, err := pubSub.Subscribe(context.Background(), testProcessingTopic)
	if err != nil {
		t.Fatalf("subscribe processing: %v", err)
	}
	completion, err := pubSub.Subscribe(context.Background(), testCompletionTopic)
	if err != nil {
		t.Fatalf("subscribe completion: %v", err)
	}

	repo := newFakeRepository()
	queue := messaging.NewQueue(pubSub, testProcessingTopic, testCompletionTopic)

	return &batchHarness{
		repo:       repo,
		svc:        NewBatchService(repo, queue, testLogger(), validator.New()),
		processing: processing,
		completion: completion,
	}
}

func receiveMessage(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func assertNoMessage(t *testing.T, ch <-chan *message.Message) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Fatalf("unexpected message: %s", msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func batchOf(n int) *BatchCreateRequest {
	req := &BatchCreateRequest{}
	for i := 0; i < n; i++ {
		req.Students = append(req.Students, CreateStudentRequest{
			Email:     fmt.Sprintf("student%d@example.com", i),
			FirstName: "Test",
			LastName:  "Student",
		})
	}
	return req
}

func TestBatchSubmit_OversizeRejectedBeforeAnyWork(t *testing.T) {
	h := newBatchHarness(t)

	_, err := h.svc.Submit(context.Background(), batchOf(101))
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	if h.repo.student.count() != 0 {
		t.Error("oversize batch wrote records")
	}
	assertNoMessage(t, h.processing)
	assertNoMessage(t, h.completion)
}

func TestBatchSubmit_AllDuplicatesIsConflict(t *testing.T) {
	h := newBatchHarness(t)
	seedStudent(h.repo, "student0@example.com")
	seedStudent(h.repo, "student1@example.com")

	_, err := h.svc.Submit(context.Background(), batchOf(2))
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	if h.repo.student.count() != 2 {
		t.Error("all-duplicate batch wrote records")
	}
	assertNoMessage(t, h.processing)
}

func TestBatchSubmit_SyncPathCompletesInline(t *testing.T) {
	h := newBatchHarness(t)
	seedStudent(h.repo, "student0@example.com")

	req := batchOf(3)
	req.Parallel = false

	resp, err := h.svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if resp.Status != models.BatchCompleted {
		t.Errorf("Status = %q, want COMPLETED", resp.Status)
	}
	if resp.TotalStudents != 3 {
		t.Errorf("TotalStudents = %d, want 3", resp.TotalStudents)
	}
	if resp.Successful != 2 {
		t.Errorf("Successful = %d, want 2", resp.Successful)
	}
	if len(resp.Skipped) != 1 || resp.Skipped[0] != "student0@example.com" {
		t.Errorf("Skipped = %v", resp.Skipped)
	}
	if h.repo.student.count() != 3 {
		t.Errorf("store has %d records, want 3", h.repo.student.count())
	}

	msg := receiveMessage(t, h.completion)
	var cm models.CompletionMessage
	if err := json.Unmarshal(msg.Payload, &cm); err != nil {
		t.Fatalf("bad completion payload: %v", err)
	}
	if cm.ExecutionID != resp.ExecutionID {
		t.Errorf("completion execution id %q != %q", cm.ExecutionID, resp.ExecutionID)
	}
	if cm.Summary.Total != 3 || cm.Summary.Successful != 2 || cm.Summary.Failed != 0 || cm.Summary.Skipped != 1 {
		t.Errorf("summary = %+v", cm.Summary)
	}
	if len(cm.Skipped) != 1 || cm.Skipped[0] != "student0@example.com" {
		t.Errorf("completion Skipped = %v", cm.Skipped)
	}

	assertNoMessage(t, h.processing)
}

func TestBatchSubmit_ParallelPathDefersToQueue(t *testing.T) {
	h := newBatchHarness(t)

	req := batchOf(5)
	req.Parallel = true

	resp, err := h.svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if resp.Status != models.BatchStarted {
		t.Errorf("Status = %q, want STARTED", resp.Status)
	}
	if h.repo.student.count() != 0 {
		t.Error("async submit wrote records inline")
	}

	msg := receiveMessage(t, h.processing)
	var pm models.ProcessingMessage
	if err := json.Unmarshal(msg.Payload, &pm); err != nil {
		t.Fatalf("bad processing payload: %v", err)
	}
	if pm.ExecutionID != resp.ExecutionID {
		t.Errorf("processing execution id %q != %q", pm.ExecutionID, resp.ExecutionID)
	}
	if len(pm.Input) != 5 {
		t.Errorf("Input has %d items, want 5", len(pm.Input))
	}
	if got := msg.Metadata.Get(messaging.MetadataExecutionID); got != resp.ExecutionID {
		t.Errorf("metadata execution id = %q", got)
	}
}

func TestBatchSubmit_SingleCreatableRunsSyncDespiteParallel(t *testing.T) {
	h := newBatchHarness(t)

	req := batchOf(1)
	req.Parallel = true

	resp, err := h.svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if resp.Status != models.BatchCompleted {
		t.Errorf("Status = %q, want COMPLETED", resp.Status)
	}
	if h.repo.student.count() != 1 {
		t.Errorf("store has %d records, want 1", h.repo.student.count())
	}
	assertNoMessage(t, h.processing)
}

func TestSummarize(t *testing.T) {
	results := []models.ItemResult{
		{Success: true},
		{Success: true},
		{Success: false},
	}

	summary := Summarize(results, []string{"dup@example.com"}, 1500*time.Millisecond)

	if summary.Total != 4 || summary.Successful != 2 || summary.Failed != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.ProcessingTimeMS != 1500 {
		t.Errorf("ProcessingTimeMS = %d, want 1500", summary.ProcessingTimeMS)
	}
}

func TestCompletionStatus(t *testing.T) {
	if got := completionStatus(models.BatchSummary{Successful: 1, Failed: 2}); got != models.BatchCompleted {
		t.Errorf("partial success = %q, want COMPLETED", got)
	}
	if got := completionStatus(models.BatchSummary{Successful: 0, Failed: 3}); got != models.BatchFailed {
		t.Errorf("total failure = %q, want FAILED", got)
	}
	if got := completionStatus(models.BatchSummary{}); got != models.BatchCompleted {
		t.Errorf("empty run = %q, want COMPLETED", got)
	}
}
