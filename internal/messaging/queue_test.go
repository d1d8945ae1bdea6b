package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/SAP-F-2025/student-service/internal/models"
)

func newTestQueue(t *testing.T) (*Queue, *gochannel.GoChannel) {
	t.Helper()

	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 8},
		watermill.NopLogger{},
	)
	t.Cleanup(func() { pubSub.Close() })

	return NewQueue(pubSub, "processing", "completion"), pubSub
}

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
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

func TestPublishProcessing(t *testing.T) {
	queue, pubSub := newTestQueue(t)

	msgs, err := pubSub.Subscribe(context.Background(), "processing")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pm := &models.ProcessingMessage{
		ExecutionID: "exec-1",
		Timestamp:   time.Now().UTC(),
		Input: []models.StudentDraft{
			{Email: "a@example.com", FirstName: "A", LastName: "B"},
		},
		TotalStudents: 1,
	}
	if err := queue.PublishProcessing(context.Background(), pm); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	msg := receive(t, msgs)

	var got models.ProcessingMessage
	if err := json.Unmarshal(msg.Payload, &got); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if got.ExecutionID != "exec-1" || len(got.Input) != 1 {
		t.Errorf("got %+v", got)
	}
	if msg.Metadata.Get(MetadataExecutionID) != "exec-1" {
		t.Errorf("execution id metadata = %q", msg.Metadata.Get(MetadataExecutionID))
	}
}

func TestPublishCompletion(t *testing.T) {
	queue, pubSub := newTestQueue(t)

	msgs, err := pubSub.Subscribe(context.Background(), "completion")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	cm := &models.CompletionMessage{
		ExecutionID: "exec-2",
		Status:      models.BatchCompleted,
		Timestamp:   time.Now().UTC(),
		Summary:     models.BatchSummary{Total: 2, Successful: 2},
	}
	if err := queue.PublishCompletion(context.Background(), cm); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	msg := receive(t, msgs)

	var got models.CompletionMessage
	if err := json.Unmarshal(msg.Payload, &got); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if got.Status != models.BatchCompleted || got.Summary.Total != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestPing(t *testing.T) {
	queue, _ := newTestQueue(t)

	if err := queue.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
