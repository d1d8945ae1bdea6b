package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/SAP-F-2025/student-service/internal/config"
	"github.com/SAP-F-2025/student-service/internal/models"
)

// Metadata keys carried on every queue message.
const (
	MetadataExecutionID = "execution_id"

	healthTopic = "student-service-health"
)

// Queue wraps the processing and completion channels. Both provide
// at-least-once, order-unconstrained delivery; consumers must tolerate
// duplicates.
type Queue struct {
	publisher       message.Publisher
	processingTopic string
	completionTopic string
}

// NewQueue builds a Queue on top of any watermill publisher.
func NewQueue(publisher message.Publisher, processingTopic, completionTopic string) *Queue {
	return &Queue{
		publisher:       publisher,
		processingTopic: processingTopic,
		completionTopic: completionTopic,
	}
}

// NewKafkaPublisher creates the Kafka-backed publisher used in production.
func NewKafkaPublisher(cfg *config.Config, logger *slog.Logger) (message.Publisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return publisher, nil
}

// NewKafkaSubscriber creates the Kafka-backed subscriber for the processing
// queue consumer.
func NewKafkaSubscriber(cfg *config.Config, logger *slog.Logger) (message.Subscriber, error) {
	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:       cfg.KafkaBrokers,
			Unmarshaler:   kafka.DefaultMarshaler{},
			ConsumerGroup: cfg.ConsumerGroup,
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}
	return subscriber, nil
}

// ProcessingTopic returns the topic batch submissions are published to.
func (q *Queue) ProcessingTopic() string { return q.processingTopic }

// CompletionTopic returns the topic completion summaries are published to.
func (q *Queue) CompletionTopic() string { return q.completionTopic }

// PublishProcessing enqueues a batch for asynchronous execution.
func (q *Queue) PublishProcessing(ctx context.Context, pm *models.ProcessingMessage) error {
	return q.publish(ctx, q.processingTopic, pm.ExecutionID, pm)
}

// PublishCompletion emits the run summary for an execution.
func (q *Queue) PublishCompletion(ctx context.Context, cm *models.CompletionMessage) error {
	return q.publish(ctx, q.completionTopic, cm.ExecutionID, cm)
}

func (q *Queue) publish(ctx context.Context, topic, executionID string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataExecutionID, executionID)

	if err := q.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Ping round-trips a marker message through the publisher. Kafka has no ping
// operation, so a successful publish to the health topic is the liveness
// signal.
func (q *Queue) Ping(ctx context.Context) error {
	probe := map[string]interface{}{
		"probe":     true,
		"timestamp": time.Now().UTC(),
	}
	return q.publish(ctx, healthTopic, "health-probe", probe)
}

// Close closes the underlying publisher.
func (q *Queue) Close() error {
	return q.publisher.Close()
}
