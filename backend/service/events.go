package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	"github.com/SergeyShakirov/TaskGo/backend/pkg/logger"
)

const (
	EventTaskCreated   = "task.created"
	EventTaskUpdated   = "task.updated"
	EventTaskDeleted   = "task.deleted"
	EventExportCreated = "export.created"
)

// Event is a domain notification keyed by task.
type Event struct {
	Type       string    `json:"type"`
	TaskID     string    `json:"task_id"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

// EventPublisher delivers events on a best-effort basis. Failures are
// logged, never returned: an event must not fail the request that caused it.
type EventPublisher interface {
	Publish(ctx context.Context, e Event)
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) {}
func (NoopPublisher) Close() error                   { return nil }

// KafkaPublisher sends events to one topic, keyed by task id.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return NewKafkaPublisherWithProducer(p, topic), nil
}

func NewKafkaPublisherWithProducer(p sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if e.RequestID == "" {
		if id, ok := ctx.Value(logger.RequestIDKey).(string); ok {
			e.RequestID = id
		}
	}

	data, err := json.Marshal(e)
	if err != nil {
		logger.Error(ctx, "Failed to encode event", "type", e.Type, "error", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(e.TaskID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(e.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		logger.Warn(ctx, "Failed to publish event", "type", e.Type, "topic", p.topic, "error", err)
		return
	}
	logger.Debug(ctx, "Event published", "type", e.Type, "partition", partition, "offset", offset)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
