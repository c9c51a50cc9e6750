package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"project-tracker/internal/domain"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	log "github.com/sirupsen/logrus"
)

const flushTimeoutMs = 15 * 1000

type auditMessage struct {
	ID         string         `json:"id"`
	ActionType string         `json:"action_type"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	ActorName  string         `json:"actor_name"`
	Timestamp  time.Time      `json:"timestamp"`
	Payload    domain.Payload `json:"payload"`
}

func newAuditMessage(record domain.AuditRecord) auditMessage {
	return auditMessage{
		ID:         record.ID,
		ActionType: string(record.ActionType),
		EntityType: record.EntityType,
		EntityID:   record.EntityID,
		ActorName:  record.ActorName,
		Timestamp:  record.Timestamp,
		Payload:    record.Payload,
	}
}

// KafkaAuditPublisher forwards persisted audit records to a Kafka topic,
// keyed by entity id.
type KafkaAuditPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaAuditPublisher(bootstrapServers, topic string) (*KafkaAuditPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": bootstrapServers})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.WithField("topic", topic).Info("Audit Kafka producer created successfully")

	go logProducerEvents(p.Events())

	return &KafkaAuditPublisher{producer: p, topic: topic}, nil
}

// logProducerEvents drains client-level events until the producer is closed.
// Delivery reports go to per-message channels and never arrive here.
func logProducerEvents(events <-chan kafka.Event) {
	for e := range events {
		handleProducerEvent(e)
	}
}

func handleProducerEvent(e kafka.Event) {
	switch ev := e.(type) {
	case kafka.Error:
		entry := log.WithError(ev).WithField("code", ev.Code().String())
		if ev.IsFatal() {
			entry.Error("Audit Kafka producer fatal error")
			return
		}
		entry.Warn("Audit Kafka producer error")
	case *kafka.Message:
		if ev.TopicPartition.Error != nil {
			log.WithError(ev.TopicPartition.Error).Warn("Audit Kafka delivery failed")
		}
	default:
		log.WithField("event", ev.String()).Debug("Audit Kafka producer event")
	}
}

func (p *KafkaAuditPublisher) Publish(ctx context.Context, record domain.AuditRecord) error {
	value, err := json.Marshal(newAuditMessage(record))
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)

	if err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(record.EntityID),
		Value:          value,
		Headers: []kafka.Header{
			{Key: "action_type", Value: []byte(record.ActionType)},
			{Key: "entity_type", Value: []byte(record.EntityType)},
		},
	}, deliveryChan); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case e := <-deliveryChan:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected event type: %T", e)
		}
		if msg.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", msg.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *KafkaAuditPublisher) Close() {
	log.Info("Closing audit Kafka producer...")
	p.producer.Flush(flushTimeoutMs)
	p.producer.Close()
}

// LogPublisher writes audit notifications to the application log. It is used
// when no broker is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, record domain.AuditRecord) error {
	log.WithFields(log.Fields{
		"audit_id":    record.ID,
		"action_type": record.ActionType,
		"entity_type": record.EntityType,
		"entity_id":   record.EntityID,
		"actor":       record.ActorName,
	}).Info("Audit event")
	return nil
}

func (p *LogPublisher) Close() {}
