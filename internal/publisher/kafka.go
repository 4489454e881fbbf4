package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kb-service/internal/domain"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	log "github.com/sirupsen/logrus"
)

const deliveryTimeout = 10 * time.Second

// KafkaPublisher writes bus events to the Kafka topic named after the bus topic,
// keyed by entity internal id.
type KafkaPublisher struct {
	producer *kafka.Producer
	logger   log.FieldLogger
}

func NewKafkaPublisher(bootstrapServers string, logger log.FieldLogger) (*KafkaPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": bootstrapServers,
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	logger.WithField("bootstrap_servers", bootstrapServers).Info("Kafka producer created for entity events")

	return &KafkaPublisher{producer: p, logger: logger}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	msg, err := NewMessage(event)
	if err != nil {
		return err
	}

	deliveryChan := make(chan kafka.Event, 1)

	if err := p.producer.Produce(msg, deliveryChan); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected event type: %T", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
		}
		return nil
	case <-time.After(deliveryTimeout):
		return fmt.Errorf("delivery timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewMessage encodes event as a Kafka message without sending it.
func NewMessage(event domain.Event) (*kafka.Message, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	topic := event.Topic
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          payload,
		Headers:        []kafka.Header{{Key: "actor", Value: []byte(event.Actor)}},
	}
	if event.Entity != nil {
		msg.Key = []byte(event.Entity.ID)
		msg.Headers = append(msg.Headers, kafka.Header{Key: "entity_type", Value: []byte(event.Entity.Type)})
	}
	return msg, nil
}

func (p *KafkaPublisher) Close() {
	p.logger.Info("Closing Kafka producer...")
	p.producer.Flush(15 * 1000)
	p.producer.Close()
}
