package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"langsync/internal/domain"
	"langsync/internal/ports"
)

// KafkaNotifier publishes events to a topic for downstream consumers,
// typically a mail bridge or chat hook.
type KafkaNotifier struct {
	producer *kafka.Producer
	topic    string
}

var _ ports.Notifier = (*KafkaNotifier)(nil)

func NewKafkaNotifier(bootstrap, topic string) (*KafkaNotifier, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": bootstrap})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &KafkaNotifier{producer: p, topic: topic}, nil
}

func (n *KafkaNotifier) Notify(ctx context.Context, e domain.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return n.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &n.topic, Partition: kafka.PartitionAny},
		Key:            []byte(e.Kind),
		Value:          payload,
	}, nil)
}

// Close flushes queued messages and releases the producer.
func (n *KafkaNotifier) Close() {
	n.producer.Flush(5000)
	n.producer.Close()
}
