package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/weiawesome/wes-idgen/pkg/log"
)

// GeneratedTopic receives every generation event, keyed by source ID.
const GeneratedTopic = "idgen-generated"

// KafkaPublisher publishes events to Kafka topics.
type KafkaPublisher struct {
	producer *kafka.Producer
	config   KafkaConfig
	doneCh   chan struct{}
}

// NewKafkaPublisher creates a Kafka producer and makes sure the topic exists.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "all",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kp := &KafkaPublisher{
		producer: p,
		config:   cfg,
		doneCh:   make(chan struct{}),
	}

	go kp.deliveryReportHandler()

	if err := kp.ensureTopic(); err != nil {
		l := log.L()
		l.Warn().Err(err).Str("topic", GeneratedTopic).Msg("failed to ensure kafka topic")
	}

	return kp, nil
}

func (k *KafkaPublisher) ensureTopic() error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": k.config.Brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	partitions := k.config.Partitions
	if partitions <= 0 {
		partitions = 4
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             GeneratedTopic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	}})
	if err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}

	for _, r := range results {
		if r.Error.Code() != kafka.ErrNoError && r.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %w", r.Topic, r.Error)
		}
	}
	return nil
}

func (k *KafkaPublisher) deliveryReportHandler() {
	for e := range k.producer.Events() {
		if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			l := log.L()
			l.Error().Err(m.TopicPartition.Error).Str("key", string(m.Key)).Msg("kafka delivery failed")
		}
	}
	close(k.doneCh)
}

// Publish converts the channel to a topic and key and produces the event.
func (k *KafkaPublisher) Publish(_ context.Context, channel string, event *Event) error {
	topic, key, err := channelToTopicAndKey(channel)
	if err != nil {
		return fmt.Errorf("failed to parse channel: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(key),
		Value: data,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the producer.
func (k *KafkaPublisher) Close() error {
	k.producer.Flush(5000)
	k.producer.Close()
	<-k.doneCh
	return nil
}
