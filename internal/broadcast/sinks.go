package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smukkama/fleetzone-server/internal/queue"
)

// RedisSink publishes envelopes on a pub/sub channel per topic
// (<prefix>:<topic>) for observers outside this process.
type RedisSink struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

func NewRedisSink(client *redis.Client, prefix string, timeout time.Duration) *RedisSink {
	return &RedisSink{
		client:  client,
		prefix:  prefix,
		timeout: timeout,
	}
}

func (s *RedisSink) Name() string {
	return "redis"
}

func (s *RedisSink) Send(topic string, message []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	channel := fmt.Sprintf("%s:%s", s.prefix, topic)
	if err := s.client.Publish(ctx, channel, message).Err(); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", channel, err)
	}
	return nil
}

// KafkaSink exports envelopes to a Kafka topic, keyed by broadcast topic so
// downstream consumers keep per-topic ordering.
type KafkaSink struct {
	producer *queue.Producer
	timeout  time.Duration
}

func NewKafkaSink(producer *queue.Producer, timeout time.Duration) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		timeout:  timeout,
	}
}

func (s *KafkaSink) Name() string {
	return "kafka"
}

func (s *KafkaSink) Send(topic string, message []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	return s.producer.Publish(ctx, topic, message)
}
