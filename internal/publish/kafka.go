package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/auracast/auracast/internal/session"
)

// KafkaConfig holds broker settings.
type KafkaConfig struct {
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// Enabled reports whether brokers are configured.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// KafkaWriter is the subset of *kafka.Writer used for publishing.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes readings as JSON keyed by city slug, so every
// reading of a city lands on the same partition in order.
type KafkaPublisher struct {
	writer KafkaWriter
}

// NewKafkaPublisher wraps an existing writer.
func NewKafkaPublisher(w KafkaWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// NewKafkaWriter builds a synchronous writer hashing keys to partitions.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	topic := cfg.Topic
	if topic == "" {
		topic = "auracast.readings"
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// Name returns "kafka".
func (p *KafkaPublisher) Name() string { return "kafka" }

// Message builds the Kafka message for a reading.
func (p *KafkaPublisher) Message(r session.Reading) (kafka.Message, error) {
	value, err := json.Marshal(r)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(Slug(r.City)),
		Value: value,
		Time:  r.UpdatedAt,
		Headers: []kafka.Header{
			{Key: "level", Value: []byte(r.Current.Level)},
		},
	}, nil
}

// Publish writes one message.
func (p *KafkaPublisher) Publish(ctx context.Context, r session.Reading) error {
	msg, err := p.Message(r)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
