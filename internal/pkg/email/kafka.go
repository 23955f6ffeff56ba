package email

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// KafkaConfig configures the event publisher used by the kafka driver
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	Username string
	Password string
	UseTLS   bool
}

// messageWriter is the part of *kafka.Writer the notifier needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes messages as JSON events for a mail worker to deliver
type KafkaNotifier struct {
	writer messageWriter
	now    func() time.Time
}

// NotificationEvent is the payload written to the topic
type NotificationEvent struct {
	Message
	CreatedAt time.Time `json:"createdAt"`
}

// NewKafkaNotifier creates a publisher for cfg.Topic
func NewKafkaNotifier(cfg KafkaConfig) *KafkaNotifier {
	transport := &kafka.Transport{}
	if cfg.Username != "" {
		transport.SASL = plain.Mechanism{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	if cfg.UseTLS {
		transport.TLS = &tls.Config{}
	}

	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Transport:    transport,
			WriteTimeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// Notify implements Notifier. The recipient is the partition key.
func (n *KafkaNotifier) Notify(ctx context.Context, msg Message) error {
	value, err := json.Marshal(NotificationEvent{Message: msg, CreatedAt: n.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: value,
		Time:  n.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Close flushes and closes the writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
