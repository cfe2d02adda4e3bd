// Package publisher emits workflow events to Kafka.
//
// Events mirror stored notifications so downstream consumers (email, push,
// analytics) can fan out without touching the database. Delivery is
// best-effort: the stored notification row is the source of truth.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"mandat/internal/notification"
	"mandat/internal/platform/config"
)

// Kafka publishes workflow events using franz-go.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// event is the wire payload for one workflow event.
type event struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_id"`
	MandateID   string `json:"mandate_id,omitempty"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	CreatedAt   string `json:"created_at"`
}

// NewKafka connects to the brokers and ensures the events topic exists.
// Returns nil when no brokers are configured.
func NewKafka(cfg config.KafkaConfig, logger *slog.Logger) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	// Topic bootstrap is convenience for development clusters; an existing
	// topic is not an error.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	admin := kadm.NewClient(client)
	if _, err := admin.CreateTopic(ctx, 3, 1, nil, cfg.Topic); err != nil && logger != nil {
		logger.Warn("kafka topic bootstrap skipped", "topic", cfg.Topic, "error", err.Error())
	}

	return &Kafka{client: client, topic: cfg.Topic, logger: logger}, nil
}

// Publish produces one event asynchronously. Produce errors are logged in
// the callback; the workflow action has already committed by the time this
// runs and must not observe the failure.
func (k *Kafka) Publish(ctx context.Context, n notification.Notification) error {
	payload := event{
		ID:          n.ID.String(),
		RecipientID: n.RecipientID.String(),
		Type:        string(n.Type),
		Title:       n.Title,
		CreatedAt:   n.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if n.MandateID != nil {
		payload.MandateID = n.MandateID.String()
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(payload.RecipientID),
		Value: value,
	}
	k.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && k.logger != nil {
			k.logger.Warn("kafka produce failed",
				"topic", k.topic,
				"type", payload.Type,
				"error", err.Error(),
			)
		}
	})
	return nil
}

// Close flushes pending records and releases the client.
func (k *Kafka) Close() {
	if k == nil || k.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = k.client.Flush(ctx)
	k.client.Close()
}
