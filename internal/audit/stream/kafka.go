// Package stream mirrors audit events onto a Kafka topic for downstream
// consumers (SIEM, fraud review).
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"bellgas/internal/audit"
	"bellgas/internal/platform/config"
)

// Record is the wire form of an audit event on the topic.
type Record struct {
	ID         uuid.UUID `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Action     string    `json:"action"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Source     string    `json:"source,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Device     string    `json:"device,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}

func newRecord(event audit.Event) Record {
	r := Record{
		ID:         event.ID,
		OccurredAt: event.OccurredAt.UTC(),
		Action:     event.Action.String(),
		Email:      event.Email,
		Source:     event.Source,
		Reason:     event.Reason,
		Device:     event.Device,
		ClientIP:   event.ClientIP,
		RequestID:  event.RequestID,
	}
	if !event.UserID.IsNil() {
		r.UserID = event.UserID.String()
	}
	return r
}

// partitionKey keeps one subject's events ordered on a single partition.
func (r Record) partitionKey() []byte {
	if r.UserID != "" {
		return []byte(r.UserID)
	}
	return []byte(r.Email)
}

// KafkaSink produces audit events to a single topic.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects to the configured brokers. It returns nil when no
// brokers are configured.
func NewKafka(ctx context.Context, cfg config.KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.AuditTopic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.Lz4Compression(), kgo.NoCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}
	return &KafkaSink{client: client, topic: cfg.AuditTopic}, nil
}

// EnsureTopic creates the audit topic if it does not exist yet.
func (k *KafkaSink) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	resp, err := kadm.NewClient(k.client).CreateTopics(ctx, partitions, replicationFactor, nil, k.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", k.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Append produces event synchronously and waits for broker acknowledgement.
func (k *KafkaSink) Append(ctx context.Context, event audit.Event) error {
	rec := newRecord(event)
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode audit record: %w", err)
	}
	err = k.client.ProduceSync(ctx, &kgo.Record{
		Topic: k.topic,
		Key:   rec.partitionKey(),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(rec.Action)},
		},
	}).FirstErr()
	if err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

// Health reports whether any broker is reachable.
func (k *KafkaSink) Health(ctx context.Context) error {
	return k.client.Ping(ctx)
}

func (k *KafkaSink) Close() {
	k.client.Close()
}
