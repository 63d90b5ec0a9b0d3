package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
	"github.com/Vardandatasciences/riskavaire-access/internal/core/port"
	"github.com/Vardandatasciences/riskavaire-access/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishGrantsUpdated publishes access.grants.updated events.
func (p *EventPublisher) PublishGrantsUpdated(ctx context.Context, event domain.GrantsUpdatedEvent) error {
	payload := struct {
		UserID    string          `json:"user_id"`
		ActorID   string          `json:"actor_id,omitempty"`
		Delta     domain.GrantSet `json:"delta"`
		Revision  int64           `json:"revision"`
		UpdatedAt time.Time       `json:"updated_at"`
		Metadata  map[string]any  `json:"metadata,omitempty"`
	}{
		UserID:    event.UserID,
		ActorID:   event.ActorID,
		Delta:     event.Delta,
		Revision:  event.Revision,
		UpdatedAt: event.UpdatedAt.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, "access.grants.updated", event.UserID, event.UpdatedAt, payload)
}

// PublishRoleApplied publishes access.role.applied events.
func (p *EventPublisher) PublishRoleApplied(ctx context.Context, event domain.RoleAppliedEvent) error {
	payload := struct {
		UserID    string         `json:"user_id"`
		ActorID   string         `json:"actor_id,omitempty"`
		Role      string         `json:"role"`
		Reset     bool           `json:"reset"`
		AppliedAt time.Time      `json:"applied_at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		UserID:    event.UserID,
		ActorID:   event.ActorID,
		Role:      event.Role,
		Reset:     event.Reset,
		AppliedAt: event.AppliedAt.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, "access.role.applied", event.UserID, event.AppliedAt, payload)
}

// PublishBulkCompleted publishes access.bulk.completed events.
func (p *EventPublisher) PublishBulkCompleted(ctx context.Context, event domain.BulkCompletedEvent) error {
	payload := struct {
		ActorID     string         `json:"actor_id,omitempty"`
		TotalUsers  int            `json:"total_users"`
		Succeeded   int            `json:"succeeded"`
		Failed      int            `json:"failed"`
		TimedOut    int            `json:"timed_out"`
		CompletedAt time.Time      `json:"completed_at"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		ActorID:     event.ActorID,
		TotalUsers:  event.TotalUsers,
		Succeeded:   event.Succeeded,
		Failed:      event.Failed,
		TimedOut:    event.TimedOut,
		CompletedAt: event.CompletedAt.UTC(),
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "access.bulk.completed", "", event.CompletedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
