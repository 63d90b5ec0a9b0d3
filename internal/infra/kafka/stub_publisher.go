package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
	"github.com/Vardandatasciences/riskavaire-access/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishGrantsUpdated logs access.grants.updated events.
func (p *StubPublisher) PublishGrantsUpdated(_ context.Context, event domain.GrantsUpdatedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"actor_id":   event.ActorID,
		"delta":      event.Delta,
		"revision":   event.Revision,
		"updated_at": event.UpdatedAt,
		"metadata":   event.Metadata,
	}
	p.logEvent("access.grants.updated", event.UserID, event.UpdatedAt, payload)
	return nil
}

// PublishRoleApplied logs access.role.applied events.
func (p *StubPublisher) PublishRoleApplied(_ context.Context, event domain.RoleAppliedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"actor_id":   event.ActorID,
		"role":       event.Role,
		"reset":      event.Reset,
		"applied_at": event.AppliedAt,
		"metadata":   event.Metadata,
	}
	p.logEvent("access.role.applied", event.UserID, event.AppliedAt, payload)
	return nil
}

// PublishBulkCompleted logs access.bulk.completed events.
func (p *StubPublisher) PublishBulkCompleted(_ context.Context, event domain.BulkCompletedEvent) error {
	payload := map[string]any{
		"actor_id":     event.ActorID,
		"total_users":  event.TotalUsers,
		"succeeded":    event.Succeeded,
		"failed":       event.Failed,
		"timed_out":    event.TimedOut,
		"completed_at": event.CompletedAt,
		"metadata":     event.Metadata,
	}
	p.logEvent("access.bulk.completed", "", event.CompletedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
