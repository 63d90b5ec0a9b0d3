package port

import (
	"context"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
)

// EventPublisher emits access-control change events for downstream consumers.
type EventPublisher interface {
	PublishGrantsUpdated(ctx context.Context, event domain.GrantsUpdatedEvent) error
	PublishRoleApplied(ctx context.Context, event domain.RoleAppliedEvent) error
	PublishBulkCompleted(ctx context.Context, event domain.BulkCompletedEvent) error
}
