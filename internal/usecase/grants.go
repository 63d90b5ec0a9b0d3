package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
	"github.com/Vardandatasciences/riskavaire-access/internal/core/port"
	"github.com/Vardandatasciences/riskavaire-access/internal/registry"
	"github.com/Vardandatasciences/riskavaire-access/internal/repository"
)

// AccessControlModule is the module guarding this engine's own endpoints.
const AccessControlModule = "access_control"

// ManageAccessField is the field an administrator needs to manage permissions.
const ManageAccessField = "can_manage"

// GrantService is the permission store: it owns every read and write of
// PermissionGrant records and is the only component that touches the grant
// repository.
type GrantService struct {
	grants   port.GrantRepository
	users    port.UserRepository
	registry *registry.Registry
	cache    port.GrantCache
	events   port.EventPublisher
	logger   *zap.Logger
}

// NewGrantService constructs a GrantService.
func NewGrantService(grants port.GrantRepository, users port.UserRepository, reg *registry.Registry, logger *zap.Logger) *GrantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GrantService{grants: grants, users: users, registry: reg, logger: logger}
}

// WithCache attaches a best-effort read cache.
func (s *GrantService) WithCache(cache port.GrantCache) *GrantService {
	s.cache = cache
	return s
}

// WithEventPublisher attaches a change-event publisher.
func (s *GrantService) WithEventPublisher(events port.EventPublisher) *GrantService {
	s.events = events
	return s
}

// GetGrants returns the user's grants expanded over the full schema: every
// module and field the registry declares is present, with missing records
// reported as false. The returned revision supports optimistic concurrency.
func (s *GrantService) GetGrants(ctx context.Context, userID string) (domain.UserGrants, error) {
	var result domain.UserGrants

	if userID == "" {
		return result, fmt.Errorf("user id is required: %w", ErrMalformedRequest)
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result, fmt.Errorf("user %s: %w", userID, ErrUnknownUser)
		}
		return result, fmt.Errorf("lookup user %s: %w", userID, err)
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.Warn("grant cache read failed", zap.String("user_id", userID), zap.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	stored, err := s.grants.GetGrants(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("get grants: %w", err)
	}

	expanded := s.registry.FullSet()
	expanded.Merge(stored.Grants)

	result = domain.UserGrants{UserID: userID, Grants: expanded, Revision: stored.Revision}

	if s.cache != nil {
		if err := s.cache.Set(ctx, result); err != nil {
			s.logger.Warn("grant cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return result, nil
}

// SetGrants merges delta into the user's grants, atomically for that user.
// The delta is validated against the schema registry before any write; an
// unknown (module, field) pair rejects the whole call and the stored state is
// untouched. A non-nil expectedRevision turns on optimistic concurrency.
func (s *GrantService) SetGrants(ctx context.Context, actorID, userID string, delta domain.GrantSet, expectedRevision *int64) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("user id is required: %w", ErrMalformedRequest)
	}
	if delta.IsEmpty() {
		return 0, fmt.Errorf("empty permission delta: %w", ErrMalformedRequest)
	}

	if err := s.ValidateDelta(delta); err != nil {
		return 0, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("user %s: %w", userID, ErrUnknownUser)
		}
		return 0, fmt.Errorf("lookup user %s: %w", userID, err)
	}
	if !user.IsActive {
		return 0, fmt.Errorf("user %s is inactive: %w", userID, ErrUnknownUser)
	}

	revision, err := s.grants.SetGrants(ctx, userID, delta, expectedRevision)
	if err != nil {
		if errors.Is(err, repository.ErrRevisionMismatch) {
			return 0, fmt.Errorf("user %s: %w", userID, ErrStoreConflict)
		}
		return 0, fmt.Errorf("set grants: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			s.logger.Warn("grant cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	if s.events != nil {
		event := domain.GrantsUpdatedEvent{
			EventID:   uuid.NewString(),
			UserID:    userID,
			ActorID:   actorID,
			Delta:     delta.Clone(),
			Revision:  revision,
			UpdatedAt: time.Now().UTC(),
		}
		if err := s.events.PublishGrantsUpdated(ctx, event); err != nil {
			s.logger.Warn("publish grants updated event failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return revision, nil
}

// ValidateDelta checks every (module, field) pair in delta against the schema
// registry without touching stored state.
func (s *GrantService) ValidateDelta(delta domain.GrantSet) error {
	for module, fields := range delta {
		for field := range fields {
			if !s.registry.IsValidField(module, field) {
				return fmt.Errorf("%s.%s: %w", module, field, ErrInvalidField)
			}
		}
	}
	return nil
}

// CanManageAccess reports whether the actor holds the access_control.can_manage
// grant. Unknown actors simply lack the capability; that is not an error.
func (s *GrantService) CanManageAccess(ctx context.Context, actorID string) (bool, error) {
	grants, err := s.GetGrants(ctx, actorID)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) || errors.Is(err, ErrMalformedRequest) {
			return false, nil
		}
		return false, err
	}
	return grants.Grants.Granted(AccessControlModule, ManageAccessField), nil
}
