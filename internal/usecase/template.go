package usecase

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
	"github.com/Vardandatasciences/riskavaire-access/internal/core/port"
	"github.com/Vardandatasciences/riskavaire-access/internal/registry"
)

// TemplateService resolves role templates and applies them to users. A
// template is a one-shot value source: applying it issues ordinary grants and
// leaves no live link between the role and the user afterwards.
type TemplateService struct {
	registry *registry.Registry
	grants   *GrantService
	events   port.EventPublisher
	logger   *zap.Logger
}

// NewTemplateService constructs a TemplateService.
func NewTemplateService(reg *registry.Registry, grants *GrantService, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{registry: reg, grants: grants, logger: logger}
}

// WithEventPublisher attaches a change-event publisher.
func (s *TemplateService) WithEventPublisher(events port.EventPublisher) *TemplateService {
	s.events = events
	return s
}

// TemplateFor returns the canonical permission-field set for the named role.
func (s *TemplateService) TemplateFor(role string) (domain.RoleTemplate, error) {
	tpl, ok := s.registry.Template(role)
	if !ok {
		return domain.RoleTemplate{}, fmt.Errorf("role %q: %w", role, ErrUnknownRole)
	}
	return tpl, nil
}

// ListTemplates returns every role template in definition order.
func (s *TemplateService) ListTemplates() []domain.RoleTemplate {
	return s.registry.Templates()
}

// ExpandTemplate builds the grant delta a role application produces. Additive
// by default: only templated fields, all true. With reset, every schema field
// absent from the template is set false first, so the result is a full
// re-seed in one logical write.
func (s *TemplateService) ExpandTemplate(role string, reset bool) (domain.GrantSet, error) {
	tpl, err := s.TemplateFor(role)
	if err != nil {
		return nil, err
	}

	delta := tpl.Delta()
	if reset {
		full := s.registry.FullSet()
		full.Merge(delta)
		delta = full
	}
	return delta, nil
}

// ApplyTemplate applies the named role's template to the user as a single
// atomic grant write.
func (s *TemplateService) ApplyTemplate(ctx context.Context, actorID, userID, role string, reset bool) (int64, error) {
	delta, err := s.ExpandTemplate(role, reset)
	if err != nil {
		return 0, err
	}

	revision, err := s.grants.SetGrants(ctx, actorID, userID, delta, nil)
	if err != nil {
		return 0, err
	}

	if s.events != nil {
		event := domain.RoleAppliedEvent{
			EventID:   uuid.NewString(),
			UserID:    userID,
			ActorID:   actorID,
			Role:      role,
			Reset:     reset,
			AppliedAt: time.Now().UTC(),
		}
		if err := s.events.PublishRoleApplied(ctx, event); err != nil {
			s.logger.Warn("publish role applied event failed",
				zap.String("user_id", userID),
				zap.String("role", role),
				zap.Error(err),
			)
		}
	}

	return revision, nil
}
