package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
	"github.com/Vardandatasciences/riskavaire-access/internal/core/port"
)

// DefaultBulkConcurrency bounds parallel per-user writes in a bulk update.
const DefaultBulkConcurrency = 8

// BulkStatus is the outcome classification for one user in a bulk update.
type BulkStatus string

const (
	BulkSuccess BulkStatus = "success"
	BulkFailed  BulkStatus = "failed"
	// BulkTimeout marks users whose update was abandoned or never attempted
	// because the caller's budget ran out. Already-committed users stand.
	BulkTimeout BulkStatus = "timeout"
)

// BulkOutcome is one user's result, reported in input order.
type BulkOutcome struct {
	UserID    string
	Status    BulkStatus
	ErrorKind string
}

// UpdateInput is a single-user permission update: an explicit delta, a role
// template to apply, or both. When both are present the template seeds
// defaults and the delta overrides them, in one atomic write.
type UpdateInput struct {
	UserID           string
	Delta            domain.GrantSet
	Role             string
	Reset            bool
	ExpectedRevision *int64
}

// BulkInput targets many users with one shared delta and/or role.
type BulkInput struct {
	UserIDs []string
	Delta   domain.GrantSet
	Role    string
	Reset   bool
}

// UpdateObserver receives engine metrics. Implemented by infra/telemetry.
type UpdateObserver interface {
	ObserveGrantWrite(result string)
	ObserveBulkOutcome(status string)
}

// UpdateService orchestrates single-user and bulk permission updates. Bulk
// updates are a deliberate best-effort batch: each user commits or fails
// independently, and partial progress is reported rather than rolled back.
type UpdateService struct {
	grants      *GrantService
	templates   *TemplateService
	events      port.EventPublisher
	observer    UpdateObserver
	logger      *zap.Logger
	concurrency int64
}

// NewUpdateService constructs an UpdateService.
func NewUpdateService(grants *GrantService, templates *TemplateService, logger *zap.Logger) *UpdateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdateService{
		grants:      grants,
		templates:   templates,
		logger:      logger,
		concurrency: DefaultBulkConcurrency,
	}
}

// WithEventPublisher attaches a change-event publisher for bulk summaries.
func (s *UpdateService) WithEventPublisher(events port.EventPublisher) *UpdateService {
	s.events = events
	return s
}

// WithObserver attaches a metrics observer.
func (s *UpdateService) WithObserver(observer UpdateObserver) *UpdateService {
	s.observer = observer
	return s
}

// WithConcurrency overrides the bulk worker bound.
func (s *UpdateService) WithConcurrency(n int) *UpdateService {
	if n > 0 {
		s.concurrency = int64(n)
	}
	return s
}

// composeDelta folds the role template (if any) and the explicit delta into
// the single grant set written for one user.
func (s *UpdateService) composeDelta(input UpdateInput) (domain.GrantSet, error) {
	if input.Role == "" {
		return input.Delta, nil
	}

	combined, err := s.templates.ExpandTemplate(input.Role, input.Reset)
	if err != nil {
		return nil, err
	}
	combined.Merge(input.Delta)
	return combined, nil
}

// UpdatePermissions validates and applies one user's update. Validation runs
// before the store is touched; the write itself is atomic for the user.
func (s *UpdateService) UpdatePermissions(ctx context.Context, actorID string, input UpdateInput) (int64, error) {
	if input.UserID == "" {
		return 0, fmt.Errorf("user id is required: %w", ErrMalformedRequest)
	}
	if input.Delta.IsEmpty() && input.Role == "" {
		return 0, fmt.Errorf("empty permission delta and no role: %w", ErrMalformedRequest)
	}

	delta, err := s.composeDelta(input)
	if err != nil {
		s.observeWrite(err)
		return 0, err
	}

	revision, err := s.grants.SetGrants(ctx, actorID, input.UserID, delta, input.ExpectedRevision)
	s.observeWrite(err)
	if err != nil {
		return 0, err
	}
	return revision, nil
}

// BulkUpdate applies the same update to every listed user, at most
// s.concurrency at a time. One user's failure never aborts or rolls back the
// others; the outcome list preserves input order. A context deadline is
// honored by reporting unattempted users with a timeout outcome while
// already-committed users stand.
func (s *UpdateService) BulkUpdate(ctx context.Context, actorID string, input BulkInput) ([]BulkOutcome, error) {
	if len(input.UserIDs) == 0 {
		return nil, fmt.Errorf("empty user list: %w", ErrMalformedRequest)
	}
	if input.Delta.IsEmpty() && input.Role == "" {
		return nil, fmt.Errorf("empty permission delta and no role: %w", ErrMalformedRequest)
	}

	// Structural validation happens once, before any per-user dispatch.
	if err := s.grants.ValidateDelta(input.Delta); err != nil {
		return nil, err
	}
	if input.Role != "" {
		if _, err := s.templates.TemplateFor(input.Role); err != nil {
			return nil, err
		}
	}

	outcomes := make([]BulkOutcome, len(input.UserIDs))
	sem := semaphore.NewWeighted(s.concurrency)
	var g errgroup.Group

	for i, userID := range input.UserIDs {
		i, userID := i, userID

		if err := sem.Acquire(ctx, 1); err != nil {
			outcomes[i] = BulkOutcome{UserID: userID, Status: BulkTimeout, ErrorKind: "timeout"}
			continue
		}

		g.Go(func() error {
			defer sem.Release(1)

			if ctx.Err() != nil {
				outcomes[i] = BulkOutcome{UserID: userID, Status: BulkTimeout, ErrorKind: "timeout"}
				return nil
			}

			_, err := s.UpdatePermissions(ctx, actorID, UpdateInput{
				UserID: userID,
				Delta:  input.Delta,
				Role:   input.Role,
				Reset:  input.Reset,
			})
			outcomes[i] = s.classify(userID, err)
			return nil
		})
	}

	_ = g.Wait()

	summary := domain.BulkCompletedEvent{
		EventID:     uuid.NewString(),
		ActorID:     actorID,
		TotalUsers:  len(outcomes),
		CompletedAt: time.Now().UTC(),
	}
	for _, outcome := range outcomes {
		switch outcome.Status {
		case BulkSuccess:
			summary.Succeeded++
		case BulkTimeout:
			summary.TimedOut++
		default:
			summary.Failed++
		}
		if s.observer != nil {
			s.observer.ObserveBulkOutcome(string(outcome.Status))
		}
	}

	s.logger.Info("bulk permission update completed",
		zap.Int("total", summary.TotalUsers),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("timed_out", summary.TimedOut),
	)

	if s.events != nil {
		if err := s.events.PublishBulkCompleted(ctx, summary); err != nil {
			s.logger.Warn("publish bulk completed event failed", zap.Error(err))
		}
	}

	return outcomes, nil
}

func (s *UpdateService) classify(userID string, err error) BulkOutcome {
	if err == nil {
		return BulkOutcome{UserID: userID, Status: BulkSuccess}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return BulkOutcome{UserID: userID, Status: BulkTimeout, ErrorKind: "timeout"}
	}
	return BulkOutcome{UserID: userID, Status: BulkFailed, ErrorKind: ErrorKind(err)}
}

func (s *UpdateService) observeWrite(err error) {
	if s.observer == nil {
		return
	}
	if err == nil {
		s.observer.ObserveGrantWrite("success")
		return
	}
	s.observer.ObserveGrantWrite(ErrorKind(err))
}
