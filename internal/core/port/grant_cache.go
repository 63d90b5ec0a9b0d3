package port

import (
	"context"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
)

// GrantCache is a best-effort read cache for expanded grant maps. A cache
// failure must never fail the read path; callers fall back to the repository.
type GrantCache interface {
	Get(ctx context.Context, userID string) (*domain.UserGrants, error)
	Set(ctx context.Context, grants domain.UserGrants) error
	Invalidate(ctx context.Context, userID string) error
}
