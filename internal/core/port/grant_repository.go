package port

import (
	"context"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
)

// GrantRepository owns PermissionGrant persistence. Stored grants are sparse:
// absent rows mean false, and expansion to the full schema shape happens in
// the usecase layer.
type GrantRepository interface {
	// GetGrants returns the stored grants and current revision for the user.
	// A user with no grant rows yields an empty set and revision zero.
	GetGrants(ctx context.Context, userID string) (domain.UserGrants, error)

	// SetGrants merges delta into the user's grants atomically and bumps the
	// revision, returning the new revision. When expectedRevision is non-nil
	// and does not match the current revision, the write is rejected with
	// repository.ErrRevisionMismatch and nothing changes.
	SetGrants(ctx context.Context, userID string, delta domain.GrantSet, expectedRevision *int64) (int64, error)
}
