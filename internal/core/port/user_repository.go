package port

import (
	"context"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
)

// UserFilter narrows a directory listing. Page is 1-indexed.
type UserFilter struct {
	Search          string
	Department      string
	IncludeInactive bool
	Page            int
	PageSize        int
}

// UserRepository provides read access to the user directory.
type UserRepository interface {
	List(ctx context.Context, filter UserFilter) ([]domain.User, int, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
