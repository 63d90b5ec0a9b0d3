package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
	"github.com/Vardandatasciences/riskavaire-access/internal/core/port"
)

const (
	// MaxPageSize caps directory page sizes; larger requests are clamped.
	MaxPageSize = 200
	// DefaultPageSize applies when the caller does not pick a page size.
	DefaultPageSize = 25
)

// ListUsersInput captures directory listing filters. Page is 1-indexed.
type ListUsersInput struct {
	Search          string
	Department      string
	IncludeInactive bool
	Page            int
	PageSize        int
}

// ListUsersResult is one directory page plus pagination metadata.
type ListUsersResult struct {
	Users      []domain.User
	TotalCount int
	Page       int
	PageSize   int
}

// DirectoryService lists users from the directory index. It is read-only and
// deliberately does not join grant data, so listing stays cheap regardless of
// how many modules the schema declares.
type DirectoryService struct {
	users port.UserRepository
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(users port.UserRepository) *DirectoryService {
	return &DirectoryService{users: users}
}

// ListUsers returns one page of matching users and the total match count.
// Search is a case-insensitive substring match on name or identifier;
// department is exact-match. Inactive users are excluded unless requested.
func (s *DirectoryService) ListUsers(ctx context.Context, input ListUsersInput) (ListUsersResult, error) {
	var result ListUsersResult

	if input.Page == 0 {
		input.Page = 1
	}
	if input.PageSize == 0 {
		input.PageSize = DefaultPageSize
	}

	if input.Page < 1 {
		return result, fmt.Errorf("page must be positive: %w", ErrMalformedRequest)
	}
	if input.PageSize < 1 {
		return result, fmt.Errorf("page_size must be positive: %w", ErrMalformedRequest)
	}
	if input.PageSize > MaxPageSize {
		input.PageSize = MaxPageSize
	}

	filter := port.UserFilter{
		Search:          strings.TrimSpace(input.Search),
		Department:      strings.TrimSpace(input.Department),
		IncludeInactive: input.IncludeInactive,
		Page:            input.Page,
		PageSize:        input.PageSize,
	}

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return result, fmt.Errorf("list users: %w", err)
	}

	return ListUsersResult{
		Users:      users,
		TotalCount: total,
		Page:       input.Page,
		PageSize:   input.PageSize,
	}, nil
}
