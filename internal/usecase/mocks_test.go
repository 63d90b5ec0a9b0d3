package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
	"github.com/Vardandatasciences/riskavaire-access/internal/core/port"
	"github.com/Vardandatasciences/riskavaire-access/internal/registry"
	"github.com/Vardandatasciences/riskavaire-access/internal/repository"
)

// In-memory mocks for the engine's ports.

type userRepoMock struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newUserRepoMock(users ...domain.User) *userRepoMock {
	m := &userRepoMock{users: make(map[string]domain.User, len(users))}
	for _, user := range users {
		m.users[user.ID] = user
	}
	return m
}

func (m *userRepoMock) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[id]; ok {
		return &user, nil
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoMock) List(_ context.Context, filter port.UserFilter) ([]domain.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]domain.User, 0, len(m.users))
	for _, user := range m.users {
		if !filter.IncludeInactive && !user.IsActive {
			continue
		}
		if filter.Department != "" && user.Department != filter.Department {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(user.DisplayName), needle) &&
				!strings.Contains(strings.ToLower(user.ID), needle) {
				continue
			}
		}
		matched = append(matched, user)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return []domain.User{}, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

type grantRepoMock struct {
	mu        sync.Mutex
	grants    map[string]domain.GrantSet
	revisions map[string]int64
	setErr    error
	setDelay  time.Duration
	setCalls  int
}

func newGrantRepoMock() *grantRepoMock {
	return &grantRepoMock{
		grants:    make(map[string]domain.GrantSet),
		revisions: make(map[string]int64),
	}
}

func (m *grantRepoMock) GetGrants(_ context.Context, userID string) (domain.UserGrants, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.grants[userID]
	return domain.UserGrants{
		UserID:   userID,
		Grants:   stored.Clone(),
		Revision: m.revisions[userID],
	}, nil
}

func (m *grantRepoMock) SetGrants(ctx context.Context, userID string, delta domain.GrantSet, expectedRevision *int64) (int64, error) {
	if m.setDelay > 0 {
		select {
		case <-time.After(m.setDelay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.setCalls++

	if m.setErr != nil {
		return 0, m.setErr
	}
	if expectedRevision != nil && *expectedRevision != m.revisions[userID] {
		return 0, repository.ErrRevisionMismatch
	}

	stored, ok := m.grants[userID]
	if !ok {
		stored = make(domain.GrantSet)
		m.grants[userID] = stored
	}
	stored.Merge(delta)
	m.revisions[userID]++
	return m.revisions[userID], nil
}

// snapshot returns a deep copy of the stored grants for assertions.
func (m *grantRepoMock) snapshot(userID string) domain.GrantSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grants[userID].Clone()
}

type grantCacheMock struct {
	mu          sync.Mutex
	entries     map[string]domain.UserGrants
	invalidated []string
}

func newGrantCacheMock() *grantCacheMock {
	return &grantCacheMock{entries: make(map[string]domain.UserGrants)}
}

func (m *grantCacheMock) Get(_ context.Context, userID string) (*domain.UserGrants, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[userID]; ok {
		return &entry, nil
	}
	return nil, nil
}

func (m *grantCacheMock) Set(_ context.Context, grants domain.UserGrants) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[grants.UserID] = grants
	return nil
}

func (m *grantCacheMock) Invalidate(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	m.invalidated = append(m.invalidated, userID)
	return nil
}

type eventPublisherMock struct {
	mu             sync.Mutex
	grantsUpdated  []domain.GrantsUpdatedEvent
	rolesApplied   []domain.RoleAppliedEvent
	bulksCompleted []domain.BulkCompletedEvent
}

func (m *eventPublisherMock) PublishGrantsUpdated(_ context.Context, event domain.GrantsUpdatedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grantsUpdated = append(m.grantsUpdated, event)
	return nil
}

func (m *eventPublisherMock) PublishRoleApplied(_ context.Context, event domain.RoleAppliedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolesApplied = append(m.rolesApplied, event)
	return nil
}

func (m *eventPublisherMock) PublishBulkCompleted(_ context.Context, event domain.BulkCompletedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bulksCompleted = append(m.bulksCompleted, event)
	return nil
}

const testSchema = `
modules:
  - name: access_control
    fields: [can_view, can_manage]
  - name: vendors
    fields: [can_view, can_edit, can_approve]
  - name: contracts
    fields: [can_view, can_edit]
roles:
  - name: auditor
    modules:
      vendors: [can_view]
      contracts: [can_view]
  - name: editor
    modules:
      vendors: [can_view, can_edit]
      contracts: [can_view, can_edit]
`

func testRegistry(t interface{ Fatalf(string, ...any) }) *registry.Registry {
	reg, err := registry.Parse([]byte(testSchema))
	if err != nil {
		t.Fatalf("parse test schema: %v", err)
	}
	return reg
}

func activeUser(id string) domain.User {
	return domain.User{
		ID:          id,
		DisplayName: "User " + id,
		Department:  "risk",
		Role:        "viewer",
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
}
