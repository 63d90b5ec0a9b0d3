package domain

import "time"

// GrantsUpdatedEvent records a committed change to one user's grants.
type GrantsUpdatedEvent struct {
	EventID   string
	UserID    string
	ActorID   string
	Delta     GrantSet
	Revision  int64
	UpdatedAt time.Time
	Metadata  map[string]any
}

// RoleAppliedEvent records a role template being applied to a user.
type RoleAppliedEvent struct {
	EventID   string
	UserID    string
	ActorID   string
	Role      string
	Reset     bool
	AppliedAt time.Time
	Metadata  map[string]any
}

// BulkCompletedEvent summarises the outcome of a bulk permission update.
type BulkCompletedEvent struct {
	EventID     string
	ActorID     string
	TotalUsers  int
	Succeeded   int
	Failed      int
	TimedOut    int
	CompletedAt time.Time
	Metadata    map[string]any
}
