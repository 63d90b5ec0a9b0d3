package domain

import "time"

// User is a directory entry managed by the external identity process.
// The engine reads users and never creates them; only the active flag is
// ever toggled, and that from outside this service.
type User struct {
	ID          string
	DisplayName string
	Department  string
	Role        string
	IsActive    bool
	CreatedAt   time.Time
}
