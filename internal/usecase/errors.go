package usecase

import (
	"context"
	"errors"
)

var (
	// ErrInvalidField indicates a delta or template referenced a (module, field)
	// pair absent from the schema registry.
	ErrInvalidField = errors.New("invalid permission field")
	// ErrUnknownUser indicates the target user does not exist or is inactive.
	ErrUnknownUser = errors.New("unknown or inactive user")
	// ErrUnknownRole indicates the role name has no template.
	ErrUnknownRole = errors.New("unknown role")
	// ErrMalformedRequest indicates structurally invalid input: empty delta,
	// empty user list, or invalid pagination.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrStoreConflict indicates an optimistic-concurrency revision mismatch.
	ErrStoreConflict = errors.New("permission store conflict")
)

// ErrorKind maps an engine error to the stable kind string reported in bulk
// outcomes and error bodies.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidField):
		return "invalid_field"
	case errors.Is(err, ErrUnknownUser):
		return "unknown_user"
	case errors.Is(err, ErrUnknownRole):
		return "unknown_role"
	case errors.Is(err, ErrMalformedRequest):
		return "malformed_request"
	case errors.Is(err, ErrStoreConflict):
		return "store_conflict"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}
