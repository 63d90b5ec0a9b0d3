package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrRevisionMismatch indicates an optimistic-concurrency conflict: the
	// caller's expected revision no longer matches the stored one.
	ErrRevisionMismatch = errors.New("repository: revision mismatch")
)
