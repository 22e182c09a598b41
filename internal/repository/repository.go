package repository

import "errors"

// ErrNotFound is returned when no non-deleted row matches the lookup.
var ErrNotFound = errors.New("resource not found")

// Resource represents a catalog record that can be persisted by a repository.
type Resource interface {
	InitMeta()
}

// UniqueConstraintError represents a database unique constraint violation error.
type UniqueConstraintError struct {
	Detail string
}

func (u *UniqueConstraintError) Error() string {
	return "resource must be unique: " + u.Detail
}
