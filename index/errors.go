package index

import "errors"

var (
	// ErrNotReady indicates an index did not become ready before the
	// readiness deadline after creation.
	ErrNotReady = errors.New("index not ready")

	// ErrNotFound indicates an operation targeted an index that does not exist.
	ErrNotFound = errors.New("index not found")
)
