package tabindex

import "errors"

var (
	// ErrIndexNameRequired is returned when a system is created without a
	// collection name.
	ErrIndexNameRequired = errors.New("index name required")
)
