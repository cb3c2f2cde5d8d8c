package server

import "errors"

var (
	// ErrServiceRequired is returned when a retrieval service is not provided.
	ErrServiceRequired = errors.New("retrieval service required")
)
