package answer

import "errors"

var (
	// ErrIndexRequired is returned when an index handle is not provided.
	ErrIndexRequired = errors.New("index required")

	// ErrCompleterRequired is returned when a completer is not provided.
	ErrCompleterRequired = errors.New("completer required")

	// ErrScanLimit is returned when a full-index scan exceeds the configured
	// page bound. Aggregation answers must never be computed from a silently
	// truncated scan.
	ErrScanLimit = errors.New("index scan exceeded page limit")
)
