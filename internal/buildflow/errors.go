package buildflow

import "errors"

// Sentinel errors for the failure conditions callers are expected to branch
// on. They are always wrapped with context via fmt.Errorf and %w, so use
// errors.Is for checks.
var (
	// ErrStoreUnavailable means the persistence layer could not open or write.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidSnapshot means a backup document is malformed or missing
	// required fields. Import validation fails with this before any write.
	ErrInvalidSnapshot = errors.New("invalid backup snapshot")

	// ErrTransportFailure means a network or storage-provider error occurred
	// during upload or download.
	ErrTransportFailure = errors.New("transport failure")

	// ErrNotFound means a lookup by id or date yielded nothing. Repositories
	// return (nil, nil) for absent records; this sentinel is for callers that
	// need an explicit failure (e.g. the CLI showing a specific date).
	ErrNotFound = errors.New("not found")
)
