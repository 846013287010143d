package domain

import "errors"

// ErrStorageUnavailable means the store has no live connection. This is a
// startup-ordering bug, not a transient condition; callers must not retry.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrNotConnected means the user has no usable catalog credentials and must
// go through the connect flow (again).
var ErrNotConnected = errors.New("catalog account not connected")

// ErrCatalogUnavailable is a transient external failure (network, rate
// limit, 5xx). Stored credentials are untouched; callers may retry on their
// own schedule.
var ErrCatalogUnavailable = errors.New("catalog temporarily unavailable")
