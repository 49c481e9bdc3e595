package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrReleaseNotFound indicates the requested release is not cached
	ErrReleaseNotFound = errors.New("release not found")

	// ErrMalformedPayload indicates a JSON document could not be parsed
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrSyncInProgress indicates a merge is already running
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrServerOffline indicates the catalog API is unreachable
	ErrServerOffline = errors.New("catalog api is unreachable")

	// ErrStorageUnavailable indicates the document storage could not be opened
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// PayloadError reports a parse failure for a named payload.
type PayloadError struct {
	Source string // "releases payload", "schedule", ...
	Err    error
}

func (e *PayloadError) Error() string {
	return e.Source + ": " + ErrMalformedPayload.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the sentinel and the underlying decode error.
func (e *PayloadError) Unwrap() []error {
	return []error{ErrMalformedPayload, e.Err}
}
