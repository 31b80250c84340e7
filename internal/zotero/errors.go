package zotero

import (
	"errors"
	"fmt"
)

// Common errors returned by the Zotero client.
var (
	// ErrNotFound indicates the item or collection does not exist.
	ErrNotFound = errors.New("not found in Zotero library")

	// ErrAuthError indicates a missing, invalid or under-privileged API key.
	ErrAuthError = errors.New("Zotero authentication error")

	// ErrRateLimited indicates the API asked the client to slow down.
	ErrRateLimited = errors.New("Zotero rate limit exceeded")

	// ErrConflict indicates the library is locked or the write conflicts.
	ErrConflict = errors.New("Zotero write conflict")

	// ErrStaleVersion indicates the item changed since its version was read.
	ErrStaleVersion = errors.New("Zotero item version is stale")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with Zotero")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from Zotero")
)

// CodeDuplicate is the per-item failure code the library uses when an item
// cannot be written because of a precondition, usually a duplicate.
const CodeDuplicate = 412

// APIError represents an unexpected HTTP status from the Zotero API.
type APIError struct {
	StatusCode int
	Message    string
	Key        string // Item or collection key, for context
}

func (e *APIError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("Zotero API error (status %d): %s (key: %s)", e.StatusCode, e.Message, e.Key)
	}
	return fmt.Sprintf("Zotero API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode == 503
	}
	return false
}

// IsConflict returns true if the error indicates a write conflict or a stale
// version.
func IsConflict(err error) bool {
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrStaleVersion) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 409 || apiErr.StatusCode == 412
	}
	return false
}
