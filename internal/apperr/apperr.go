package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by stores and the chat orchestrator. Handlers map
// these to HTTP status codes with errors.Is; nothing below this package knows
// about HTTP.
var (
	// ErrInvalidInput covers empty or malformed client input. No side effects
	// have occurred when it is returned.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound covers both genuinely missing records and records owned by
	// another user, so cross-tenant probes cannot distinguish the two.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned for operations on records the caller can see
	// but may not modify (e.g. editing an assistant-authored message).
	ErrForbidden = errors.New("forbidden")

	// ErrStorage wraps failures of the durable store. Fatal for the request.
	ErrStorage = errors.New("storage unavailable")

	// ErrUpstreamTimeout is returned when an external API call exceeds its
	// deadline. Never retried.
	ErrUpstreamTimeout = errors.New("upstream timeout")
)

// UpstreamError is a non-2xx or transport-level failure from an external API.
// Status is zero when the request never produced a response.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream request failed: %s", e.Body)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Body)
}
