package youtube

import (
	"errors"
	"fmt"
)

// ErrNoItems is returned when the details endpoint knows nothing about an id.
var ErrNoItems = errors.New("youtube: response contained no items")

// APIError describes a failed upstream request. StatusCode is 0 when no
// response was received.
type APIError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("youtube: %s request failed with status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("youtube: %s request failed: %v", e.Endpoint, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// VideoFetchError wraps any failure to turn a video id into a record.
type VideoFetchError struct {
	VideoID string
	Err     error
}

func (e *VideoFetchError) Error() string {
	return fmt.Sprintf("youtube: video %s: %v", e.VideoID, e.Err)
}

func (e *VideoFetchError) Unwrap() error { return e.Err }
