package protocol

import "errors"

// Error taxonomy translated to HTTP status by httpapi. BadRequest is
// returned for malformed wire data; the original service mapped this case
// to 500, which a cleaner design corrects to 400 (see DESIGN.md).
var (
	ErrBadRequest            = errors.New("protocol: bad request")
	ErrNotFound              = errors.New("protocol: session not found")
	ErrThresholdNotReached   = errors.New("protocol: threshold not reached")
	ErrRandomnessUnavailable = errors.New("protocol: randomness unavailable")
	ErrInternal              = errors.New("protocol: internal error")
)
