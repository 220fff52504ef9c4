package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	// ErrUpdateFailed is attached to every error returned by UpdateAll.
	ErrUpdateFailed = errors.New("rank update failed")
	// ErrInvalidMode indicates an unknown ranking mode name.
	ErrInvalidMode = errors.New("invalid ranking mode")
)
