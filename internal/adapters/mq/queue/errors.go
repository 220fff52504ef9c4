package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	// ErrClosed is returned by Enqueue after Close.
	ErrClosed = errors.New("queue closed")
	// ErrCoalesced reports that the trigger was absorbed by a pending one.
	ErrCoalesced = errors.New("trigger coalesced")
)
