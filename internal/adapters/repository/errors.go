package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownUser indicates a score was recorded for a missing user.
	ErrUnknownUser = errors.New("unknown user")
	// ErrPersistence wraps every failure of the underlying storage.
	ErrPersistence = errors.New("persistence failure")
	// ErrDuplicateRank indicates a second rank row for the same user.
	ErrDuplicateRank = errors.New("duplicate rank row")
	// ErrClosed indicates the store was used after Close.
	ErrClosed = errors.New("store closed")
)

// Persistence tags err with ErrPersistence and the failing operation so
// callers can match either with errors.Is. Returns nil for a nil err.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

type opError struct {
	op  string
	err error
}

func (e *opError) Error() string {
	return ErrPersistence.Error() + ": " + e.op + ": " + e.err.Error()
}

func (e *opError) Unwrap() []error { return []error{ErrPersistence, e.err} }
