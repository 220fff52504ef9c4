package seed

import "errors"

var (
	// ErrInvalidConfig is returned when seeding parameters are inconsistent.
	ErrInvalidConfig = errors.New("seed: invalid config")
	// ErrVerification is returned when standings disagree with score totals.
	ErrVerification = errors.New("seed: verification failed")
)
