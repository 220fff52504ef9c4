package postgres

import "time"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithClock overrides the time source used for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLockKey sets the advisory lock key taken by RunInTx.
func WithLockKey(key int64) Option {
	return func(s *Store) { s.lockKey = key }
}
