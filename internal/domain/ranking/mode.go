package ranking

import (
	"fmt"
	"strings"
)

// Mode controls the rank assigned after a group of tied users.
type Mode int

const (
	// Competition skips ranks after ties: 1, 2, 2, 4.
	Competition Mode = iota
	// Dense does not skip: 1, 2, 2, 3.
	Dense
)

func (m Mode) String() string {
	switch m {
	case Competition:
		return "competition"
	case Dense:
		return "dense"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a configuration value to a Mode. The empty string means
// Competition.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "competition":
		return Competition, nil
	case "dense":
		return Dense, nil
	default:
		return Competition, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}
