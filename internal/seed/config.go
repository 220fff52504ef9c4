// Package seed fills a ranking service with generated users and scores and
// checks that the resulting standings agree with the live score totals.
package seed

import (
	"runtime"
	"time"

	"github.com/okian/ranker/internal/domain/ranking"
)

// Default seeding parameters.
const (
	DefaultUsers         = 100
	DefaultScoresPerUser = 5
	DefaultMinScore      = 0
	DefaultMaxScore      = 100
	defaultWorkerFactor  = 2 // multiplier for runtime.NumCPU()
	progressInterval     = time.Second
)

// Config controls how much data is generated and how it is submitted.
type Config struct {
	Users         int          // number of users to create
	ScoresPerUser int          // upper bound of scores per user; each user gets 0..ScoresPerUser
	MinScore      int          // smallest score value
	MaxScore      int          // largest score value
	Workers       int          // concurrent submitters
	Seed          uint64       // generator seed; 0 picks one from the clock
	Mode          ranking.Mode // ranking mode the standings are checked against
}

// DefaultConfig returns the defaults used by the seed command.
func DefaultConfig() Config {
	return Config{
		Users:         DefaultUsers,
		ScoresPerUser: DefaultScoresPerUser,
		MinScore:      DefaultMinScore,
		MaxScore:      DefaultMaxScore,
		Workers:       runtime.NumCPU() * defaultWorkerFactor,
		Mode:          ranking.Competition,
	}
}

func (c Config) validate() error {
	switch {
	case c.Users < 0:
		return ErrInvalidConfig
	case c.ScoresPerUser < 0:
		return ErrInvalidConfig
	case c.MinScore > c.MaxScore:
		return ErrInvalidConfig
	case c.Workers <= 0:
		return ErrInvalidConfig
	}
	return nil
}

// Stats summarizes a seeding run.
type Stats struct {
	UsersCreated     int
	ScoresGenerated  int
	ScoresSubmitted  int
	ScoresFailed     int
	StandingsChecked int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
