package seed

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Plan is the generated data for one user.
type Plan struct {
	Name   string
	Scores []int64
}

// Generator produces user plans from a seeded faker, so the same seed
// always yields the same data.
type Generator struct {
	faker *gofakeit.Faker
	seed  uint64
}

// NewGenerator creates a generator; seed 0 picks one from the clock.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{faker: gofakeit.New(seed), seed: seed}
}

// Seed returns the seed in use.
func (g *Generator) Seed() uint64 { return g.seed }

// Plans generates cfg.Users plans. Some users get no scores at all so that
// unranked users are part of every run.
func (g *Generator) Plans(cfg Config) []Plan {
	plans := make([]Plan, cfg.Users)
	for i := range plans {
		n := g.faker.Number(0, cfg.ScoresPerUser)
		scores := make([]int64, n)
		for j := range scores {
			scores[j] = int64(g.faker.Number(cfg.MinScore, cfg.MaxScore))
		}
		plans[i] = Plan{Name: g.faker.Name(), Scores: scores}
	}
	return plans
}
