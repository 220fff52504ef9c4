package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/okian/ranker/internal/domain/model"
	"github.com/okian/ranker/internal/domain/ranking"
	"github.com/okian/ranker/internal/seed"
	"github.com/okian/ranker/pkg/logger"
)

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "recompute every rank once and exit",
		Action: func(c *cli.Context) error {
			svc, err := newService(c.Context, configFrom(c))
			if err != nil {
				return err
			}
			defer svc.Stop()

			sum, err := svc.UpdateNow(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "run %s: ranked=%d created=%d updated=%d unchanged=%d deleted=%d (%s)\n",
				sum.RunID, sum.Ranked, sum.Created, sum.Updated, sum.Unchanged, sum.Deleted, sum.Duration)
			return nil
		},
	}
}

func standingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "standings",
		Usage: "print the persisted ranking",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"},
		},
		Action: func(c *cli.Context) error {
			svc, err := newService(c.Context, configFrom(c))
			if err != nil {
				return err
			}
			defer svc.Stop()

			standings, err := svc.Standings(c.Context)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(standings)
			}

			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tUSER\tSCORE")
			for _, st := range standings {
				fmt.Fprintf(tw, "%d\t%d\t%d\n", st.Rank, st.UserID, st.Score)
			}
			return tw.Flush()
		},
	}
}

func userCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "manage users",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "register a user",
				ArgsUsage: "NAME",
				Action: func(c *cli.Context) error {
					name := strings.Join(c.Args().Slice(), " ")
					if name == "" {
						return fmt.Errorf("user add: NAME is required")
					}
					svc, err := newService(c.Context, configFrom(c))
					if err != nil {
						return err
					}
					defer svc.Stop()

					u, err := svc.CreateUser(c.Context, name)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "user %d: %s\n", u.ID, u.Name)
					return nil
				},
			},
		},
	}
}

func userFlag() cli.Flag {
	return &cli.Int64Flag{Name: "user", Usage: "user id", Required: true}
}

func updateFlag() cli.Flag {
	return &cli.BoolFlag{Name: "update", Usage: "recompute ranks afterwards"}
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "manage score records",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "record a score for a user",
				Flags: []cli.Flag{
					userFlag(),
					&cli.Int64Flag{Name: "value", Usage: "score value", Required: true},
					updateFlag(),
				},
				Action: func(c *cli.Context) error {
					svc, err := newService(c.Context, configFrom(c))
					if err != nil {
						return err
					}
					defer svc.Stop()

					userID := model.UserID(c.Int64("user"))
					if _, err := svc.RecordScore(c.Context, userID, c.Int64("value")); err != nil {
						return err
					}
					total, err := svc.TotalScore(c.Context, userID)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "user %d: total %d\n", userID, total)
					if c.Bool("update") {
						_, err = svc.UpdateNow(c.Context)
					}
					return err
				},
			},
			{
				Name:  "clear",
				Usage: "remove every score of a user",
				Flags: []cli.Flag{userFlag(), updateFlag()},
				Action: func(c *cli.Context) error {
					svc, err := newService(c.Context, configFrom(c))
					if err != nil {
						return err
					}
					defer svc.Stop()

					userID := model.UserID(c.Int64("user"))
					n, err := svc.ClearScores(c.Context, userID)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "user %d: removed %d scores\n", userID, n)
					if c.Bool("update") {
						_, err = svc.UpdateNow(c.Context)
					}
					return err
				},
			},
		},
	}
}

func seedCommand() *cli.Command {
	def := seed.DefaultConfig()
	return &cli.Command{
		Name:  "seed",
		Usage: "fill the store with generated users and scores, then verify the ranking",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "users", Value: def.Users, Usage: "users to create"},
			&cli.IntFlag{Name: "scores", Value: def.ScoresPerUser, Usage: "maximum scores per user"},
			&cli.IntFlag{Name: "min", Value: def.MinScore, Usage: "smallest score value"},
			&cli.IntFlag{Name: "max", Value: def.MaxScore, Usage: "largest score value"},
			&cli.IntFlag{Name: "workers", Value: def.Workers, Usage: "concurrent submitters"},
			&cli.Uint64Flag{Name: "seed", Usage: "generator seed (0 picks one)"},
		},
		Action: func(c *cli.Context) error {
			cfg := configFrom(c)
			mode, err := ranking.ParseMode(cfg.RankingMode)
			if err != nil {
				return err
			}
			svc, err := newService(c.Context, cfg)
			if err != nil {
				return err
			}
			defer svc.Stop()

			stats, err := seed.Run(c.Context, svc, seed.Config{
				Users:         c.Int("users"),
				ScoresPerUser: c.Int("scores"),
				MinScore:      c.Int("min"),
				MaxScore:      c.Int("max"),
				Workers:       c.Int("workers"),
				Seed:          c.Uint64("seed"),
				Mode:          mode,
			}, logger.Named("seed"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "seeded %d users, %d scores (%d failed), %d standings verified in %s\n",
				stats.UsersCreated, stats.ScoresSubmitted, stats.ScoresFailed, stats.StandingsChecked, stats.Duration)
			return nil
		},
	}
}
