package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/okian/ranker/internal/adapters/repository"
	"github.com/okian/ranker/internal/adapters/repository/postgres"
	service "github.com/okian/ranker/internal/app"
	"github.com/okian/ranker/internal/config"
	"github.com/okian/ranker/internal/domain/ranking"
	"github.com/okian/ranker/pkg/logger"
)

const configMetadataKey = "config"

var errNotPostgres = errors.New("command requires store: postgres")

// newApp builds the command tree. Running without a command serves.
func newApp() *cli.App {
	return &cli.App{
		Name:  "ranker",
		Usage: "score aggregation and competition ranking service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
		},
		Before: setup,
		Action: serve,
		Commands: []*cli.Command{
			serveCommand(),
			updateCommand(),
			standingsCommand(),
			userCommand(),
			scoreCommand(),
			seedCommand(),
			migrateCommand(),
		},
	}
}

// setup loads configuration and initializes logging before any command runs.
func setup(c *cli.Context) error {
	if path := c.String("config"); path != "" {
		if err := os.Setenv(config.EnvPrefix+"CONFIG", path); err != nil {
			return err
		}
	}

	cfg, err := config.Load(c.Context)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	opts := []logger.Option{logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)}
	if c.App.ErrWriter != nil {
		opts = append(opts, logger.WithOutput(c.App.ErrWriter))
	}
	if err := logger.Init(opts...); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configMetadataKey] = cfg
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configMetadataKey].(*config.Config); ok {
		return cfg
	}
	return config.New(c.Context)
}

// openStore opens the configured backend. The postgres schema is migrated
// when migrate is set.
func openStore(ctx context.Context, cfg *config.Config, migrate bool) (repository.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		st, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if migrate {
			group, err := st.Migrate(ctx)
			if err != nil {
				_ = st.Close()
				return nil, err
			}
			if !group.IsZero() {
				logger.Get().Info(ctx, "schema migrated", logger.String("group", group.String()))
			}
		}
		return st, nil
	default:
		return repository.NewMemoryStore(), nil
	}
}

// openPostgres opens the postgres store without migrating it.
func openPostgres(ctx context.Context, cfg *config.Config) (*postgres.Store, error) {
	if cfg.Store != config.StorePostgres {
		return nil, errNotPostgres
	}
	return postgres.Open(ctx, cfg.PostgresDSN)
}

// newService builds a service over the configured store. The caller owns
// the returned service and must Stop it.
func newService(ctx context.Context, cfg *config.Config) (*service.Service, error) {
	mode, err := ranking.ParseMode(cfg.RankingMode)
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, cfg, cfg.MigrateOnStart)
	if err != nil {
		return nil, err
	}
	return service.New(
		service.WithLogger(logger.Get()),
		service.WithStore(cfg.Store, st),
		service.WithUpdateInterval(cfg.UpdateInterval()),
		service.WithUpdateTimeout(cfg.UpdateTimeout()),
		service.WithRankingMode(mode),
	), nil
}
