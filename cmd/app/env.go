package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/albumdex/internal"
	"github.com/starford/albumdex/internal/display"
	pkgconfig "github.com/starford/albumdex/pkg/config"
)

// env is what every command action receives.
type env struct {
	cfg        *internal.Config
	configPath string
	logger     *slog.Logger
	out        *display.Printer
}

func loadEnv(cmd *cli.Command) (*env, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	logger := internal.NewLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	return &env{
		cfg:        cfg,
		configPath: configPath,
		logger:     logger,
		out:        display.NewPrinter(os.Stdout, cmd.Bool("json")),
	}, nil
}

// open wires the catalog for e's configuration.
func (e *env) open() (*internal.Deps, error) {
	return internal.Open(
		internal.WithConfig(e.cfg),
		internal.WithConfigPath(e.configPath),
		internal.WithLogger(e.logger),
	)
}

type action func(ctx context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error

// withCatalog loads the configuration and opens the catalog around fn.
func withCatalog(fn action) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		deps, err := e.open()
		if err != nil {
			return err
		}
		defer deps.Close()
		return fn(ctx, cmd, e, deps)
	}
}

// writing is withCatalog for commands that change the catalog; they hold
// the single-writer lock for their whole run.
func writing(fn action) cli.ActionFunc {
	return withCatalog(func(ctx context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error {
		l, err := deps.Lock()
		if err != nil {
			return err
		}
		defer l.Release()
		return fn(ctx, cmd, e, deps)
	})
}

// firstArg returns the single positional argument named what.
func firstArg(cmd *cli.Command, what string) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("%s: expected exactly one %s", cmd.Name, what)
	}
	return cmd.Args().First(), nil
}

func ratingFlag(usage string) *cli.IntFlag {
	return &cli.IntFlag{Name: "rating", Aliases: []string{"r"}, Usage: usage}
}
