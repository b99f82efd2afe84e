package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/starford/albumdex/internal"
	"github.com/starford/albumdex/internal/mcpserver"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API, metrics and the generated site",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if err := internal.Run(ctx,
				internal.WithConfig(e.cfg),
				internal.WithConfigPath(e.configPath),
				internal.WithLogger(e.logger),
			); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve catalog tools over MCP on stdin/stdout",
		Action: withCatalog(func(_ context.Context, _ *cli.Command, e *env, deps *internal.Deps) error {
			opts := []mcpserver.Option{mcpserver.WithLockPath(e.cfg.LockPath())}
			if llm, err := deps.Inference(); err == nil {
				opts = append(opts, mcpserver.WithInference(llm))
			} else {
				e.logger.Warn("extract_albums disabled", slog.String("error", err.Error()))
			}
			return mcpserver.New(deps.Service, deps.Vocabulary, version, opts...).ServeStdio()
		}),
	}
}
