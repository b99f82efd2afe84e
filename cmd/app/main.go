package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

// version is set at build time.
var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "albumdex",
		Usage:   "Catalog albums from cover photos and enrich them with an LLM",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print machine-readable JSON",
			},
		},
		Commands: []*cli.Command{
			scanCommand(),
			addCommand(),
			searchCommand(),
			listCommand(),
			showCommand(),
			updateCommand(),
			enrichCommand(),
			missingCommand(),
			deleteCommand(),
			exportCommand(),
			siteCommand(),
			categoriesCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
