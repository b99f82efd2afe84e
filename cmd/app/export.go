package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/albumdex/internal"
	"github.com/starford/albumdex/internal/export"
	"github.com/starford/albumdex/internal/models"
	"github.com/starford/albumdex/internal/site"
	"github.com/starford/albumdex/internal/storage"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export every album to CSV or JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: string(export.CSV), Usage: "csv or json"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "-", Usage: "Output file, - for stdout"},
		},
		Action: withCatalog(func(ctx context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error {
			format, err := export.ParseFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			albums, err := deps.Service.Search(ctx, models.Filter{Sort: models.SortByDateAdded})
			if err != nil {
				return err
			}

			output := cmd.String("output")
			var w io.Writer = os.Stdout
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := export.Write(w, format, albums); err != nil {
				return err
			}
			if output != "-" {
				e.logger.Info("export written",
					slog.String("path", output),
					slog.String("format", string(format)),
					slog.Int("albums", len(albums)))
			}
			return nil
		}),
	}
}

func siteCommand() *cli.Command {
	return &cli.Command{
		Name:  "site",
		Usage: "Generate the static browsable site",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory (default site.output_dir)"},
		},
		Action: withCatalog(func(ctx context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error {
			dir := e.cfg.Site.OutputDir
			if cmd.IsSet("output") {
				dir = cmd.String("output")
			}
			out, err := storage.EnsureFS(dir)
			if err != nil {
				return err
			}
			gen, err := site.New(out,
				site.WithTitle(e.cfg.Site.Title, e.cfg.Site.Subtitle),
				site.WithThumbnailSize(e.cfg.Site.ThumbnailSize),
				site.WithLogger(e.logger.With(slog.String("component", "site"))))
			if err != nil {
				return err
			}
			albums, err := deps.Service.Search(ctx, models.Filter{Sort: models.SortByDateAdded})
			if err != nil {
				return err
			}
			res, err := gen.Generate(ctx, albums)
			if err != nil {
				return err
			}
			if e.out.JSON() {
				return e.out.Value(res)
			}
			e.out.Success("Generated %d page(s) for %d album(s) with %d thumbnail(s) in %s",
				res.Pages, res.Albums, res.Thumbnails, out.Root())
			return nil
		}),
	}
}
