package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/starford/albumdex/internal"
	"github.com/starford/albumdex/internal/display"
	"github.com/starford/albumdex/internal/ingest"
	"github.com/starford/albumdex/internal/prompt"
	"github.com/starford/albumdex/internal/storage"
)

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Extract albums from new images in the configured directories",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "directory", Aliases: []string{"d"}, Value: "all", Usage: "Directory name from the config, or all"},
			&cli.BoolFlag{Name: "no-enrich", Usage: "Do not enrich newly added albums"},
			&cli.StringFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Genre for every candidate; disables the interactive form"},
			ratingFlag("Rating for every candidate when --genre is given"),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if cmd.Bool("no-enrich") {
				e.cfg.Settings.AutoEnrich = false
			}
			deps, err := e.open()
			if err != nil {
				return err
			}
			defer deps.Close()

			l, err := deps.Lock()
			if err != nil {
				return err
			}
			defer l.Release()
			return runScan(ctx, cmd, e, deps)
		},
	}
}

func runScan(ctx context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error {
	llm, err := deps.Inference()
	if err != nil {
		return err
	}

	names := []string{cmd.String("directory")}
	if names[0] == "all" {
		names = e.cfg.DirectoryNames()
	}
	if len(names) == 0 {
		return errors.New("scan: no directories configured")
	}

	var prompter ingest.Prompter
	if cmd.String("genre") == "" && display.IsTerminal(os.Stdin) && display.IsTerminal(os.Stderr) {
		prompter = prompt.NewTerminal(e.cfg.Settings.PredefinedGenres)
	} else {
		rating := int(cmd.Int("rating"))
		if rating < 0 || rating > 10 {
			return fmt.Errorf("scan: rating must be between 1 and 10")
		}
		if cmd.String("genre") == "" {
			e.logger.Warn("no terminal and no --genre: candidates will be skipped")
		}
		prompter = prompt.Fixed{Genre: cmd.String("genre"), Rating: rating}
	}

	scanner := ingest.NewScanner(deps.Store, deps.Service, llm, prompter,
		ingest.WithExtensions(e.cfg.Settings.ImageExtensions),
		ingest.WithLogger(e.logger.With(slog.String("component", "ingest"))))

	type result struct {
		Directory string `json:"directory"`
		ingest.Summary
	}
	var results []result
	var scanErr error
	for _, name := range names {
		path, err := e.cfg.Directory(name)
		if err != nil {
			return err
		}
		dir, err := storage.NewFS(path)
		if err != nil {
			e.logger.Warn("skipping directory", slog.String("directory", name), slog.String("error", err.Error()))
			continue
		}
		sum, err := scanner.Scan(ctx, dir)
		results = append(results, result{Directory: name, Summary: sum})
		if err != nil {
			scanErr = err
			break
		}
	}

	if e.out.JSON() {
		if err := e.out.Value(results); err != nil {
			return err
		}
	} else {
		rows := make([][]string, 0, len(results))
		for _, r := range results {
			rows = append(rows, []string{
				r.Directory,
				strconv.Itoa(r.Images),
				strconv.Itoa(r.AlreadyProcessed),
				strconv.Itoa(r.Candidates),
				strconv.Itoa(r.Added),
				strconv.Itoa(r.Duplicates),
				strconv.Itoa(r.Skipped),
				strconv.Itoa(r.Failed),
			})
		}
		if err := e.out.Table([]string{"Directory", "Images", "Seen", "Found", "Added", "Duplicate", "Skipped", "Failed"}, rows); err != nil {
			return err
		}
	}

	if errors.Is(scanErr, ingest.ErrAborted) {
		e.out.Warn("Scan stopped; the current image will be offered again next time.")
		return nil
	}
	return scanErr
}
