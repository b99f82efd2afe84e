package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/starford/albumdex/internal"
)

func categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "Manage the user categories albums are classified into",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List user categories",
				Action: withCatalog(func(_ context.Context, _ *cli.Command, e *env, deps *internal.Deps) error {
					return e.out.List("No user categories configured.", deps.Vocabulary.List())
				}),
			},
			{
				Name:      "add",
				Usage:     "Add a user category",
				ArgsUsage: "<label>",
				Action: writing(func(_ context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error {
					label, err := firstArg(cmd, "label")
					if err != nil {
						return err
					}
					added, err := deps.Vocabulary.Add(label)
					if err != nil {
						return err
					}
					if e.out.JSON() {
						return e.out.Value(map[string]any{"label": label, "added": added})
					}
					if added {
						e.out.Success("Added category %q", label)
					} else {
						e.out.Warn("Category %q already exists", label)
					}
					return nil
				}),
			},
			{
				Name:      "remove",
				Usage:     "Remove a user category",
				ArgsUsage: "<label>",
				Action: writing(func(_ context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error {
					label, err := firstArg(cmd, "label")
					if err != nil {
						return err
					}
					removed, err := deps.Vocabulary.Remove(label)
					if err != nil {
						return err
					}
					if e.out.JSON() {
						return e.out.Value(map[string]any{"label": label, "removed": removed})
					}
					if removed {
						e.out.Success("Removed category %q", label)
					} else {
						e.out.Warn("Category %q not found", label)
					}
					return nil
				}),
			},
		},
	}
}
