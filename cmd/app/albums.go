package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/starford/albumdex/internal"
	"github.com/starford/albumdex/internal/albumservice"
	"github.com/starford/albumdex/internal/models"
)

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add an album by hand",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Album name", Required: true},
			&cli.StringSliceFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Artist (repeatable)"},
			&cli.StringFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Genre", Required: true},
			ratingFlag("Rating 1-10"),
			&cli.StringFlag{Name: "notes", Usage: "Personal notes"},
			&cli.BoolFlag{Name: "update", Usage: "Apply rating and notes to the existing album on a duplicate"},
		},
		Action: writing(func(ctx context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error {
			a := models.Album{
				Name:          cmd.String("name"),
				Artists:       cmd.StringSlice("artist"),
				Genre:         cmd.String("genre"),
				Rating:        int(cmd.Int("rating")),
				PersonalNotes: cmd.String("notes"),
			}
			id, status, err := deps.Service.AddAlbum(ctx, a)
			if err != nil {
				return err
			}

			if status == models.StatusDuplicate && cmd.Bool("update") {
				var p models.Patch
				if cmd.IsSet("rating") {
					r := a.Rating
					p.Rating = &r
				}
				if cmd.IsSet("notes") {
					n := a.PersonalNotes
					p.PersonalNotes = &n
				}
				if !p.Empty() {
					if _, err := deps.Service.Update(ctx, id, p); err != nil {
						return err
					}
					status = "updated"
				}
			}

			if e.out.JSON() {
				return e.out.Value(map[string]any{"id": id, "status": status})
			}
			switch status {
			case models.StatusAdded:
				e.out.Success("Added %q (id %d)", a.Name, id)
			case models.StatusDuplicate:
				e.out.Warn("%q is already cataloged as id %d", a.Name, id)
			default:
				e.out.Success("Updated existing album %d", id)
			}
			return nil
		}),
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search albums; every criterion is optional",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Album name substring"},
			&cli.StringFlag{Name: "artist", Usage: "Artist substring"},
			&cli.StringFlag{Name: "genre", Usage: "Genre substring"},
			&cli.StringFlag{Name: "category", Usage: "LLM or user category substring"},
			&cli.IntFlag{Name: "rating-min", Usage: "Minimum rating"},
			&cli.IntFlag{Name: "rating-max", Usage: "Maximum rating"},
			&cli.StringFlag{Name: "sort", Usage: "Sort by name, artist, rating or date_added"},
		},
		Action: withCatalog(func(ctx context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error {
			sort, err := models.ParseSortKey(cmd.String("sort"))
			if err != nil {
				return err
			}
			albums, err := deps.Service.Search(ctx, models.Filter{
				Name:      cmd.String("name"),
				Artist:    cmd.String("artist"),
				Genre:     cmd.String("genre"),
				Category:  cmd.String("category"),
				RatingMin: int(cmd.Int("rating-min")),
				RatingMax: int(cmd.Int("rating-max")),
				Sort:      sort,
			})
			if err != nil {
				return err
			}
			return e.out.Albums(albums)
		}),
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List albums",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "genre", Usage: "Only this genre"},
			&cli.StringFlag{Name: "sort-by", Value: string(models.SortByDateAdded), Usage: "name, artist, rating or date_added"},
		},
		Action: withCatalog(func(ctx context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error {
			sort, err := models.ParseSortKey(cmd.String("sort-by"))
			if err != nil {
				return err
			}
			albums, err := deps.Service.Search(ctx, models.Filter{Genre: cmd.String("genre"), Sort: sort})
			if err != nil {
				return err
			}
			return e.out.Albums(albums)
		}),
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show every field of one album",
		ArgsUsage: "<id|name>",
		Action: withCatalog(func(ctx context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error {
			ref, err := firstArg(cmd, "album id or name")
			if err != nil {
				return err
			}
			a, err := deps.Service.Resolve(ctx, ref)
			if err != nil {
				return err
			}
			return e.out.Album(a)
		}),
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Change an album's rating, notes or genre",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			ratingFlag("Rating 1-10, 0 clears it"),
			&cli.StringFlag{Name: "notes", Usage: "Personal notes"},
			&cli.StringFlag{Name: "genre", Usage: "Genre"},
		},
		Action: writing(func(ctx context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error {
			arg, err := firstArg(cmd, "album id")
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("update: invalid album id %q", arg)
			}

			var p models.Patch
			if cmd.IsSet("rating") {
				r := int(cmd.Int("rating"))
				p.Rating = &r
			}
			if cmd.IsSet("notes") {
				n := cmd.String("notes")
				p.PersonalNotes = &n
			}
			if cmd.IsSet("genre") {
				g := cmd.String("genre")
				p.Genre = &g
			}
			a, err := deps.Service.Update(ctx, id, p)
			if err != nil {
				return err
			}
			if e.out.JSON() {
				return e.out.Value(a)
			}
			e.out.Success("Updated %q", a.Name)
			return nil
		}),
	}
}

func enrichCommand() *cli.Command {
	return &cli.Command{
		Name:      "enrich",
		Usage:     "Fill an album's missing fields from the LLM",
		ArgsUsage: "<id|name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Refresh every field, not only missing ones"},
		},
		Action: writing(func(ctx context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error {
			ref, err := firstArg(cmd, "album id or name")
			if err != nil {
				return err
			}
			if _, err := deps.Inference(); err != nil {
				return err
			}
			a, err := deps.Service.Resolve(ctx, ref)
			if err != nil {
				return err
			}
			before := len(albumservice.MissingFields(a))
			a, err = deps.Service.Enrich(ctx, a.ID, cmd.Bool("force"))
			if err != nil {
				return err
			}
			if !e.out.JSON() {
				e.out.Success("Enriched %q: %d field(s) still missing (was %d)", a.Name, len(albumservice.MissingFields(a)), before)
			}
			return e.out.Album(a)
		}),
	}
}

func missingCommand() *cli.Command {
	return &cli.Command{
		Name:      "missing",
		Usage:     "List the enrichable fields an album lacks",
		ArgsUsage: "<id|name>",
		Action: withCatalog(func(ctx context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error {
			ref, err := firstArg(cmd, "album id or name")
			if err != nil {
				return err
			}
			a, err := deps.Service.Resolve(ctx, ref)
			if err != nil {
				return err
			}
			a, gaps, err := deps.Service.Missing(ctx, a.ID)
			if err != nil {
				return err
			}
			return e.out.Fields(a, gaps.Strings())
		}),
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Remove an album",
		ArgsUsage: "<id|name>",
		Action: writing(func(ctx context.Context, cmd *cli.Command, e *env, deps *internal.Deps) error {
			ref, err := firstArg(cmd, "album id or name")
			if err != nil {
				return err
			}
			a, err := deps.Service.Resolve(ctx, ref)
			if err != nil {
				return err
			}
			if err := deps.Service.Delete(ctx, a.ID); err != nil {
				return err
			}
			if e.out.JSON() {
				return e.out.Value(map[string]any{"id": a.ID, "status": "deleted"})
			}
			e.out.Success("Deleted %q (id %d)", a.Name, a.ID)
			return nil
		}),
	}
}
