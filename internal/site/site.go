// Package site renders the catalog as a static, browsable page tree.
package site

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/starford/albumdex/internal/checksum"
	"github.com/starford/albumdex/internal/imaging"
	"github.com/starford/albumdex/internal/models"
	"github.com/starford/albumdex/internal/storage"
)

//go:embed templates/*.html templates/style.css
var templateFS embed.FS

// DefaultThumbnailSize is the longest edge of generated cover thumbnails.
const DefaultThumbnailSize = 320

// Result summarizes a generation run.
type Result struct {
	Albums     int `json:"albums"`
	Pages      int `json:"pages"`
	Thumbnails int `json:"thumbnails"`
	Removed    int `json:"removed"`
}

// Generator writes the site into an output provider.
type Generator struct {
	out       storage.Provider
	title     string
	subtitle  string
	thumbSize int
	readImage func(string) ([]byte, error)
	md        goldmark.Markdown
	tmpl      *template.Template
	logger    *slog.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithTitle sets the site title and subtitle.
func WithTitle(title, subtitle string) Option {
	return func(g *Generator) {
		if title != "" {
			g.title = title
		}
		g.subtitle = subtitle
	}
}

// WithThumbnailSize sets the thumbnail edge length. Zero disables thumbnails.
func WithThumbnailSize(n int) Option {
	return func(g *Generator) { g.thumbSize = n }
}

// WithImageReader overrides how source images are loaded.
func WithImageReader(fn func(string) ([]byte, error)) Option {
	return func(g *Generator) { g.readImage = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New parses the embedded templates and returns a generator.
func New(out storage.Provider, opts ...Option) (*Generator, error) {
	g := &Generator{
		out:       out,
		title:     "Album Collection",
		thumbSize: DefaultThumbnailSize,
		readImage: os.ReadFile,
		md:        goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough)),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	tmpl, err := template.New("site").Funcs(template.FuncMap{
		"join": strings.Join,
		"stars": func(n int) string {
			return strings.Repeat("★", n/2) + strings.Repeat("½", n%2)
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("site: parse templates: %w", err)
	}
	g.tmpl = tmpl
	return g, nil
}

type page struct {
	Root     string
	Title    string
	Site     string
	Subtitle string
	Section  string
	Stats    Stats
	Albums   []*albumView
	Album    *albumView
	Groups   []*Group
	Group    *Group
}

// section describes one grouped directory of the site.
type section struct {
	dir    string
	title  string
	groups []*Group
}

// Generate renders every page for albums. Albums are read-only; fields
// that are absent are left out of the pages.
func (g *Generator) Generate(ctx context.Context, albums []models.Album) (Result, error) {
	views := make([]*albumView, len(albums))
	thumbs := make(map[string]string)
	var res Result
	for i := range albums {
		a := &albums[i]
		v := &albumView{Album: a, Decade: decadeOf(a.ReleaseDate)}
		v.Review = g.markdown(a.AlbumReview)
		v.Notes = g.markdown(a.PersonalNotes)
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if thumb, created := g.thumbnail(a.SourceImagePath, thumbs); thumb != "" {
			v.Thumb = thumb
			if created {
				res.Thumbnails++
			}
		}
		views[i] = v
	}
	c := buildCatalog(views)
	res.Albums = len(views)

	written := make(map[string]bool)
	for _, name := range thumbs {
		if name != "" {
			written[name] = true
		}
	}

	base := page{Site: g.title, Subtitle: g.subtitle, Stats: c.stats}
	write := func(name string, tmpl string, p page) error {
		p.Root = strings.Repeat("../", strings.Count(name, "/"))
		if err := g.render(name, tmpl, p); err != nil {
			return err
		}
		written[name] = true
		res.Pages++
		return nil
	}

	p := base
	p.Title = g.title
	p.Albums = views
	if err := write("index.html", "index.html", p); err != nil {
		return res, err
	}

	for _, v := range views {
		p := base
		p.Title = v.Name
		p.Album = v
		if err := write(albumPath(v.ID), "album.html", p); err != nil {
			return res, err
		}
	}

	sections := []section{
		{"artists", "Artists", c.artists},
		{"genres", "Genres", c.genres},
		{"years", "Decades", c.decades},
		{"categories", "Categories", c.categories},
	}
	for _, s := range sections {
		p := base
		p.Title = s.title
		p.Section = s.dir
		p.Groups = s.groups
		if err := write(s.dir+"/index.html", "groups.html", p); err != nil {
			return res, err
		}
		for _, grp := range s.groups {
			p := base
			p.Title = grp.Title
			p.Section = s.dir
			p.Group = grp
			p.Albums = grp.Albums
			if err := write(s.dir+"/"+grp.Slug+".html", "group.html", p); err != nil {
				return res, err
			}
		}
	}

	css, err := templateFS.ReadFile("templates/style.css")
	if err != nil {
		return res, fmt.Errorf("site: read stylesheet: %w", err)
	}
	if err := g.out.Write("style.css", css); err != nil {
		return res, err
	}
	if err := g.writeData(albums, c); err != nil {
		return res, err
	}

	removed, err := g.prune(written)
	res.Removed = removed
	if err != nil {
		return res, err
	}

	g.logger.Info("site generated",
		slog.String("dir", g.out.Root()),
		slog.Int("albums", res.Albums),
		slog.Int("pages", res.Pages),
		slog.Int("thumbnails", res.Thumbnails),
		slog.Int("removed", res.Removed))
	return res, nil
}

// generatedDirs are the output directories owned by the generator, with
// the file types it writes there.
var generatedDirs = []struct {
	dir string
	ext string
}{
	{"albums", ".html"},
	{"artists", ".html"},
	{"genres", ".html"},
	{"years", ".html"},
	{"categories", ".html"},
	{"thumbs", ".jpg"},
}

// prune deletes pages and thumbnails left over from albums or groups that
// no longer exist. Files outside the generated directories are kept.
func (g *Generator) prune(written map[string]bool) (int, error) {
	removed := 0
	for _, d := range generatedDirs {
		files, err := g.out.List(d.dir, []string{d.ext})
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("site: prune %s: %w", d.dir, err)
		}
		for _, f := range files {
			name := filepath.ToSlash(f.Path)
			if written[name] {
				continue
			}
			if err := g.out.Delete(name); err != nil {
				return removed, fmt.Errorf("site: prune: %w", err)
			}
			g.logger.Debug("removed stale file", slog.String("path", name))
			removed++
		}
	}
	return removed, nil
}

func albumPath(id int64) string {
	return "albums/" + strconv.FormatInt(id, 10) + ".html"
}

func (g *Generator) render(name, tmpl string, p page) error {
	var buf bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&buf, tmpl, p); err != nil {
		return fmt.Errorf("site: render %s: %w", name, err)
	}
	return g.out.Write(name, buf.Bytes())
}

func (g *Generator) markdown(s string) template.HTML {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}

// thumbnail returns the site-relative thumbnail path for a source image,
// creating it on first use. Unreadable images get no thumbnail.
func (g *Generator) thumbnail(src string, cache map[string]string) (string, bool) {
	if g.thumbSize <= 0 || src == "" {
		return "", false
	}
	if p, ok := cache[src]; ok {
		return p, false
	}
	cache[src] = ""

	data, err := g.readImage(src)
	if err != nil {
		g.logger.Warn("cover image unavailable", slog.String("path", src), slog.String("error", err.Error()))
		return "", false
	}
	thumb, err := imaging.Thumbnail(data, g.thumbSize)
	if err != nil {
		g.logger.Warn("thumbnail failed", slog.String("path", src), slog.String("error", err.Error()))
		return "", false
	}
	name := path.Join("thumbs", checksum.Short(data)+".jpg")
	if err := g.out.Write(name, thumb); err != nil {
		g.logger.Warn("thumbnail not written", slog.String("path", name), slog.String("error", err.Error()))
		return "", false
	}
	cache[src] = name
	return name, true
}

type dataFile struct {
	Albums     []models.Album     `json:"albums"`
	Stats      Stats              `json:"stats"`
	Artists    map[string][]int64 `json:"artists"`
	Genres     map[string][]int64 `json:"genres"`
	Decades    map[string][]int64 `json:"decades"`
	Categories map[string][]int64 `json:"categories"`
}

func (g *Generator) writeData(albums []models.Album, c *catalog) error {
	index := func(groups []*Group) map[string][]int64 {
		m := make(map[string][]int64, len(groups))
		for _, grp := range groups {
			m[grp.Name] = grp.ids()
		}
		return m
	}
	if albums == nil {
		albums = []models.Album{}
	}
	data, err := json.Marshal(dataFile{
		Albums:     albums,
		Stats:      c.stats,
		Artists:    index(c.artists),
		Genres:     index(c.genres),
		Decades:    index(c.decades),
		Categories: index(c.categories),
	})
	if err != nil {
		return fmt.Errorf("site: encode data.json: %w", err)
	}
	return g.out.Write("data.json", data)
}
