// Package display renders catalog data for the terminal.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/starford/albumdex/internal/models"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Printer writes human or JSON output.
type Printer struct {
	w     io.Writer
	color bool
	json  bool

	title lipgloss.Style
	label lipgloss.Style
	dim   lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	body  lipgloss.Style
}

// NewPrinter creates a printer for w. Color is used only on terminals.
func NewPrinter(w io.Writer, asJSON bool) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:     w,
		color: IsTerminal(w),
		json:  asJSON,
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F8B500")),
		label: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4")),
		dim:   r.NewStyle().Foreground(lipgloss.Color("#6C757D")),
		ok:    r.NewStyle().Foreground(lipgloss.Color("#95E1A3")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("#FFE66D")),
		body:  r.NewStyle().Width(78).PaddingLeft(2),
	}
}

// JSON reports whether the printer emits JSON.
func (p *Printer) JSON() bool { return p.json }

// Value writes v as indented JSON.
func (p *Printer) Value(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Albums prints a table of albums.
func (p *Printer) Albums(albums []models.Album) error {
	if p.json {
		if albums == nil {
			albums = []models.Album{}
		}
		return p.Value(albums)
	}
	if len(albums) == 0 {
		_, err := fmt.Fprintln(p.w, p.dim.Render("No albums found."))
		return err
	}
	rows := make([][]string, len(albums))
	for i, a := range albums {
		rows[i] = []string{
			strconv.FormatInt(a.ID, 10),
			a.Name,
			a.ArtistLine(),
			a.Genre,
			ratingCell(a.Rating),
			a.DateAdded.Local().Format("2006-01-02"),
		}
	}
	_, err := fmt.Fprintln(p.w, p.table(
		[]string{"ID", "Album", "Artists", "Genre", "Rating", "Added"},
		rows, map[int]bool{0: true, 4: true}))
	if err == nil {
		_, err = fmt.Fprintln(p.w, p.dim.Render(fmt.Sprintf("%d album(s)", len(albums))))
	}
	return err
}

// Album prints every present field of a.
func (p *Printer) Album(a *models.Album) error {
	if p.json {
		return p.Value(a)
	}
	var b strings.Builder
	b.WriteString(p.title.Render(a.Name))
	b.WriteString("\n")
	line := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(&b, "  %s %s\n", p.label.Render(fmt.Sprintf("%-16s", label+":")), value)
	}
	list := func(label string, items []string) { line(label, strings.Join(items, ", ")) }

	line("ID", strconv.FormatInt(a.ID, 10))
	list("Artists", a.Artists)
	line("Genre", a.Genre)
	line("Rating", ratingCell(a.Rating))
	line("Release date", a.ReleaseDate)
	line("Label", a.Label)
	line("Producer", a.Producer)
	line("Duration", a.TotalDuration)
	if a.TrackCount > 0 {
		line("Tracks", strconv.Itoa(a.TrackCount))
	}
	line("Style", a.MusicalStyle)
	list("Similar artists", a.SimilarArtists)
	list("Awards", a.Awards)
	list("Categories", a.LLMCategories)
	list("My categories", a.UserCategories)
	line("Notes", a.PersonalNotes)
	line("Source image", a.SourceImagePath)
	line("Added", a.DateAdded.Local().Format("2006-01-02 15:04"))
	line("Updated", a.LastUpdated.Local().Format("2006-01-02 15:04"))
	if a.AlbumReview != "" {
		b.WriteString("\n")
		b.WriteString(p.label.Render("Review"))
		b.WriteString("\n")
		b.WriteString(p.body.Render(a.AlbumReview))
		b.WriteString("\n")
	}
	if len(a.TrackListing) > 0 {
		b.WriteString("\n")
		b.WriteString(p.label.Render("Track listing"))
		b.WriteString("\n")
		for i, t := range a.TrackListing {
			fmt.Fprintf(&b, "  %2d. %s\n", i+1, t)
		}
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

// Fields prints a titled list of field names, or that none are missing.
func (p *Printer) Fields(a *models.Album, fields []string) error {
	if p.json {
		if fields == nil {
			fields = []string{}
		}
		return p.Value(map[string]any{"id": a.ID, "album_name": a.Name, "missing": fields})
	}
	if len(fields) == 0 {
		_, err := fmt.Fprintln(p.w, p.ok.Render(fmt.Sprintf("%s has every enrichable field.", a.Name)))
		return err
	}
	fmt.Fprintf(p.w, "%s is missing %d field(s):\n", p.title.Render(a.Name), len(fields))
	for _, f := range fields {
		if _, err := fmt.Fprintf(p.w, "  - %s\n", f); err != nil {
			return err
		}
	}
	return nil
}

// List prints plain items, one per line.
func (p *Printer) List(empty string, items []string) error {
	if p.json {
		if items == nil {
			items = []string{}
		}
		return p.Value(items)
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(p.w, p.dim.Render(empty))
		return err
	}
	for _, it := range items {
		if _, err := fmt.Fprintf(p.w, "  - %s\n", it); err != nil {
			return err
		}
	}
	return nil
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...any) {
	if p.json {
		return
	}
	fmt.Fprintln(p.w, p.ok.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Warn prints a highlighted notice.
func (p *Printer) Warn(format string, args ...any) {
	if p.json {
		return
	}
	fmt.Fprintln(p.w, p.warn.Render(fmt.Sprintf(format, args...)))
}

// Table renders a key/value summary.
func (p *Printer) Table(headers []string, rows [][]string) error {
	_, err := fmt.Fprintln(p.w, p.table(headers, rows, nil))
	return err
}

func (p *Printer) table(headers []string, rows [][]string, right map[int]bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if p.color {
		tw.Style().Color.Header = text.Colors{text.Bold, text.FgCyan}
	}

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if right[i] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    40,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func ratingCell(r int) string {
	if r == 0 {
		return ""
	}
	return fmt.Sprintf("%d/10", r)
}
