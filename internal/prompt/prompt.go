// Package prompt asks the user for the genre and rating of each album
// found during a scan, using a small Bubble Tea form.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/albumdex/internal/ingest"
	"github.com/starford/albumdex/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	albumStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))
)

var _ ingest.Prompter = (*Terminal)(nil)

// Terminal prompts interactively on a terminal.
type Terminal struct {
	genres []string
	in     io.Reader
	out    io.Writer
}

// Option customizes a Terminal prompter.
type Option func(*Terminal)

// WithIO overrides the terminal streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(t *Terminal) {
		t.in = in
		t.out = out
	}
}

// NewTerminal creates a prompter that offers genres as completions.
func NewTerminal(genres []string, opts ...Option) *Terminal {
	t := &Terminal{genres: genres, in: os.Stdin, out: os.Stderr}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AlbumDetails runs the form for one candidate.
func (t *Terminal) AlbumDetails(ctx context.Context, img models.ImageFile, c models.Candidate) (ingest.Details, error) {
	p := tea.NewProgram(newForm(img, c, t.genres),
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out))
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ingest.Details{}, ctx.Err()
		}
		return ingest.Details{}, fmt.Errorf("prompt: %w", err)
	}
	f := final.(form)
	if f.aborted {
		return ingest.Details{}, ingest.ErrAborted
	}
	return f.details, nil
}

// Fixed answers every candidate with the same details. It is used when
// no terminal is attached.
type Fixed struct {
	Genre  string
	Rating int
}

// AlbumDetails returns the fixed details, skipping candidates when no
// genre was configured.
func (f Fixed) AlbumDetails(context.Context, models.ImageFile, models.Candidate) (ingest.Details, error) {
	if strings.TrimSpace(f.Genre) == "" {
		return ingest.Details{Skip: true}, nil
	}
	return ingest.Details{Genre: f.Genre, Rating: f.Rating}, nil
}

type step int

const (
	stepGenre step = iota
	stepRating
)

type form struct {
	image     string
	candidate models.Candidate
	genres    []string
	input     textinput.Model
	step      step
	details   ingest.Details
	aborted   bool
	done      bool
	problem   string
}

func newForm(img models.ImageFile, c models.Candidate, genres []string) form {
	ti := textinput.New()
	ti.Placeholder = "genre"
	if len(genres) > 0 {
		ti.Placeholder = strings.Join(genres, ", ")
		ti.ShowSuggestions = true
		ti.SetSuggestions(genres)
	}
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 60

	return form{
		image:     filepath.Base(img.Path),
		candidate: c,
		genres:    genres,
		input:     ti,
	}
}

func (f form) Init() tea.Cmd {
	return textinput.Blink
}

func (f form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			f.aborted = true
			return f, tea.Quit

		case "ctrl+x":
			f.details = ingest.Details{Skip: true}
			f.done = true
			return f, tea.Quit

		case "enter":
			return f.submit()
		}
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

func (f form) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(f.input.Value())
	switch f.step {
	case stepGenre:
		if value == "" {
			f.problem = "genre is required"
			return f, nil
		}
		f.details.Genre = value
		f.step = stepRating
		f.problem = ""
		f.input.SetValue("")
		f.input.ShowSuggestions = false
		f.input.Placeholder = "1-10, blank to skip"
		f.input.CharLimit = 2
		return f, nil

	default:
		rating, err := parseRating(value)
		if err != nil {
			f.problem = err.Error()
			return f, nil
		}
		f.details.Rating = rating
		f.done = true
		return f, tea.Quit
	}
}

func parseRating(s string) (int, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < models.MinRating || n > models.MaxRating {
		return 0, fmt.Errorf("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	return n, nil
}

func (f form) View() string {
	if f.aborted || f.done {
		return ""
	}
	var b strings.Builder

	b.WriteString(titleStyle.Render(f.image))
	b.WriteString("\n")
	b.WriteString(albumStyle.Render("  ♪ " + f.candidate.String()))
	b.WriteString("\n\n")

	label := "Genre:"
	if f.step == stepRating {
		label = "Rating:"
	}
	b.WriteString(labelStyle.Render(label))
	b.WriteString(" ")
	b.WriteString(f.input.View())
	b.WriteString("\n")
	if f.problem != "" {
		b.WriteString(errorStyle.Render(f.problem))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("enter: confirm • tab: complete • ctrl+x: skip album • esc: stop scan"))
	b.WriteString("\n")
	return b.String()
}
