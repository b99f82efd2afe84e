// Package export writes the catalog as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/starford/albumdex/internal/apperr"
	"github.com/starford/albumdex/internal/models"
)

// Format selects the output encoding.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// ParseFormat validates s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, JSON:
		return f, nil
	}
	return "", fmt.Errorf("export: unknown format %q: %w", s, apperr.ErrInvalidInput)
}

// Columns is the CSV header in output order.
var Columns = []string{
	"id", "album_name", "artists", "genre", "rating", "date_added",
	"personal_notes", "release_date", "label", "producer", "total_duration",
	"track_count", "track_listing", "album_review", "musical_style",
	"similar_artists", "awards", "llm_categories", "user_categories",
	"source_image_path", "last_updated",
}

// ListSeparator joins multi-valued fields in flat output.
const ListSeparator = ", "

// Write encodes albums to w.
func Write(w io.Writer, f Format, albums []models.Album) error {
	switch f {
	case CSV:
		return WriteCSV(w, albums)
	case JSON:
		return WriteJSON(w, albums)
	}
	return fmt.Errorf("export: unknown format %q: %w", f, apperr.ErrInvalidInput)
}

// WriteJSON writes albums as an indented JSON array.
func WriteJSON(w io.Writer, albums []models.Album) error {
	if albums == nil {
		albums = []models.Album{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(albums); err != nil {
		return fmt.Errorf("export: json: %w", err)
	}
	return nil
}

// WriteCSV writes one row per album. Absent values are empty cells.
func WriteCSV(w io.Writer, albums []models.Album) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("export: csv header: %w", err)
	}
	for i := range albums {
		if err := cw.Write(Row(&albums[i])); err != nil {
			return fmt.Errorf("export: csv row %d: %w", albums[i].ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: csv: %w", err)
	}
	return nil
}

// Row flattens a into Columns order.
func Row(a *models.Album) []string {
	return []string{
		strconv.FormatInt(a.ID, 10),
		a.Name,
		strings.Join(a.Artists, ListSeparator),
		a.Genre,
		intCell(a.Rating),
		timeCell(a.DateAdded),
		a.PersonalNotes,
		a.ReleaseDate,
		a.Label,
		a.Producer,
		a.TotalDuration,
		intCell(a.TrackCount),
		strings.Join(a.TrackListing, ListSeparator),
		a.AlbumReview,
		a.MusicalStyle,
		strings.Join(a.SimilarArtists, ListSeparator),
		strings.Join(a.Awards, ListSeparator),
		strings.Join(a.LLMCategories, ListSeparator),
		strings.Join(a.UserCategories, ListSeparator),
		a.SourceImagePath,
		timeCell(a.LastUpdated),
	}
}

func intCell(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func timeCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
