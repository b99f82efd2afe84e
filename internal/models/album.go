// Package models defines the domain types for the album catalog.
package models

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Rating bounds. Zero means the album is unrated.
const (
	MinRating = 1
	MaxRating = 10
)

// AddStatus reports the outcome of adding an album.
type AddStatus string

const (
	StatusAdded     AddStatus = "added"
	StatusDuplicate AddStatus = "duplicate"
)

// Album is a single catalogued album record.
type Album struct {
	ID      int64    `json:"id"`
	Name    string   `json:"album_name"`
	Artists []string `json:"artists"`
	Genre   string   `json:"genre"`
	Rating  int      `json:"rating,omitempty"`

	ReleaseDate    string   `json:"release_date,omitempty"`
	Label          string   `json:"label,omitempty"`
	Producer       string   `json:"producer,omitempty"`
	TotalDuration  string   `json:"total_duration,omitempty"`
	TrackCount     int      `json:"track_count,omitempty"`
	TrackListing   []string `json:"track_listing,omitempty"`
	AlbumReview    string   `json:"album_review,omitempty"`
	MusicalStyle   string   `json:"musical_style,omitempty"`
	SimilarArtists []string `json:"similar_artists,omitempty"`
	Awards         []string `json:"awards,omitempty"`
	LLMCategories  []string `json:"llm_categories,omitempty"`
	UserCategories []string `json:"user_categories,omitempty"`

	SourceImagePath string `json:"source_image_path,omitempty"`
	PersonalNotes   string `json:"personal_notes,omitempty"`

	DateAdded   time.Time `json:"date_added"`
	LastUpdated time.Time `json:"last_updated"`
}

// Validate checks the fields required to create a record.
func (a *Album) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Name, validation.Required.Error("album name is required")),
		validation.Field(&a.Genre, validation.Required.Error("genre is required")),
		validation.Field(&a.Rating, validation.When(a.Rating != 0,
			validation.Min(MinRating), validation.Max(MaxRating))),
		validation.Field(&a.Artists, validation.Each(validation.By(nonBlank))),
	)
}

func nonBlank(v any) error {
	s, _ := v.(string)
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("artist name cannot be blank")
	}
	return nil
}

// Metadata projects the enrichable fields of the record.
func (a *Album) Metadata() Metadata {
	return Metadata{
		ReleaseDate:    a.ReleaseDate,
		Label:          a.Label,
		Producer:       a.Producer,
		TotalDuration:  a.TotalDuration,
		TrackCount:     a.TrackCount,
		TrackListing:   a.TrackListing,
		AlbumReview:    a.AlbumReview,
		MusicalStyle:   a.MusicalStyle,
		SimilarArtists: a.SimilarArtists,
		Awards:         a.Awards,
		LLMCategories:  a.LLMCategories,
	}
}

// ArtistLine joins the artists for display.
func (a *Album) ArtistLine() string {
	return strings.Join(a.Artists, ", ")
}

// Candidate is an album identity proposed by image extraction.
type Candidate struct {
	Name    string   `json:"album_name"`
	Artists []string `json:"artists"`
}

func (c Candidate) String() string {
	if len(c.Artists) == 0 {
		return fmt.Sprintf("%q", c.Name)
	}
	return fmt.Sprintf("%q by %s", c.Name, strings.Join(c.Artists, ", "))
}

// ProcessedSource marks an image as scanned.
type ProcessedSource struct {
	Path            string    `json:"image_path"`
	Checksum        string    `json:"checksum"`
	AlbumsExtracted int       `json:"albums_extracted"`
	ProcessedAt     time.Time `json:"processed_date"`
}

// Patch is a partial update to a stored record. Nil pointers and
// unlisted metadata fields are left untouched.
type Patch struct {
	Genre         *string
	Rating        *int
	PersonalNotes *string

	Metadata       Metadata
	MetadataFields []Field

	UserCategories    []string
	SetUserCategories bool
}

// Empty reports whether the patch carries no column updates.
func (p *Patch) Empty() bool {
	return p.Genre == nil && p.Rating == nil && p.PersonalNotes == nil &&
		len(p.MetadataFields) == 0 && !p.SetUserCategories
}

// ImageFile is a cover image found in a scanned directory.
type ImageFile struct {
	Path     string    `json:"path"`
	AbsPath  string    `json:"abs_path"`
	Checksum string    `json:"checksum"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
}
