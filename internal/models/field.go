package models

import (
	"fmt"
	"strings"
)

// Field names an enrichable attribute of an album.
type Field string

const (
	FieldReleaseDate    Field = "release_date"
	FieldLabel          Field = "label"
	FieldProducer       Field = "producer"
	FieldTotalDuration  Field = "total_duration"
	FieldTrackCount     Field = "track_count"
	FieldTrackListing   Field = "track_listing"
	FieldAlbumReview    Field = "album_review"
	FieldMusicalStyle   Field = "musical_style"
	FieldSimilarArtists Field = "similar_artists"
	FieldAwards         Field = "awards"
	FieldLLMCategories  Field = "llm_categories"
)

// EnrichableFields is the fixed enumeration in canonical order.
// user_categories is derived by classification and is not part of it.
var EnrichableFields = []Field{
	FieldReleaseDate,
	FieldLabel,
	FieldProducer,
	FieldTotalDuration,
	FieldTrackCount,
	FieldTrackListing,
	FieldAlbumReview,
	FieldMusicalStyle,
	FieldSimilarArtists,
	FieldAwards,
	FieldLLMCategories,
}

// ParseField validates a field name against the enumeration.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range EnrichableFields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// FieldSet is an unordered set of fields.
type FieldSet map[Field]struct{}

// NewFieldSet builds a set from fields.
func NewFieldSet(fields ...Field) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// Sorted returns the members in canonical enumeration order.
func (s FieldSet) Sorted() []Field {
	out := make([]Field, 0, len(s))
	for _, f := range EnrichableFields {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Strings returns the sorted members as plain strings.
func (s FieldSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, f := range sorted {
		out[i] = string(f)
	}
	return out
}

// Metadata is a partial set of enrichable values. A zero value, an empty
// string or an empty slice means the field is absent.
type Metadata struct {
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
}

// Has reports whether f carries a non-empty value.
func (m *Metadata) Has(f Field) bool {
	switch f {
	case FieldReleaseDate:
		return strings.TrimSpace(m.ReleaseDate) != ""
	case FieldLabel:
		return strings.TrimSpace(m.Label) != ""
	case FieldProducer:
		return strings.TrimSpace(m.Producer) != ""
	case FieldTotalDuration:
		return strings.TrimSpace(m.TotalDuration) != ""
	case FieldTrackCount:
		return m.TrackCount > 0
	case FieldTrackListing:
		return len(m.TrackListing) > 0
	case FieldAlbumReview:
		return strings.TrimSpace(m.AlbumReview) != ""
	case FieldMusicalStyle:
		return strings.TrimSpace(m.MusicalStyle) != ""
	case FieldSimilarArtists:
		return len(m.SimilarArtists) > 0
	case FieldAwards:
		return len(m.Awards) > 0
	case FieldLLMCategories:
		return len(m.LLMCategories) > 0
	}
	return false
}

// Present returns the populated fields in canonical order.
func (m *Metadata) Present() []Field {
	var out []Field
	for _, f := range EnrichableFields {
		if m.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Merge copies the listed fields of src into the album, overwriting
// whatever is stored. Fields absent in src are skipped.
func (a *Album) Merge(src Metadata, fields []Field) {
	for _, f := range fields {
		if !src.Has(f) {
			continue
		}
		switch f {
		case FieldReleaseDate:
			a.ReleaseDate = src.ReleaseDate
		case FieldLabel:
			a.Label = src.Label
		case FieldProducer:
			a.Producer = src.Producer
		case FieldTotalDuration:
			a.TotalDuration = src.TotalDuration
		case FieldTrackCount:
			a.TrackCount = src.TrackCount
		case FieldTrackListing:
			a.TrackListing = src.TrackListing
		case FieldAlbumReview:
			a.AlbumReview = src.AlbumReview
		case FieldMusicalStyle:
			a.MusicalStyle = src.MusicalStyle
		case FieldSimilarArtists:
			a.SimilarArtists = src.SimilarArtists
		case FieldAwards:
			a.Awards = src.Awards
		case FieldLLMCategories:
			a.LLMCategories = src.LLMCategories
		}
	}
}
