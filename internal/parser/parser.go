// Package parser extracts structured payloads from free-text model output.
//
// Models are asked to answer with bare JSON but routinely wrap it in code
// fences or prose. Every decoder here first tries the content as-is, then
// a sanitized form, and finally validates the result against the album
// field enumeration so unrecognised keys never reach the store.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/albumdex/internal/models"
)

// ErrEmpty is returned for blank model output.
var ErrEmpty = errors.New("parser: empty payload")

// Decode unmarshals JSON from model output into target, tolerating code
// fences and surrounding prose.
func Decode(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ErrEmpty
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitize(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("parser: %w (payload: %s)", directErr, Snippet(trimmed))
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("parser: %w (sanitized payload: %s)", err, Snippet(sanitized))
	}
	return nil
}

// Candidates decodes an extraction answer. Both a bare array and an object
// with an "albums" array are accepted. Entries without a name are dropped.
func Candidates(content string) ([]models.Candidate, error) {
	var raw json.RawMessage
	if err := Decode(content, &raw); err != nil {
		return nil, err
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapped struct {
			Albums []map[string]json.RawMessage `json:"albums"`
		}
		if werr := json.Unmarshal(raw, &wrapped); werr != nil {
			return nil, fmt.Errorf("parser: candidates: %w", err)
		}
		items = wrapped.Albums
	}

	out := make([]models.Candidate, 0, len(items))
	for _, item := range items {
		name := stringValue(item["album_name"])
		if name == "" {
			name = stringValue(item["name"])
		}
		if name == "" {
			continue
		}
		artists := listValue(item["artists"])
		if len(artists) == 0 {
			artists = listValue(item["artist"])
		}
		out = append(out, models.Candidate{Name: name, Artists: artists})
	}
	return out, nil
}

// Metadata decodes an enrichment answer into the known field set. The key
// "categories" is accepted as an alias of llm_categories. Null values and
// empty lists are treated as absent; unknown keys are ignored.
func Metadata(content string) (models.Metadata, error) {
	var m models.Metadata
	var raw map[string]json.RawMessage
	if err := Decode(content, &raw); err != nil {
		return m, err
	}

	m.ReleaseDate = stringValue(raw["release_date"])
	m.Label = stringValue(raw["label"])
	m.Producer = stringValue(raw["producer"])
	m.TotalDuration = stringValue(raw["total_duration"])
	m.TrackCount = intValue(raw["track_count"])
	m.TrackListing = listValue(raw["track_listing"])
	m.AlbumReview = stringValue(raw["album_review"])
	m.MusicalStyle = stringValue(raw["musical_style"])
	m.SimilarArtists = listValue(raw["similar_artists"])
	m.Awards = listValue(raw["awards"])
	m.LLMCategories = listValue(raw["llm_categories"])
	if len(m.LLMCategories) == 0 {
		m.LLMCategories = listValue(raw["categories"])
	}
	return m, nil
}

// Labels decodes a classification answer: a bare array of strings or an
// object with a "categories" array.
func Labels(content string) ([]string, error) {
	var raw json.RawMessage
	if err := Decode(content, &raw); err != nil {
		return nil, err
	}
	if out := listValue(raw); out != nil || isArray(raw) {
		return out, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("parser: labels: %w", err)
	}
	return listValue(wrapped["categories"]), nil
}

// Snippet condenses content to a single short line for log messages.
func Snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}

func sanitize(content string) string {
	trimmed := strings.TrimSpace(stripCodeFence(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	obj := strings.Index(trimmed, "{")
	arr := strings.Index(trimmed, "[")
	// Prefer whichever bracket opens first so an object holding an array
	// is not cut down to the inner array.
	if obj >= 0 && (arr < 0 || obj < arr) {
		if end := strings.LastIndex(trimmed, "}"); end > obj {
			return strings.TrimSpace(trimmed[obj : end+1])
		}
	}
	if arr >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > arr {
			return strings.TrimSpace(trimmed[arr : end+1])
		}
	}
	return trimmed
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "```")
	if start < 0 {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[start+3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.Index(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func isArray(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "[")
}

// stringValue accepts strings and numbers; anything else is absent.
func stringValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// intValue accepts a number or a numeric string.
func intValue(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil && f > 0 {
		return int(f)
	}
	if n, err := strconv.Atoi(stringValue(raw)); err == nil && n > 0 {
		return n
	}
	return 0
}

// listValue accepts an array of strings or a single string. Blank items
// are dropped; an empty result is nil.
func listValue(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if s := stringValue(raw); s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, item := range items {
		if s := stringValue(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
