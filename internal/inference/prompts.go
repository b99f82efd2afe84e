package inference

import (
	"fmt"
	"strings"

	"github.com/starford/albumdex/internal/models"
)

const extractPrompt = `Analyze this image of album covers. Extract the album name and artist(s) for each album visible.
Return ONLY a JSON array in this exact format, with no additional text:
[{"album_name": "Album Name", "artists": ["Artist Name"]}]

If you cannot clearly read an album's information, skip it. If no album is readable, return [].`

var fieldDescriptions = map[models.Field]string{
	models.FieldReleaseDate:    `"release_date": "YYYY or YYYY-MM-DD"`,
	models.FieldLabel:          `"label": "record label"`,
	models.FieldProducer:       `"producer": "producer name(s)"`,
	models.FieldTotalDuration:  `"total_duration": "MM:SS"`,
	models.FieldTrackCount:     `"track_count": 12`,
	models.FieldTrackListing:   `"track_listing": ["track1", "track2"]`,
	models.FieldAlbumReview:    `"album_review": "2-3 sentence critical reception summary"`,
	models.FieldMusicalStyle:   `"musical_style": "detailed style description with influences"`,
	models.FieldSimilarArtists: `"similar_artists": ["artist1", "artist2"]`,
	models.FieldAwards:         `"awards": ["award1", "award2"]`,
	models.FieldLLMCategories:  `"llm_categories": ["concept album", "live recording", "debut album"]`,
}

func metadataPrompt(name string, artists []string, fields []models.Field) string {
	if len(fields) == 0 {
		fields = models.EnrichableFields
	}
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, "    "+fieldDescriptions[f])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Provide detailed information about the album %q by %s.\n\n", name, artistLine(artists))
	if len(fields) < len(models.EnrichableFields) {
		fmt.Fprintf(&b, "Provide ONLY the following information: %s\n\n", joinFields(fields))
	}
	b.WriteString("Return ONLY a JSON object in this exact format, with no additional text:\n{\n")
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n}\n\nUse null for unavailable single values or [] for unavailable lists.")
	return b.String()
}

func classifyPrompt(req ClassifyRequest) string {
	quoted := make([]string, len(req.Vocabulary))
	for i, c := range req.Vocabulary {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return fmt.Sprintf(`Given this album:
Album: %s
Artists: %s
Review: %s
Genre: %s
Style: %s

Which of these predefined categories does it fit into? %s

Return ONLY a JSON array of matching category names, with no additional text:
["category1", "category2"]

Only include categories that clearly match. If no categories match, return an empty array [].`,
		req.Name, artistLine(req.Artists), req.Review, req.Genre, req.Style, strings.Join(quoted, ", "))
}

func artistLine(artists []string) string {
	if len(artists) == 0 {
		return "an unknown artist"
	}
	return strings.Join(artists, ", ")
}

func joinFields(fields []models.Field) string {
	s := make([]string, len(fields))
	for i, f := range fields {
		s[i] = string(f)
	}
	return strings.Join(s, ", ")
}
