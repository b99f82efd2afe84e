package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/albumdex/internal/apperr"
	"github.com/starford/albumdex/internal/models"
)

const albumColumns = `id, album_name, artists, genre, rating, personal_notes,
	release_date, label, producer, total_duration, track_count, track_listing,
	album_review, musical_style, similar_artists, awards, llm_categories, user_categories,
	source_image_path, date_added, last_updated`

// likeEscaper makes user text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

var sortColumns = map[models.SortKey]string{
	models.SortByName:      "album_name COLLATE NOCASE, id",
	models.SortByArtist:    "artists COLLATE NOCASE, album_name COLLATE NOCASE",
	models.SortByRating:    "rating IS NULL, rating DESC, album_name COLLATE NOCASE",
	models.SortByDateAdded: "date_added, id",
}

// Insert persists a new album. date_added and last_updated are set here.
func (db *DB) Insert(ctx context.Context, a *models.Album) (int64, error) {
	now := db.now()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO albums (album_name, artists, genre, rating, personal_notes,
			release_date, label, producer, total_duration, track_count, track_listing,
			album_review, musical_style, similar_artists, awards, llm_categories, user_categories,
			source_image_path, date_added, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.Name, artistsJSON(a.Artists), nullString(a.Genre), nullInt(a.Rating), nullString(a.PersonalNotes),
		nullString(a.ReleaseDate), nullString(a.Label), nullString(a.Producer), nullString(a.TotalDuration),
		nullInt(a.TrackCount), listJSON(a.TrackListing),
		nullString(a.AlbumReview), nullString(a.MusicalStyle), listJSON(a.SimilarArtists), listJSON(a.Awards),
		listJSON(a.LLMCategories), listJSON(a.UserCategories),
		nullString(a.SourceImagePath), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("store: insert %q: %w", a.Name, apperr.ErrConstraint)
		}
		return 0, fmt.Errorf("store: insert album: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insert album: %w", err)
	}
	return id, nil
}

// Update applies p to the album with the given id in a single statement.
func (db *DB) Update(ctx context.Context, id int64, p models.Patch) error {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if p.Genre != nil {
		set("genre", nullString(*p.Genre))
	}
	if p.Rating != nil {
		set("rating", nullInt(*p.Rating))
	}
	if p.PersonalNotes != nil {
		set("personal_notes", nullString(*p.PersonalNotes))
	}
	for _, f := range p.MetadataFields {
		col, v, err := metadataValue(&p.Metadata, f)
		if err != nil {
			return err
		}
		set(col, v)
	}
	if p.SetUserCategories {
		set("user_categories", listJSON(p.UserCategories))
	}
	set("last_updated", db.now())

	args = append(args, id)
	res, err := db.conn.ExecContext(ctx,
		`UPDATE albums SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store: update %d: %w", id, apperr.ErrConstraint)
		}
		return fmt.Errorf("store: update album %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update album %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("store: album %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// Get returns the album with the given id or apperr.ErrNotFound.
func (db *DB) Get(ctx context.Context, id int64) (*models.Album, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE id = ?`, id)
	a, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: album %d: %w", id, apperr.ErrNotFound)
	}
	return a, err
}

// GetByName returns the first album whose name matches exactly.
func (db *DB) GetByName(ctx context.Context, name string) (*models.Album, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+albumColumns+` FROM albums WHERE album_name = ? ORDER BY id LIMIT 1`, name)
	a, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: album %q: %w", name, apperr.ErrNotFound)
	}
	return a, err
}

// Search returns albums matching every non-zero criterion of f.
func (db *DB) Search(ctx context.Context, f models.Filter) ([]models.Album, error) {
	query := `SELECT ` + albumColumns + ` FROM albums WHERE 1=1`
	var args []any
	like := func(s string) string { return "%" + likeEscaper.Replace(s) + "%" }

	if f.Name != "" {
		query += ` AND album_name LIKE ? ESCAPE '\'`
		args = append(args, like(f.Name))
	}
	if f.Artist != "" {
		query += ` AND artists LIKE ? ESCAPE '\'`
		args = append(args, like(f.Artist))
	}
	if f.Genre != "" {
		query += ` AND genre LIKE ? ESCAPE '\'`
		args = append(args, like(f.Genre))
	}
	if f.Category != "" {
		query += ` AND (llm_categories LIKE ? ESCAPE '\' OR user_categories LIKE ? ESCAPE '\')`
		args = append(args, like(f.Category), like(f.Category))
	}
	if f.RatingMin > 0 {
		query += ` AND rating >= ?`
		args = append(args, f.RatingMin)
	}
	if f.RatingMax > 0 {
		query += ` AND rating <= ?`
		args = append(args, f.RatingMax)
	}

	order := "id"
	if col, ok := sortColumns[f.Sort]; ok {
		order = col
	}
	query += ` ORDER BY ` + order

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	var out []models.Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Delete removes an album. Ids are never reused.
func (db *DB) Delete(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete album %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete album %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("store: album %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// Count returns the number of stored albums.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM albums`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlbum(r rowScanner) (*models.Album, error) {
	var (
		a       models.Album
		artists string

		genre, notes, release, label, producer, duration sql.NullString
		tracks, review, style, similar, awards, llmCats  sql.NullString
		userCats, source                                 sql.NullString
		rating, trackCount                               sql.NullInt64
	)
	err := r.Scan(&a.ID, &a.Name, &artists, &genre, &rating, &notes,
		&release, &label, &producer, &duration, &trackCount, &tracks,
		&review, &style, &similar, &awards, &llmCats, &userCats,
		&source, &a.DateAdded, &a.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan album: %w", err)
	}

	a.Artists = parseList(sql.NullString{String: artists, Valid: true})
	a.Genre = genre.String
	a.Rating = int(rating.Int64)
	a.PersonalNotes = notes.String
	a.ReleaseDate = release.String
	a.Label = label.String
	a.Producer = producer.String
	a.TotalDuration = duration.String
	a.TrackCount = int(trackCount.Int64)
	a.TrackListing = parseList(tracks)
	a.AlbumReview = review.String
	a.MusicalStyle = style.String
	a.SimilarArtists = parseList(similar)
	a.Awards = parseList(awards)
	a.LLMCategories = parseList(llmCats)
	a.UserCategories = parseList(userCats)
	a.SourceImagePath = source.String
	if a.Artists == nil {
		a.Artists = []string{}
	}
	return &a, nil
}

func metadataValue(m *models.Metadata, f models.Field) (string, any, error) {
	switch f {
	case models.FieldReleaseDate:
		return string(f), nullString(m.ReleaseDate), nil
	case models.FieldLabel:
		return string(f), nullString(m.Label), nil
	case models.FieldProducer:
		return string(f), nullString(m.Producer), nil
	case models.FieldTotalDuration:
		return string(f), nullString(m.TotalDuration), nil
	case models.FieldTrackCount:
		return string(f), nullInt(m.TrackCount), nil
	case models.FieldTrackListing:
		return string(f), listJSON(m.TrackListing), nil
	case models.FieldAlbumReview:
		return string(f), nullString(m.AlbumReview), nil
	case models.FieldMusicalStyle:
		return string(f), nullString(m.MusicalStyle), nil
	case models.FieldSimilarArtists:
		return string(f), listJSON(m.SimilarArtists), nil
	case models.FieldAwards:
		return string(f), listJSON(m.Awards), nil
	case models.FieldLLMCategories:
		return string(f), listJSON(m.LLMCategories), nil
	}
	return "", nil, fmt.Errorf("store: unknown field %q: %w", f, apperr.ErrInvalidInput)
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

// artistsJSON is part of the literal uniqueness key, so it is always
// written, even for an empty list.
func artistsJSON(artists []string) string {
	if artists == nil {
		artists = []string{}
	}
	return encodeList(artists)
}

func listJSON(items []string) any {
	if len(items) == 0 {
		return nil
	}
	return encodeList(items)
}

// encodeList writes items as a JSON array without HTML escaping, so that
// LIKE filters see "&", "<" and ">" as typed.
func encodeList(items []string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(items)
	return strings.TrimSuffix(buf.String(), "\n")
}

// parseList decodes a JSON array column. Legacy rows holding plain text
// are returned as a single-element list.
func parseList(s sql.NullString) []string {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return []string{s.String}
	}
	return out
}
