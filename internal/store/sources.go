package store

import (
	"context"
	"fmt"

	"github.com/starford/albumdex/internal/models"
)

// MarkSourceProcessed records that an image has been scanned. A second
// call for the same path overwrites the previous marker.
func (db *DB) MarkSourceProcessed(ctx context.Context, src models.ProcessedSource) error {
	at := src.ProcessedAt
	if at.IsZero() {
		at = db.now()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO processed_images (image_path, checksum, processed_date, albums_extracted)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(image_path) DO UPDATE SET
			checksum         = excluded.checksum,
			processed_date   = excluded.processed_date,
			albums_extracted = excluded.albums_extracted
	`, src.Path, src.Checksum, at, src.AlbumsExtracted)
	if err != nil {
		return fmt.Errorf("store: mark processed %s: %w", src.Path, err)
	}
	return nil
}

// IsSourceProcessed reports whether path has a marker.
func (db *DB) IsSourceProcessed(ctx context.Context, path string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM processed_images WHERE image_path = ?`, path).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: is processed %s: %w", path, err)
	}
	return n > 0, nil
}

// ProcessedSources returns every marker ordered by path.
func (db *DB) ProcessedSources(ctx context.Context) ([]models.ProcessedSource, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT image_path, checksum, processed_date, albums_extracted FROM processed_images ORDER BY image_path`)
	if err != nil {
		return nil, fmt.Errorf("store: processed sources: %w", err)
	}
	defer rows.Close()

	var out []models.ProcessedSource
	for rows.Next() {
		var s models.ProcessedSource
		if err := rows.Scan(&s.Path, &s.Checksum, &s.ProcessedAt, &s.AlbumsExtracted); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
