package store

import (
	"context"

	"github.com/starford/albumdex/internal/models"
)

// Store defines the record-store operations consumed by the catalog.
// Consumers should depend on this interface rather than the concrete *DB type.
type Store interface {
	// Insert persists a new album and returns its id. It fails with
	// apperr.ErrConstraint when the literal (name, artists) pair exists.
	Insert(ctx context.Context, a *models.Album) (int64, error)
	// Update applies a partial update and refreshes last_updated.
	// It fails with apperr.ErrNotFound when id is absent.
	Update(ctx context.Context, id int64, p models.Patch) error
	Get(ctx context.Context, id int64) (*models.Album, error)
	GetByName(ctx context.Context, name string) (*models.Album, error)
	Search(ctx context.Context, f models.Filter) ([]models.Album, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)

	MarkSourceProcessed(ctx context.Context, src models.ProcessedSource) error
	IsSourceProcessed(ctx context.Context, path string) (bool, error)
	ProcessedSources(ctx context.Context) ([]models.ProcessedSource, error)

	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
