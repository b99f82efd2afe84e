package api

import (
	"context"

	"github.com/starford/albumdex/internal/albumservice"
	"github.com/starford/albumdex/internal/models"
)

// Catalog is the album service consumed by the handlers.
type Catalog interface {
	Get(ctx context.Context, id int64) (*models.Album, error)
	Search(ctx context.Context, f models.Filter) ([]models.Album, error)
	AddAlbum(ctx context.Context, a models.Album) (int64, models.AddStatus, error)
	Update(ctx context.Context, id int64, p models.Patch) (*models.Album, error)
	Delete(ctx context.Context, id int64) error
	Missing(ctx context.Context, id int64) (*models.Album, models.FieldSet, error)
	Enrich(ctx context.Context, id int64, force bool) (*models.Album, error)
}

var _ Catalog = (*albumservice.Service)(nil)

// Categories exposes the user-category vocabulary.
type Categories interface {
	List() []string
}

// EnrichObserver is notified of every enrichment outcome.
type EnrichObserver interface {
	ObserveEnrich(err error)
}
