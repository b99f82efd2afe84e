package albumservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/albumdex/internal/apperr"
	"github.com/starford/albumdex/internal/models"
)

// AddAlbum stores a unless an album with the same normalized identity
// exists, in which case the existing id is returned with StatusDuplicate.
// New albums are enriched right away when auto-enrich is on; an enrichment
// failure is logged and does not fail the add.
func (s *Service) AddAlbum(ctx context.Context, a models.Album) (int64, models.AddStatus, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Genre = strings.TrimSpace(a.Genre)
	artists := make([]string, 0, len(a.Artists))
	for _, ar := range a.Artists {
		artists = append(artists, strings.TrimSpace(ar))
	}
	a.Artists = artists
	if err := a.Validate(); err != nil {
		return 0, "", fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	existing, found, err := s.FindExisting(ctx, a.Name, a.Artists)
	if err != nil {
		return 0, "", err
	}
	if found {
		s.logger.Info("duplicate album",
			slog.Int64("id", existing.ID),
			slog.String("album", a.Name))
		return existing.ID, models.StatusDuplicate, nil
	}

	id, err := s.store.Insert(ctx, &a)
	if err != nil {
		return 0, "", err
	}
	s.logger.Info("album added", slog.Int64("id", id), slog.String("album", a.Name))

	if s.autoEnrich && s.llm != nil {
		if _, err := s.Enrich(ctx, id, false); err != nil {
			s.logger.Warn("auto-enrichment failed",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
		}
	}
	return id, models.StatusAdded, nil
}
