package albumservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/albumdex/internal/inference"
	"github.com/starford/albumdex/internal/models"
)

// Enrich fills metadata gaps of the album with the given id and returns
// the record as stored afterwards.
//
// Without force only missing fields are requested and merged; a record
// with no gaps is returned untouched without calling the inference
// service. With force every field in the answer overwrites what is stored.
// A failed metadata fetch writes nothing.
func (s *Service) Enrich(ctx context.Context, id int64, force bool) (*models.Album, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var requested []models.Field
	if !force {
		requested = MissingFields(a).Sorted()
		if len(requested) == 0 {
			return a, nil
		}
	}
	if err := s.requireInference(); err != nil {
		return nil, err
	}

	s.logger.Info("enriching album",
		slog.Int64("id", a.ID),
		slog.String("album", a.Name),
		slog.Bool("force", force),
		slog.Int("requested", len(requested)))

	meta, err := s.llm.FetchMetadata(ctx, a.Name, a.Artists, requested)
	if err != nil {
		return nil, fmt.Errorf("enrich album %d: %w", id, err)
	}

	patch := models.Patch{Metadata: meta, MetadataFields: acceptedFields(meta, requested, force)}

	merged := *a
	merged.Merge(meta, patch.MetadataFields)
	if cats, ok := s.classify(ctx, &merged); ok {
		patch.UserCategories = cats
		patch.SetUserCategories = true
	}

	if patch.Empty() {
		return a, nil
	}
	if err := s.store.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// acceptedFields picks the fields of meta that may be written: all present
// fields under force, otherwise only those that were requested.
func acceptedFields(meta models.Metadata, requested []models.Field, force bool) []models.Field {
	present := meta.Present()
	if force {
		return present
	}
	allowed := models.NewFieldSet(requested...)
	var out []models.Field
	for _, f := range present {
		if allowed.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// classify matches a against the user vocabulary when it has review or
// style text. A classifier failure leaves user_categories unchanged.
func (s *Service) classify(ctx context.Context, a *models.Album) ([]string, bool) {
	vocab := s.vocabulary()
	review := strings.TrimSpace(a.AlbumReview)
	style := strings.TrimSpace(a.MusicalStyle)
	if len(vocab) == 0 || (review == "" && style == "") {
		return nil, false
	}

	cats, err := s.llm.Classify(ctx, inference.ClassifyRequest{
		Name:       a.Name,
		Artists:    a.Artists,
		Review:     review,
		Genre:      a.Genre,
		Style:      style,
		Vocabulary: vocab,
	})
	if err != nil {
		s.logger.Warn("category matching failed",
			slog.Int64("id", a.ID),
			slog.String("error", err.Error()))
		return nil, false
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, true
}
