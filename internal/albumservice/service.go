// Package albumservice holds the catalog's core rules: duplicate
// resolution, field-gap analysis and incremental enrichment. It sits
// between the inference service and the record store.
package albumservice

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/starford/albumdex/internal/apperr"
	"github.com/starford/albumdex/internal/inference"
	"github.com/starford/albumdex/internal/models"
	"github.com/starford/albumdex/internal/store"
)

// Vocabulary supplies the user-category labels used for classification.
type Vocabulary interface {
	List() []string
}

// Service coordinates the store and the inference service. It holds no
// record state between calls; every operation re-reads the store.
type Service struct {
	store      store.Store
	llm        inference.Service
	vocab      Vocabulary
	autoEnrich bool
	logger     *slog.Logger
}

// Option customizes the service.
type Option func(*Service)

// WithInference sets the inference service. Without one, operations that
// need it fail with a configuration error.
func WithInference(llm inference.Service) Option {
	return func(s *Service) { s.llm = llm }
}

// WithVocabulary sets the user-category vocabulary.
func WithVocabulary(v Vocabulary) Option {
	return func(s *Service) { s.vocab = v }
}

// WithAutoEnrich enables enrichment right after a new album is added.
func WithAutoEnrich(enabled bool) Option {
	return func(s *Service) { s.autoEnrich = enabled }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a service over st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the album with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Album, error) {
	return s.store.Get(ctx, id)
}

// Resolve looks an album up by numeric id, falling back to an exact name.
func (s *Service) Resolve(ctx context.Context, ref string) (*models.Album, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &apperr.ValidationError{Field: "album", Message: "id or name is required"}
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.store.Get(ctx, id)
	}
	return s.store.GetByName(ctx, ref)
}

// Search returns albums matching f.
func (s *Service) Search(ctx context.Context, f models.Filter) ([]models.Album, error) {
	if f.RatingMin != 0 || f.RatingMax != 0 {
		if err := validateRating(f.RatingMin); err != nil {
			return nil, err
		}
		if err := validateRating(f.RatingMax); err != nil {
			return nil, err
		}
	}
	return s.store.Search(ctx, f)
}

// Update applies a manual edit and returns the stored result.
func (s *Service) Update(ctx context.Context, id int64, p models.Patch) (*models.Album, error) {
	if p.Empty() {
		return nil, &apperr.ValidationError{Field: "update", Message: "nothing to update"}
	}
	if p.Rating != nil {
		if err := validateRating(*p.Rating); err != nil {
			return nil, err
		}
	}
	if p.Genre != nil {
		g := strings.TrimSpace(*p.Genre)
		if g == "" {
			return nil, &apperr.ValidationError{Field: "genre", Message: "cannot be blank"}
		}
		p.Genre = &g
	}
	if err := s.store.Update(ctx, id, p); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// Delete removes an album.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

// Missing returns the album and its unpopulated enrichable fields.
func (s *Service) Missing(ctx context.Context, id int64) (*models.Album, models.FieldSet, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return a, MissingFields(a), nil
}

func (s *Service) vocabulary() []string {
	if s.vocab == nil {
		return nil
	}
	return s.vocab.List()
}

func (s *Service) requireInference() error {
	if s.llm == nil {
		return apperr.Configuration("no inference provider configured")
	}
	return nil
}

func validateRating(r int) error {
	if r == 0 {
		return nil
	}
	if r < models.MinRating || r > models.MaxRating {
		return &apperr.ValidationError{
			Field:   "rating",
			Message: fmt.Sprintf("must be between %d and %d", models.MinRating, models.MaxRating),
		}
	}
	return nil
}
