package albumservice

import (
	"context"
	"slices"

	"github.com/starford/albumdex/internal/models"
	"github.com/starford/albumdex/internal/normalize"
)

// FindExisting reports the first stored album with the same normalized
// name and the same sorted multiset of normalized artists. Every record is
// scanned; there is no index on the normalized identity.
func (s *Service) FindExisting(ctx context.Context, name string, artists []string) (*models.Album, bool, error) {
	all, err := s.store.Search(ctx, models.Filter{})
	if err != nil {
		return nil, false, err
	}
	nameKey := normalize.Key(name)
	artistKey := normalize.ArtistKey(artists)
	for i := range all {
		a := &all[i]
		if normalize.Key(a.Name) == nameKey && slices.Equal(normalize.ArtistKey(a.Artists), artistKey) {
			return a, true, nil
		}
	}
	return nil, false, nil
}
