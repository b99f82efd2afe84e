package albumservice

import "github.com/starford/albumdex/internal/models"

// MissingFields returns the enrichable fields a holds no value for. Blank
// strings, zero counts and empty lists count as missing. user_categories
// is never reported.
func MissingFields(a *models.Album) models.FieldSet {
	m := a.Metadata()
	missing := models.NewFieldSet()
	for _, f := range models.EnrichableFields {
		if !m.Has(f) {
			missing[f] = struct{}{}
		}
	}
	return missing
}
