package models

import "fmt"

// SortKey selects the ordering of search results.
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByArtist    SortKey = "artist"
	SortByRating    SortKey = "rating"
	SortByDateAdded SortKey = "date_added"
)

// SortKeys lists the accepted sort keys.
var SortKeys = []string{string(SortByName), string(SortByArtist), string(SortByRating), string(SortByDateAdded)}

// ParseSortKey validates s. The empty string selects insertion order.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case "", SortByName, SortByArtist, SortByRating, SortByDateAdded:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Filter narrows a search. Zero values disable the corresponding criterion.
type Filter struct {
	Name      string
	Artist    string
	Genre     string
	Category  string
	RatingMin int
	RatingMax int
	Sort      SortKey
}
