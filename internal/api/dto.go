package api

import "github.com/starford/albumdex/internal/models"

// AddAlbumRequest is the request body for adding an album.
type AddAlbumRequest struct {
	Name          string   `json:"album_name" example:"OK Computer" validate:"required"`
	Artists       []string `json:"artists" example:"Radiohead"`
	Genre         string   `json:"genre" example:"rock" validate:"required"`
	Rating        int      `json:"rating,omitempty" example:"9"`
	PersonalNotes string   `json:"personal_notes,omitempty"`
}

// AddAlbumResponse reports the id and whether the album was new.
type AddAlbumResponse struct {
	ID     int64            `json:"id" example:"12" validate:"required"`
	Status models.AddStatus `json:"status" example:"added" validate:"required"`
}

// UpdateAlbumRequest is a partial update. Omitted fields are unchanged.
type UpdateAlbumRequest struct {
	Genre         *string `json:"genre,omitempty"`
	Rating        *int    `json:"rating,omitempty"`
	PersonalNotes *string `json:"personal_notes,omitempty"`
}

// AlbumListResponse wraps search results.
type AlbumListResponse struct {
	Albums []models.Album `json:"albums" validate:"required"`
	Total  int            `json:"total" example:"42" validate:"required"`
}

// MissingResponse lists the enrichable fields an album lacks.
type MissingResponse struct {
	ID      int64    `json:"id" validate:"required"`
	Name    string   `json:"album_name" validate:"required"`
	Missing []string `json:"missing" validate:"required"`
}

// CategoriesResponse lists the user-category vocabulary.
type CategoriesResponse struct {
	Categories []string `json:"categories" validate:"required"`
}
