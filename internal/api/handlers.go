package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/albumdex/internal/apperr"
	"github.com/starford/albumdex/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc      Catalog
	cats     Categories
	observer EnrichObserver
}

// NewHandler creates a new Handler.
func NewHandler(svc Catalog, cats Categories, observer EnrichObserver) *Handler {
	return &Handler{svc: svc, cats: cats, observer: observer}
}

func albumID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &apperr.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return id, nil
}

// parseFilter reads search criteria from the query string.
func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	f := models.Filter{
		Name:     q.Get("name"),
		Artist:   q.Get("artist"),
		Genre:    q.Get("genre"),
		Category: q.Get("category"),
	}
	var err error
	if f.RatingMin, err = intParam(q.Get("rating_min"), "rating_min"); err != nil {
		return f, err
	}
	if f.RatingMax, err = intParam(q.Get("rating_max"), "rating_max"); err != nil {
		return f, err
	}
	if f.Sort, err = models.ParseSortKey(q.Get("sort")); err != nil {
		return f, &apperr.ValidationError{Field: "sort", Message: err.Error()}
	}
	return f, nil
}

func intParam(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &apperr.ValidationError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

// ListAlbums handles GET /api/albums.
//
//	@Summary		Search albums
//	@Tags			albums
//	@Produce		json
//	@Param			name		query		string	false	"Name substring"
//	@Param			artist		query		string	false	"Artist substring"
//	@Param			genre		query		string	false	"Genre substring"
//	@Param			category	query		string	false	"Category substring"
//	@Param			rating_min	query		int		false	"Minimum rating"
//	@Param			rating_max	query		int		false	"Maximum rating"
//	@Param			sort		query		string	false	"Sort key"	Enums(name, artist, rating, date_added)
//	@Success		200			{object}	AlbumListResponse
//	@Security		BearerAuth
//	@Router			/albums [get]
func (h *Handler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, "search albums", err)
		return
	}
	albums, err := h.svc.Search(r.Context(), f)
	if err != nil {
		writeError(w, "search albums", err)
		return
	}
	if albums == nil {
		albums = []models.Album{}
	}
	writeJSON(w, http.StatusOK, AlbumListResponse{Albums: albums, Total: len(albums)})
}

// GetAlbum handles GET /api/albums/{id}.
//
//	@Summary		Get a single album
//	@Tags			albums
//	@Produce		json
//	@Param			id	path		int	true	"Album id"
//	@Success		200	{object}	models.Album
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/albums/{id} [get]
func (h *Handler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := albumID(r)
	if err != nil {
		writeError(w, "get album", err)
		return
	}
	a, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, "get album", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// CreateAlbum handles POST /api/albums.
//
//	@Summary		Add an album unless it is already cataloged
//	@Tags			albums
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddAlbumRequest	true	"Album to add"
//	@Success		201		{object}	AddAlbumResponse	"Added"
//	@Success		200		{object}	AddAlbumResponse	"Duplicate"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/albums [post]
func (h *Handler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req AddAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	artists := req.Artists
	if artists == nil {
		artists = []string{}
	}
	id, status, err := h.svc.AddAlbum(r.Context(), models.Album{
		Name:          req.Name,
		Artists:       artists,
		Genre:         req.Genre,
		Rating:        req.Rating,
		PersonalNotes: req.PersonalNotes,
	})
	if err != nil {
		writeError(w, "add album", err)
		return
	}
	code := http.StatusCreated
	if status == models.StatusDuplicate {
		code = http.StatusOK
	}
	writeJSON(w, code, AddAlbumResponse{ID: id, Status: status})
}

// UpdateAlbum handles PATCH /api/albums/{id}.
//
//	@Summary		Update genre, rating or notes
//	@Tags			albums
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Album id"
//	@Param			body	body		UpdateAlbumRequest	true	"Fields to change"
//	@Success		200		{object}	models.Album
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/albums/{id} [patch]
func (h *Handler) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id, err := albumID(r)
	if err != nil {
		writeError(w, "update album", err)
		return
	}
	var req UpdateAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	a, err := h.svc.Update(r.Context(), id, models.Patch{
		Genre:         req.Genre,
		Rating:        req.Rating,
		PersonalNotes: req.PersonalNotes,
	})
	if err != nil {
		writeError(w, "update album", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAlbum handles DELETE /api/albums/{id}.
//
//	@Summary		Delete an album
//	@Tags			albums
//	@Param			id	path	int	true	"Album id"
//	@Success		204	"Album deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/albums/{id} [delete]
func (h *Handler) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := albumID(r)
	if err != nil {
		writeError(w, "delete album", err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, "delete album", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MissingFields handles GET /api/albums/{id}/missing.
//
//	@Summary		List enrichable fields the album lacks
//	@Tags			enrichment
//	@Produce		json
//	@Param			id	path		int	true	"Album id"
//	@Success		200	{object}	MissingResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/albums/{id}/missing [get]
func (h *Handler) MissingFields(w http.ResponseWriter, r *http.Request) {
	id, err := albumID(r)
	if err != nil {
		writeError(w, "missing fields", err)
		return
	}
	a, missing, err := h.svc.Missing(r.Context(), id)
	if err != nil {
		writeError(w, "missing fields", err)
		return
	}
	writeJSON(w, http.StatusOK, MissingResponse{ID: a.ID, Name: a.Name, Missing: missing.Strings()})
}

// EnrichAlbum handles POST /api/albums/{id}/enrich.
//
//	@Summary		Fill missing fields from the inference service
//	@Tags			enrichment
//	@Produce		json
//	@Param			id		path		int		true	"Album id"
//	@Param			force	query		bool	false	"Refresh every field"
//	@Success		200		{object}	models.Album
//	@Failure		404		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/albums/{id}/enrich [post]
func (h *Handler) EnrichAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := albumID(r)
	if err != nil {
		writeError(w, "enrich album", err)
		return
	}
	force, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get("force")))
	a, err := h.svc.Enrich(r.Context(), id, force)
	if h.observer != nil {
		h.observer.ObserveEnrich(err)
	}
	if err != nil {
		writeError(w, "enrich album", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ListCategories handles GET /api/categories.
//
//	@Summary		List the user-category vocabulary
//	@Tags			categories
//	@Produce		json
//	@Success		200	{object}	CategoriesResponse
//	@Security		BearerAuth
//	@Router			/categories [get]
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := []string{}
	if h.cats != nil {
		cats = append(cats, h.cats.List()...)
	}
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: cats})
}
