package api

import (
	"net/http"
	"os"
	"strconv"

	"github.com/starford/albumdex/internal/imaging"
)

const (
	defaultCoverSize = 320
	maxCoverSize     = 2048
)

// Cover handles GET /api/albums/{id}/cover. It returns a JPEG thumbnail
// of the image the album was extracted from.
//
//	@Summary		Cover thumbnail from the source image
//	@Tags			albums
//	@Produce		jpeg
//	@Param			id		path	int	true	"Album id"
//	@Param			size	query	int	false	"Longest edge in pixels"
//	@Success		200
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/albums/{id}/cover [get]
func (h *Handler) Cover(w http.ResponseWriter, r *http.Request) {
	id, err := albumID(r)
	if err != nil {
		writeError(w, "cover", err)
		return
	}
	size := defaultCoverSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxCoverSize {
			writeJSON(w, http.StatusBadRequest, errorBody("size must be between 1 and 2048"))
			return
		}
		size = n
	}

	a, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, "cover", err)
		return
	}
	if a.SourceImagePath == "" {
		writeJSON(w, http.StatusNotFound, errorBody("album has no source image"))
		return
	}
	data, err := os.ReadFile(a.SourceImagePath)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("source image unavailable"))
		return
	}
	thumb, err := imaging.Thumbnail(data, size)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("source image cannot be decoded"))
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "max-age=3600")
	_, _ = w.Write(thumb)
}
