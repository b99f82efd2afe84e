package api

import (
	"github.com/go-chi/chi/v5"
)

// Options configures the router.
type Options struct {
	AuthEnabled bool
	Token       string
	// LockPath is the catalog file lock taken by mutating routes.
	LockPath string
	Observer EnrichObserver
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc Catalog, cats Categories, opts Options) chi.Router {
	h := NewHandler(svc, cats, opts.Observer)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(opts.AuthEnabled, opts.Token))

	r.Get("/albums", h.ListAlbums)
	r.Get("/albums/{id}", h.GetAlbum)
	r.Get("/albums/{id}/missing", h.MissingFields)
	r.Get("/albums/{id}/cover", h.Cover)
	r.Get("/categories", h.ListCategories)

	r.Group(func(r chi.Router) {
		r.Use(WriteLock(opts.LockPath))
		r.Post("/albums", h.CreateAlbum)
		r.Patch("/albums/{id}", h.UpdateAlbum)
		r.Delete("/albums/{id}", h.DeleteAlbum)
		r.Post("/albums/{id}/enrich", h.EnrichAlbum)
	})

	return r
}
