// Package api implements the albumdex REST API using chi.
package api

import (
	"net/http"
	"strings"
	"sync"

	"github.com/starford/albumdex/internal/lock"
)

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
// If enabled is true, requests must carry a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteLock serializes mutating requests in-process and holds the catalog
// file lock while each one runs. An empty path skips the file lock.
func WriteLock(path string) func(http.Handler) http.Handler {
	var mu sync.Mutex
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			if path == "" {
				next.ServeHTTP(w, r)
				return
			}
			l, err := lock.Acquire(path)
			if err != nil {
				writeError(w, "acquire lock", err)
				return
			}
			defer l.Release()
			next.ServeHTTP(w, r)
		})
	}
}
