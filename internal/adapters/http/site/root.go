// Package site serves the embedded single-page result viewer.
package site

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Register attaches the viewer page and its assets to r as the catch-all route.
func Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	files := http.FileServer(FS())
	r.Get("/*", files.ServeHTTP)
	r.Head("/*", files.ServeHTTP)
}
