package handlers

import (
	"net/http"

	"github.com/example/anilist/internal/platform/api"
	"github.com/example/anilist/internal/platform/events"
	"github.com/example/anilist/internal/platform/httpserver"
	"github.com/example/anilist/services/catalog/internal/media"
)

// ListGenres handles GET /{kind}s/genres
func ListGenres(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		genres, err := d.Service.ListGenres(r.Context())
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		out := make([]map[string]any, 0, len(genres))
		for _, g := range genres {
			out = append(out, media.GenreDocument(g))
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}

// GetGenre handles GET /{kind}s/genres/{id}
func GetGenre(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		g, err := d.Service.GetGenre(r.Context(), id)
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		if g == nil {
			d.notFound(w, rid, "genre")
			return
		}
		api.WriteJSON(w, http.StatusOK, media.GenreDocument(*g))
	}
}

// CreateGenre handles POST /{kind}s/genres
func CreateGenre(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		doc, ok := decodeDocument(w, r, rid)
		if !ok {
			return
		}
		in, err := media.GenreFromDocument(doc)
		if err != nil {
			writeBodyError(w, d.Log, rid, err)
			return
		}
		created, err := d.Service.CreateGenre(r.Context(), in)
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		d.publish(r, "genre", events.ActionCreated, created.ID)
		api.WriteJSON(w, http.StatusCreated, media.GenreDocument(created))
	}
}

// UpdateGenre handles PUT /{kind}s/genres/{id}
func UpdateGenre(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		doc, ok := decodeDocument(w, r, rid)
		if !ok {
			return
		}
		in, err := media.GenreFromDocument(doc)
		if err != nil {
			writeBodyError(w, d.Log, rid, err)
			return
		}
		updated, err := d.Service.UpdateGenre(r.Context(), id, in)
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		if !updated {
			d.notFound(w, rid, "genre")
			return
		}
		d.publish(r, "genre", events.ActionUpdated, id)
		api.WriteJSON(w, http.StatusOK, updatedResponse{Updated: true, Message: d.kind().Name + " genre updated"})
	}
}

// DeleteGenre handles DELETE /{kind}s/genres/{id}
func DeleteGenre(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		deleted, err := d.Service.DeleteGenre(r.Context(), id)
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		if !deleted {
			d.notFound(w, rid, "genre")
			return
		}
		d.publish(r, "genre", events.ActionDeleted, id)
		api.WriteJSON(w, http.StatusOK, deletedResponse{Deleted: true})
	}
}
