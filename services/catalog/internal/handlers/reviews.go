package handlers

import (
	"net/http"

	"github.com/example/anilist/internal/platform/api"
	"github.com/example/anilist/internal/platform/auth"
	"github.com/example/anilist/internal/platform/events"
	"github.com/example/anilist/internal/platform/httpserver"
	"github.com/example/anilist/services/catalog/internal/media"
)

// ListReviews handles GET /{kind}s/reviews
func ListReviews(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		reviews, err := d.Service.ListReviews(r.Context())
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		out := make([]map[string]any, 0, len(reviews))
		for _, rv := range reviews {
			out = append(out, d.kind().ReviewDocument(rv))
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}

// GetReview handles GET /{kind}s/reviews/{id}
func GetReview(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		rv, err := d.Service.GetReview(r.Context(), id)
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		if rv == nil {
			d.notFound(w, rid, "review")
			return
		}
		api.WriteJSON(w, http.StatusOK, d.kind().ReviewDocument(*rv))
	}
}

// CreateReview handles POST /{kind}s/reviews. The author is always the
// authenticated caller and the date is set by the server.
func CreateReview(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		p, ok := auth.PrincipalFromContext(r.Context())
		if !ok || p.Email == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}
		doc, ok := decodeDocument(w, r, rid)
		if !ok {
			return
		}
		in, err := d.kind().ReviewFromDocument(doc)
		if err != nil {
			writeBodyError(w, d.Log, rid, err)
			return
		}
		in.Author = p.Email
		in.Date = ""
		created, err := d.Service.CreateReview(r.Context(), in)
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		d.publish(r, "review", events.ActionCreated, created.ID)
		api.WriteJSON(w, http.StatusCreated, d.kind().ReviewDocument(created))
	}
}

// UpdateReview handles PUT /{kind}s/reviews/{id}; only content and rating
// are applied.
func UpdateReview(d Deps) http.HandlerFunc {
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
		patch, err := media.ReviewPatchFromDocument(doc)
		if err != nil {
			writeBodyError(w, d.Log, rid, err)
			return
		}
		updated, err := d.Service.UpdateReview(r.Context(), id, patch)
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		if !updated {
			d.notFound(w, rid, "review")
			return
		}
		d.publish(r, "review", events.ActionUpdated, id)
		api.WriteJSON(w, http.StatusOK, updatedResponse{Updated: true, Message: d.kind().Name + " review updated"})
	}
}

// DeleteReview handles DELETE /{kind}s/reviews/{id}
func DeleteReview(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		deleted, err := d.Service.DeleteReview(r.Context(), id)
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		if !deleted {
			d.notFound(w, rid, "review")
			return
		}
		d.publish(r, "review", events.ActionDeleted, id)
		api.WriteJSON(w, http.StatusOK, deletedResponse{Deleted: true})
	}
}
