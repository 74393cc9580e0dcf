package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/example/anilist/internal/platform/api"
	"github.com/example/anilist/internal/platform/auth"
	"github.com/example/anilist/internal/platform/events"
	"github.com/example/anilist/internal/platform/httpserver"
	"github.com/example/anilist/services/catalog/internal/catalog"
	"github.com/example/anilist/services/catalog/internal/media"
)

// Deps is what every catalog handler of one kind needs.
type Deps struct {
	Service *catalog.Service
	Events  *events.Publisher
	Log     *zap.Logger
}

type deletedResponse struct {
	Deleted bool `json:"deleted"`
}

type updatedResponse struct {
	Updated bool   `json:"updated"`
	Message string `json:"message"`
}

func (d Deps) kind() media.Kind {
	return d.Service.Kind()
}

func (d Deps) publish(r *http.Request, entity, action, id string) {
	p, _ := auth.PrincipalFromContext(r.Context())
	d.Events.Publish(d.kind().Name, entity, action, id, p.Email)
}

// notFound answers 404 for entity ("" for the media itself).
func (d Deps) notFound(w http.ResponseWriter, rid, entity string) {
	what := d.kind().Name
	if entity != "" {
		what += " " + entity
	}
	api.NotFound(w, "NOT_FOUND", what+" not found", rid)
}

// ListMedia handles GET /{kind}s
func ListMedia(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		items, err := d.Service.ListMedia(r.Context())
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		out := make([]map[string]any, 0, len(items))
		for _, m := range items {
			out = append(out, d.kind().MediaView(m))
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}

// GetMedia handles GET /{kind}s/{id}
func GetMedia(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		m, err := d.Service.GetMedia(r.Context(), id)
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		if m == nil {
			d.notFound(w, rid, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, d.kind().MediaView(*m))
	}
}

// CreateMedia handles POST /{kind}s
func CreateMedia(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		doc, ok := decodeDocument(w, r, rid)
		if !ok {
			return
		}
		in, err := d.kind().MediaFromDocument(doc)
		if err != nil {
			writeBodyError(w, d.Log, rid, err)
			return
		}
		created, err := d.Service.CreateMedia(r.Context(), in)
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		d.publish(r, "media", events.ActionCreated, created.ID)
		api.WriteJSON(w, http.StatusCreated, d.kind().MediaView(created))
	}
}

// UpdateMedia handles PUT /{kind}s/{id}
func UpdateMedia(d Deps) http.HandlerFunc {
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
		in, err := d.kind().MediaFromDocument(doc)
		if err != nil {
			writeBodyError(w, d.Log, rid, err)
			return
		}
		updated, err := d.Service.UpdateMedia(r.Context(), id, in)
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		if !updated {
			d.notFound(w, rid, "")
			return
		}
		d.publish(r, "media", events.ActionUpdated, id)
		api.WriteJSON(w, http.StatusOK, updatedResponse{Updated: true, Message: d.kind().Name + " updated"})
	}
}

// DeleteMedia handles DELETE /{kind}s/{id}
func DeleteMedia(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		deleted, err := d.Service.DeleteMedia(r.Context(), id)
		if err != nil {
			writeError(w, d.Log, rid, err)
			return
		}
		if !deleted {
			d.notFound(w, rid, "")
			return
		}
		d.publish(r, "media", events.ActionDeleted, id)
		api.WriteJSON(w, http.StatusOK, deletedResponse{Deleted: true})
	}
}
