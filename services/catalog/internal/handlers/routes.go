package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/anilist/internal/platform/api"
	"github.com/example/anilist/internal/platform/auth"
	"github.com/example/anilist/internal/platform/events"
	"github.com/example/anilist/internal/platform/httpserver"
	"github.com/example/anilist/services/catalog/internal/catalog"
	"github.com/example/anilist/services/catalog/internal/identity"
	"github.com/example/anilist/services/catalog/internal/media"
)

type RoutesConfig struct {
	Services []*catalog.Service
	Identity identity.Provider
	Gate     *auth.Gate
	Events   *events.Publisher
	Log      *zap.Logger
	// AuthLimit wraps the login and register endpoints; nil means unlimited.
	AuthLimit func(http.Handler) http.Handler
}

// Mount registers the auth endpoints and, per kind, the media, genre and
// review routes. Reads are public; every write goes through the gate.
func Mount(r chi.Router, cfg RoutesConfig) {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	r.Route("/auth", func(r chi.Router) {
		if cfg.AuthLimit != nil {
			r.Use(cfg.AuthLimit)
		}
		r.Post("/login", Login(cfg.Identity, log))
		r.Post("/register", Register(cfg.Identity, log))
	})

	for _, svc := range cfg.Services {
		d := Deps{Service: svc, Events: cfg.Events, Log: log.With(zap.String("kind", svc.Kind().Name))}
		r.Route("/"+svc.Kind().Path(), func(r chi.Router) {
			genres := "/" + media.GenresSegment
			reviews := "/" + media.ReviewsSegment

			r.Get("/", ListMedia(d))
			r.Get(genres, ListGenres(d))
			r.Get(genres+"/{id}", GetGenre(d))
			r.Get(reviews, ListReviews(d))
			r.Get(reviews+"/{id}", GetReview(d))
			r.Get("/{id}", GetMedia(d))

			// PUT and DELETE on a collection path are 405, never a media /{id}.
			for _, p := range []string{genres, reviews} {
				r.Put(p, methodNotAllowed)
				r.Delete(p, methodNotAllowed)
			}

			r.Group(func(r chi.Router) {
				r.Use(cfg.Gate.Require)
				r.Post("/", CreateMedia(d))
				r.Put("/{id}", UpdateMedia(d))
				r.Delete("/{id}", DeleteMedia(d))
				r.Post(genres, CreateGenre(d))
				r.Put(genres+"/{id}", UpdateGenre(d))
				r.Delete(genres+"/{id}", DeleteGenre(d))
				r.Post(reviews, CreateReview(d))
				r.Put(reviews+"/{id}", UpdateReview(d))
				r.Delete(reviews+"/{id}", DeleteReview(d))
			})
		})
	}
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	api.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", httpserver.RequestIDFromContext(r.Context()), nil)
}
