// Package catalog composes media with their reviews and exposes one CRUD
// contract per media kind. Every operation is stateless and re-reads the
// store.
//
// There is no isolation across documents: a listing may see a review that
// was written concurrently for some titles and not for others, and updates
// are last-write-wins.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/anilist/internal/platform/docstore"
	"github.com/example/anilist/internal/platform/metrics"
	"github.com/example/anilist/services/catalog/internal/media"
	"github.com/example/anilist/services/catalog/internal/repository"
)

const tracerName = "github.com/example/anilist/services/catalog/internal/catalog"

const (
	entityMedia  = "media"
	entityGenre  = "genre"
	entityReview = "review"
)

// ValidationError lists invalid input fields with a message each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

type Service struct {
	kind    media.Kind
	media   *repository.Repository[media.Media]
	genres  *repository.Repository[media.Genre]
	reviews *repository.Repository[media.Review]

	now     func() time.Time
	newID   func() string
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New builds the service for one kind over its three collections in store.
func New(store docstore.Store, kind media.Kind, opts ...Option) *Service {
	s := &Service{
		kind:    kind,
		media:   repository.NewMedia(store, kind),
		genres:  repository.NewGenres(store, kind),
		reviews: repository.NewReviews(store, kind),
		now:     time.Now,
		newID:   uuid.NewString,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Kind() media.Kind {
	return s.kind
}

// ListMedia returns every title with its reviews attached. Reviews are read
// with one full scan per call and matched on the foreign key.
func (s *Service) ListMedia(ctx context.Context) (_ []media.Media, err error) {
	ctx, end := s.start(ctx, entityMedia, "list", "")
	defer func() { end(err, true) }()

	items, err := s.media.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind.MediaCollection, err)
	}
	if len(items) == 0 {
		return items, nil
	}
	reviews, err := s.reviews.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind.ReviewCollection, err)
	}
	byMedia := make(map[string][]media.Review, len(items))
	for _, r := range reviews {
		byMedia[r.MediaID] = append(byMedia[r.MediaID], r)
	}
	for i := range items {
		items[i].Reviews = nonNil(byMedia[items[i].ID])
	}
	return items, nil
}

// GetMedia returns nil, nil when id does not exist.
func (s *Service) GetMedia(ctx context.Context, id string) (_ *media.Media, err error) {
	ctx, end := s.start(ctx, entityMedia, "get", id)
	found := false
	defer func() { end(err, found) }()

	m, err := s.media.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", s.kind.Name, id, err)
	}
	if m == nil {
		return nil, nil
	}
	found = true
	if m.ID == "" {
		m.ID = id
	}
	m.Reviews, err = s.reviewsFor(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CreateMedia stamps the release date with the current time, replacing any
// client value, and assigns an id when none was given.
func (s *Service) CreateMedia(ctx context.Context, m media.Media) (_ media.Media, err error) {
	ctx, end := s.start(ctx, entityMedia, "create", m.ID)
	defer func() { end(err, true) }()

	if err := validateMedia(s.kind, m); err != nil {
		return media.Media{}, err
	}
	if err := validateNewID(m.ID, true); err != nil {
		return media.Media{}, err
	}
	if strings.TrimSpace(m.ID) == "" {
		m.ID = s.newID()
	}
	released := s.timestamp()
	m.ReleaseDate = &released
	m.Reviews = nil
	if m.Genres == nil {
		m.Genres = []media.Genre{}
	}
	if err := s.media.Put(ctx, m); err != nil {
		return media.Media{}, fmt.Errorf("create %s: %w", s.kind.Name, err)
	}
	m.Reviews = []media.Review{}
	return m, nil
}

// UpdateMedia replaces every client editable field of an existing title.
// The id and release date are kept. It reports false when id does not exist.
func (s *Service) UpdateMedia(ctx context.Context, id string, m media.Media) (_ bool, err error) {
	ctx, end := s.start(ctx, entityMedia, "update", id)
	found := false
	defer func() { end(err, found) }()

	if err := validateMedia(s.kind, m); err != nil {
		return false, err
	}
	existing, err := s.media.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("update %s %s: %w", s.kind.Name, id, err)
	}
	if existing == nil {
		return false, nil
	}
	found = true
	m.ID = id
	m.ReleaseDate = existing.ReleaseDate
	m.Reviews = nil
	if m.Genres == nil {
		m.Genres = []media.Genre{}
	}
	if err := s.media.Put(ctx, m); err != nil {
		return false, fmt.Errorf("update %s %s: %w", s.kind.Name, id, err)
	}
	return true, nil
}

// DeleteMedia removes a title. Its reviews stay behind.
func (s *Service) DeleteMedia(ctx context.Context, id string) (_ bool, err error) {
	ctx, end := s.start(ctx, entityMedia, "delete", id)
	found := false
	defer func() { end(err, found) }()

	found, err = s.media.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", s.kind.Name, id, err)
	}
	return found, nil
}

func (s *Service) ListGenres(ctx context.Context) (_ []media.Genre, err error) {
	ctx, end := s.start(ctx, entityGenre, "list", "")
	defer func() { end(err, true) }()

	genres, err := s.genres.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind.GenreCollection, err)
	}
	return genres, nil
}

func (s *Service) GetGenre(ctx context.Context, id string) (_ *media.Genre, err error) {
	ctx, end := s.start(ctx, entityGenre, "get", id)
	found := false
	defer func() { end(err, found) }()

	g, err := s.genres.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get %s genre %s: %w", s.kind.Name, id, err)
	}
	found = g != nil
	return g, nil
}

func (s *Service) CreateGenre(ctx context.Context, g media.Genre) (_ media.Genre, err error) {
	ctx, end := s.start(ctx, entityGenre, "create", g.ID)
	defer func() { end(err, true) }()

	if err := validateGenre(g); err != nil {
		return media.Genre{}, err
	}
	if err := validateNewID(g.ID, false); err != nil {
		return media.Genre{}, err
	}
	if strings.TrimSpace(g.ID) == "" {
		g.ID = s.newID()
	}
	if err := s.genres.Put(ctx, g); err != nil {
		return media.Genre{}, fmt.Errorf("create %s genre: %w", s.kind.Name, err)
	}
	return g, nil
}

func (s *Service) UpdateGenre(ctx context.Context, id string, g media.Genre) (_ bool, err error) {
	ctx, end := s.start(ctx, entityGenre, "update", id)
	found := false
	defer func() { end(err, found) }()

	if err := validateGenre(g); err != nil {
		return false, err
	}
	existing, err := s.genres.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("update %s genre %s: %w", s.kind.Name, id, err)
	}
	if existing == nil {
		return false, nil
	}
	found = true
	g.ID = id
	if err := s.genres.Put(ctx, g); err != nil {
		return false, fmt.Errorf("update %s genre %s: %w", s.kind.Name, id, err)
	}
	return true, nil
}

func (s *Service) DeleteGenre(ctx context.Context, id string) (_ bool, err error) {
	ctx, end := s.start(ctx, entityGenre, "delete", id)
	found := false
	defer func() { end(err, found) }()

	found, err = s.genres.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete %s genre %s: %w", s.kind.Name, id, err)
	}
	return found, nil
}

func (s *Service) ListReviews(ctx context.Context) (_ []media.Review, err error) {
	ctx, end := s.start(ctx, entityReview, "list", "")
	defer func() { end(err, true) }()

	reviews, err := s.reviews.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind.ReviewCollection, err)
	}
	return reviews, nil
}

func (s *Service) GetReview(ctx context.Context, id string) (_ *media.Review, err error) {
	ctx, end := s.start(ctx, entityReview, "get", id)
	found := false
	defer func() { end(err, found) }()

	r, err := s.reviews.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get %s review %s: %w", s.kind.Name, id, err)
	}
	found = r != nil
	return r, nil
}

// CreateReview stores r as given. The owning title is not looked up, so a
// review may reference a title that does not exist (yet).
func (s *Service) CreateReview(ctx context.Context, r media.Review) (_ media.Review, err error) {
	ctx, end := s.start(ctx, entityReview, "create", r.ID)
	defer func() { end(err, true) }()

	if err := validateReview(s.kind, r); err != nil {
		return media.Review{}, err
	}
	if err := validateNewID(r.ID, false); err != nil {
		return media.Review{}, err
	}
	if strings.TrimSpace(r.ID) == "" {
		r.ID = s.newID()
	}
	if strings.TrimSpace(r.Date) == "" {
		r.Date = s.timestamp().Format(media.TimeLayout)
	}
	if err := s.reviews.Put(ctx, r); err != nil {
		return media.Review{}, fmt.Errorf("create %s review: %w", s.kind.Name, err)
	}
	return r, nil
}

// UpdateReview applies content and rating only. Id, owner, author and date
// never change. It reports false when id does not exist.
func (s *Service) UpdateReview(ctx context.Context, id string, p media.ReviewPatch) (_ bool, err error) {
	ctx, end := s.start(ctx, entityReview, "update", id)
	found := false
	defer func() { end(err, found) }()

	if p.Rating != nil && *p.Rating < 0 {
		return false, &ValidationError{Fields: map[string]string{"rating": "must not be negative"}}
	}
	existing, err := s.reviews.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("update %s review %s: %w", s.kind.Name, id, err)
	}
	if existing == nil {
		return false, nil
	}
	found, err = s.reviews.Update(ctx, id, p.Document())
	if err != nil {
		return false, fmt.Errorf("update %s review %s: %w", s.kind.Name, id, err)
	}
	return found, nil
}

func (s *Service) DeleteReview(ctx context.Context, id string) (_ bool, err error) {
	ctx, end := s.start(ctx, entityReview, "delete", id)
	found := false
	defer func() { end(err, found) }()

	found, err = s.reviews.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete %s review %s: %w", s.kind.Name, id, err)
	}
	return found, nil
}

func (s *Service) reviewsFor(ctx context.Context, mediaID string) ([]media.Review, error) {
	all, err := s.reviews.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind.ReviewCollection, err)
	}
	matched := make([]media.Review, 0)
	for _, r := range all {
		if r.MediaID == mediaID {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// start opens a span for one operation. The returned func closes it and
// counts the outcome.
func (s *Service) start(ctx context.Context, entity, op, id string) (context.Context, func(err error, found bool)) {
	attrs := []attribute.KeyValue{
		attribute.String("catalog.kind", s.kind.Name),
		attribute.String("catalog.entity", entity),
	}
	if id != "" {
		attrs = append(attrs, attribute.String("catalog.id", id))
	}
	ctx, span := s.tracer.Start(ctx, "catalog."+entity+"."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error, found bool) {
		result := "ok"
		switch {
		case err != nil:
			var verr *ValidationError
			if errors.As(err, &verr) {
				result = "invalid"
			} else {
				result = "error"
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
		case !found:
			result = "not_found"
		}
		span.SetAttributes(attribute.String("catalog.result", result))
		span.End()
		s.metrics.ObserveCatalog(s.kind.Name, entity, op, result)
	}
}

func nonNil(reviews []media.Review) []media.Review {
	if reviews == nil {
		return []media.Review{}
	}
	return reviews
}
