// Package repository maps catalog entities onto docstore collections. One
// Repository owns exactly one collection.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/anilist/internal/platform/docstore"
	"github.com/example/anilist/services/catalog/internal/media"
)

// Codec converts between an entity and its stored document.
type Codec[T any] struct {
	Encode func(T) docstore.Document
	Decode func(docstore.Document) (T, error)
	ID     func(T) string
}

// StoredDocumentError reports a stored document that does not decode into
// its entity. It is a store-side problem, never the caller's input.
type StoredDocumentError struct {
	Collection string
	ID         string
	Err        error
}

func (e *StoredDocumentError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("decode %s document: %v", e.Collection, e.Err)
	}
	return fmt.Sprintf("decode %s document %s: %v", e.Collection, e.ID, e.Err)
}

func (e *StoredDocumentError) Unwrap() error { return e.Err }

type Repository[T any] struct {
	store      docstore.Store
	collection string
	codec      Codec[T]
}

func New[T any](store docstore.Store, collection string, codec Codec[T]) *Repository[T] {
	return &Repository[T]{store: store, collection: collection, codec: codec}
}

func NewMedia(store docstore.Store, k media.Kind) *Repository[media.Media] {
	return New(store, k.MediaCollection, Codec[media.Media]{
		Encode: k.MediaDocument,
		Decode: k.MediaFromDocument,
		ID:     func(m media.Media) string { return m.ID },
	})
}

func NewGenres(store docstore.Store, k media.Kind) *Repository[media.Genre] {
	return New(store, k.GenreCollection, Codec[media.Genre]{
		Encode: media.GenreDocument,
		Decode: media.GenreFromDocument,
		ID:     func(g media.Genre) string { return g.ID },
	})
}

func NewReviews(store docstore.Store, k media.Kind) *Repository[media.Review] {
	return New(store, k.ReviewCollection, Codec[media.Review]{
		Encode: k.ReviewDocument,
		Decode: k.ReviewFromDocument,
		ID:     func(r media.Review) string { return r.ID },
	})
}

func (r *Repository[T]) Collection() string {
	return r.collection
}

func (r *Repository[T]) All(ctx context.Context) ([]T, error) {
	docs, err := r.store.GetAll(ctx, r.collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := r.codec.Decode(doc)
		if err != nil {
			id, _ := doc["id"].(string)
			return nil, &StoredDocumentError{Collection: r.collection, ID: id, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}

// Get returns nil, nil when id is absent.
func (r *Repository[T]) Get(ctx context.Context, id string) (*T, error) {
	doc, err := r.store.Get(ctx, r.collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v, err := r.codec.Decode(doc)
	if err != nil {
		return nil, &StoredDocumentError{Collection: r.collection, ID: id, Err: err}
	}
	return &v, nil
}

// Put creates v or replaces the stored document with the same id.
func (r *Repository[T]) Put(ctx context.Context, v T) error {
	return r.store.Put(ctx, r.collection, r.codec.ID(v), r.codec.Encode(v))
}

// Update overwrites the given fields and reports false when id is absent.
func (r *Repository[T]) Update(ctx context.Context, id string, fields docstore.Document) (bool, error) {
	err := r.store.UpdatePartial(ctx, r.collection, id, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository[T]) Delete(ctx context.Context, id string) (bool, error) {
	return r.store.Delete(ctx, r.collection, id)
}
