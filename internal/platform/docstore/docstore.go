// Package docstore is the document collection layer the catalog persists to.
//
// A store holds named collections of documents keyed by id. It offers single
// document atomicity only: there are no transactions across documents or
// collections, and concurrent writers to the same document follow
// last-write-wins.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/anilist/internal/platform/db"
)

// ErrNotFound is returned by Get and UpdatePartial when the id is absent.
var ErrNotFound = errors.New("docstore: document not found")

// Document is a string keyed mapping to primitive or nested values.
type Document map[string]any

// Store is the contract every backend implements.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	GetAll(ctx context.Context, collection string) ([]Document, error)
	// Put creates the document or replaces it entirely.
	Put(ctx context.Context, collection, id string, doc Document) error
	// UpdatePartial overwrites the given top level fields of an existing document.
	UpdatePartial(ctx context.Context, collection, id string, fields Document) error
	// Delete reports whether a document existed and was removed.
	Delete(ctx context.Context, collection, id string) (bool, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Driver      string
	MongoURI    string
	MongoDB     string
	DatabaseURL string
	// Pool sizes for the postgres driver; zero keeps the db package defaults.
	DBMaxConns  int32
	DBMinConns  int32
	RedisURL    string
	RedisPrefix string
}

// Open connects the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverMongo:
		s, err := OpenMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := OpenPostgres(ctx, cfg.DatabaseURL, db.Options{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverRedis:
		s, err := OpenRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("docstore: unknown driver %q", cfg.Driver)
	}
}

// withKey fills the "id" field from the storage key when the stored body
// lacks one, so Get and GetAll report the same id for a document.
func withKey(doc Document, id string) Document {
	if doc == nil {
		doc = Document{}
	}
	if v, ok := doc["id"].(string); !ok || v == "" {
		doc["id"] = id
	}
	return doc
}

// Clone deep-copies a document so callers never share nested maps or slices
// with a backend.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return Clone(t)
	case map[string]any:
		return map[string]any(Clone(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = map[string]any(Clone(e))
		}
		return out
	default:
		return v
	}
}
