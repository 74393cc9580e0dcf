package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/anilist/internal/platform/db"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	body JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
)`

// PostgresStore keeps every collection in one jsonb table keyed by
// (collection, id).
type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string, opts db.Options) (*PostgresStore, error) {
	pool, err := db.Open(ctx, dsn, opts)
	if err != nil {
		return nil, fmt.Errorf("docstore postgres open: %w", err)
	}
	s := NewPostgresStore(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, documentsSchema); err != nil {
		return fmt.Errorf("docstore postgres schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docstore postgres get %s: %w", collection, err)
	}
	doc, err := decodeJSONDocument(body)
	if err != nil {
		return nil, err
	}
	return withKey(doc, id), nil
}

func (s *PostgresStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, body FROM documents WHERE collection = $1 ORDER BY id`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("docstore postgres get all %s: %w", collection, err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("docstore postgres get all %s: %w", collection, err)
		}
		doc, err := decodeJSONDocument(body)
		if err != nil {
			return nil, err
		}
		out = append(out, withKey(doc, id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore postgres get all %s: %w", collection, err)
	}
	return out, nil
}

func (s *PostgresStore) Put(ctx context.Context, collection, id string, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore postgres put %s: %w", collection, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (collection, id, body)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE
		SET body = EXCLUDED.body, updated_at = now()`,
		collection, id, string(body),
	)
	if err != nil {
		return fmt.Errorf("docstore postgres put %s: %w", collection, err)
	}
	return nil
}

func (s *PostgresStore) UpdatePartial(ctx context.Context, collection, id string, fields Document) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("docstore postgres update %s: %w", collection, err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET body = body || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2`,
		collection, id, string(body),
	)
	if err != nil {
		return fmt.Errorf("docstore postgres update %s: %w", collection, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return false, fmt.Errorf("docstore postgres delete %s: %w", collection, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}

// decodeJSONDocument keeps numbers as json.Number so integer fields survive
// the round trip without float rounding.
func decodeJSONDocument(body []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("docstore decode: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}
