package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each collection in one hash, "<prefix>:<collection>",
// whose fields are document ids holding JSON bodies.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func OpenRedis(ctx context.Context, url, prefix string) (*RedisStore, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	s := NewRedisStore(redis.NewClient(opts), prefix)
	if err := s.Ping(ctx); err != nil {
		_ = s.client.Close()
		return nil, fmt.Errorf("docstore redis ping: %w", err)
	}
	return s, nil
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "anilist"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(collection string) string {
	return s.prefix + ":" + collection
}

func (s *RedisStore) Get(ctx context.Context, collection, id string) (Document, error) {
	val, err := s.client.HGet(ctx, s.key(collection), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docstore redis get %s: %w", collection, err)
	}
	doc, err := decodeJSONDocument([]byte(val))
	if err != nil {
		return nil, err
	}
	return withKey(doc, id), nil
}

func (s *RedisStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	all, err := s.client.HGetAll(ctx, s.key(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("docstore redis get all %s: %w", collection, err)
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		doc, err := decodeJSONDocument([]byte(all[id]))
		if err != nil {
			return nil, err
		}
		out = append(out, withKey(doc, id))
	}
	return out, nil
}

func (s *RedisStore) Put(ctx context.Context, collection, id string, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore redis put %s: %w", collection, err)
	}
	if err := s.client.HSet(ctx, s.key(collection), id, body).Err(); err != nil {
		return fmt.Errorf("docstore redis put %s: %w", collection, err)
	}
	return nil
}

// UpdatePartial merges under WATCH so a concurrent writer to the same hash
// forces a retry instead of a lost update.
func (s *RedisStore) UpdatePartial(ctx context.Context, collection, id string, fields Document) error {
	key := s.key(collection)
	txf := func(tx *redis.Tx) error {
		val, err := tx.HGet(ctx, key, id).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		doc, err := decodeJSONDocument([]byte(val))
		if err != nil {
			return err
		}
		for k, v := range fields {
			doc[k] = v
		}
		body, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, body)
			return nil
		})
		return err
	}

	return updateError(collection, s.client.Watch(ctx, txf, key))
}

// updateError maps the outcome of one WATCH attempt. A concurrent write to
// the collection hash fails the attempt with redis.TxFailedErr; it is not
// retried here.
func updateError(collection string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("docstore redis update %s: %w", collection, err)
	}
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) (bool, error) {
	n, err := s.client.HDel(ctx, s.key(collection), id).Result()
	if err != nil {
		return false, fmt.Errorf("docstore redis delete %s: %w", collection, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close(context.Context) error {
	return s.client.Close()
}
