package docstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "animes", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorePutReplacesWholeDocument(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "animes", "a1", Document{"title": "Mushishi", "episodes": 26}))
	require.NoError(t, s.Put(ctx, "animes", "a1", Document{"title": "Mushishi Zoku Shou"}))

	got, err := s.Get(ctx, "animes", "a1")
	require.NoError(t, err)
	assert.Equal(t, Document{"id": "a1", "title": "Mushishi Zoku Shou"}, got)
}

func TestMemoryStoreFillsMissingIDFromKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, "animes", "a1", Document{"title": "Haibane Renmei"}))
	require.NoError(t, s.Put(ctx, "animes", "a2", Document{"id": "", "title": "Kino"}))
	require.NoError(t, s.Put(ctx, "animes", "a3", Document{"id": "kept", "title": "Ergo Proxy"}))

	got, err := s.Get(ctx, "animes", "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got["id"])

	all, err := s.GetAll(ctx, "animes")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a1", all[0]["id"])
	assert.Equal(t, "a2", all[1]["id"])
	assert.Equal(t, "kept", all[2]["id"])
}

func TestMemoryStoreGetAllOrderedAndScoped(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, "animes", "b", Document{"id": "b"}))
	require.NoError(t, s.Put(ctx, "animes", "a", Document{"id": "a"}))
	require.NoError(t, s.Put(ctx, "mangas", "c", Document{"id": "c"}))

	got, err := s.GetAll(ctx, "animes")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0]["id"])
	assert.Equal(t, "b", got[1]["id"])

	empty, err := s.GetAll(ctx, "anime_reviews")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMemoryStoreUpdatePartial(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, "anime_reviews", "r1", Document{
		"id": "r1", "animeId": "a1", "userEmail": "u@example.com", "content": "ok", "rating": 3.0,
	}))

	require.NoError(t, s.UpdatePartial(ctx, "anime_reviews", "r1", Document{"content": "great", "rating": 5.0}))

	got, err := s.Get(ctx, "anime_reviews", "r1")
	require.NoError(t, err)
	assert.Equal(t, "great", got["content"])
	assert.Equal(t, 5.0, got["rating"])
	assert.Equal(t, "a1", got["animeId"])
	assert.Equal(t, "u@example.com", got["userEmail"])

	err = s.UpdatePartial(ctx, "anime_reviews", "missing", Document{"content": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "anime_reviews", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDeleteReportsExistence(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, "manga_genres", "g1", Document{"name": "Seinen"}))

	ok, err := s.Delete(ctx, "manga_genres", "g1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Delete(ctx, "manga_genres", "g1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreIsolatesCallerMutations(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	in := Document{"genres": []any{map[string]any{"id": "g1", "name": "Drama"}}}
	require.NoError(t, s.Put(ctx, "animes", "a1", in))

	in["genres"].([]any)[0].(map[string]any)["name"] = "mutated"

	got, err := s.Get(ctx, "animes", "a1")
	require.NoError(t, err)
	genre := got["genres"].([]any)[0].(map[string]any)
	assert.Equal(t, "Drama", genre["name"])

	genre["name"] = "mutated again"
	again, err := s.Get(ctx, "animes", "a1")
	require.NoError(t, err)
	assert.Equal(t, "Drama", again["genres"].([]any)[0].(map[string]any)["name"])
}

func TestMemoryStoreConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("m%02d", i)
			_ = s.Put(ctx, "mangas", id, Document{"id": id})
			_, _ = s.GetAll(ctx, "mangas")
		}(i)
	}
	wg.Wait()

	all, err := s.GetAll(ctx, "mangas")
	require.NoError(t, err)
	assert.Len(t, all, 50)
}
