package media

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/anilist/internal/platform/docstore"
)

func TestKindsAreStructurallyIdentical(t *testing.T) {
	assert.Equal(t, "animes", Anime.Path())
	assert.Equal(t, "mangas", Manga.Path())
	assert.Equal(t, "episodes", Anime.UnitField)
	assert.Equal(t, "chapters", Manga.UnitField)
	assert.Equal(t, []Kind{Anime, Manga}, Kinds())
}

func TestMediaDocumentRoundTrip(t *testing.T) {
	released := time.Date(2023, 9, 29, 10, 30, 0, 0, time.UTC)
	m := Media{
		ID:          "a1",
		Title:       "Frieren",
		Description: "after the journey",
		ReleaseDate: &released,
		Units:       28,
		Genres:      []Genre{{ID: "g1", Name: "Fantasy"}},
		Rating:      9.1,
		Reviews:     []Review{{ID: "r1", MediaID: "a1"}},
	}

	doc := Anime.MediaDocument(m)
	assert.Equal(t, "2023-09-29T10:30:00Z", doc["releaseDate"])
	assert.Equal(t, 28, doc["episodes"])
	_, hasReviews := doc["reviews"]
	assert.False(t, hasReviews, "reviews must not be stored")
	_, hasChapters := doc["chapters"]
	assert.False(t, hasChapters)

	got, err := Anime.MediaFromDocument(doc)
	require.NoError(t, err)
	m.Reviews = nil
	assert.Equal(t, m, got)
}

func TestMediaFromDocumentAcceptsBackendNumbers(t *testing.T) {
	for name, units := range map[string]any{
		"int":         12,
		"int32":       int32(12),
		"int64":       int64(12),
		"float64":     12.0,
		"json.Number": json.Number("12"),
	} {
		t.Run(name, func(t *testing.T) {
			m, err := Manga.MediaFromDocument(docstore.Document{"title": "Berserk", "chapters": units, "rating": json.Number("4.5")})
			require.NoError(t, err)
			assert.Equal(t, 12, m.Units)
			assert.Equal(t, 4.5, m.Rating)
		})
	}
}

func TestMediaFromDocumentDefaults(t *testing.T) {
	m, err := Anime.MediaFromDocument(docstore.Document{"title": "X"})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Units)
	assert.Equal(t, 0.0, m.Rating)
	assert.Nil(t, m.ReleaseDate)
	assert.Equal(t, []Genre{}, m.Genres)
}

func TestMediaFromDocumentIgnoresClientReviews(t *testing.T) {
	m, err := Anime.MediaFromDocument(docstore.Document{
		"title":   "X",
		"reviews": []any{map[string]any{"id": "forged"}},
	})
	require.NoError(t, err)
	assert.Nil(t, m.Reviews)
}

func TestMediaFromDocumentFieldErrors(t *testing.T) {
	cases := map[string]struct {
		doc   docstore.Document
		field string
	}{
		"title not string":   {docstore.Document{"title": 3}, "title"},
		"fractional units":   {docstore.Document{"episodes": 1.5}, "episodes"},
		"units not number":   {docstore.Document{"episodes": "twelve"}, "episodes"},
		"bad release date":   {docstore.Document{"releaseDate": "yesterday"}, "releaseDate"},
		"genres not list":    {docstore.Document{"genres": "Drama"}, "genres"},
		"genre not object":   {docstore.Document{"genres": []any{"Drama"}}, "genres[0]"},
		"genre name invalid": {docstore.Document{"genres": []any{map[string]any{"name": 1}}}, "genres[0].name"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Anime.MediaFromDocument(tc.doc)
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tc.field, fe.Field)
		})
	}
}

func TestMediaViewAddsReviews(t *testing.T) {
	view := Manga.MediaView(Media{ID: "m1", Title: "Vagabond"})
	assert.Equal(t, []any{}, view["reviews"])

	view = Manga.MediaView(Media{ID: "m1", Reviews: []Review{{ID: "r1", MediaID: "m1", Author: "a@b.com"}}})
	reviews := view["reviews"].([]any)
	require.Len(t, reviews, 1)
	assert.Equal(t, "m1", reviews[0].(map[string]any)["mangaId"])
}

func TestReviewDocumentUsesKindForeignKey(t *testing.T) {
	r := Review{ID: "r1", MediaID: "a1", Author: "a@b.com", Content: "good", Rating: 4.5, Date: "2024-01-01T00:00:00Z"}

	doc := Anime.ReviewDocument(r)
	assert.Equal(t, "a1", doc["animeId"])
	assert.Equal(t, "a@b.com", doc["userEmail"])

	got, err := Anime.ReviewFromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	fromManga, err := Manga.ReviewFromDocument(doc)
	require.NoError(t, err)
	assert.Empty(t, fromManga.MediaID)
}

func TestReviewPatchFromDocument(t *testing.T) {
	p, err := ReviewPatchFromDocument(docstore.Document{
		"content":   "better",
		"rating":    json.Number("5"),
		"userEmail": "hijack@example.com",
		"animeId":   "other",
	})
	require.NoError(t, err)
	require.NotNil(t, p.Content)
	require.NotNil(t, p.Rating)
	assert.Equal(t, docstore.Document{"content": "better", "rating": 5.0}, p.Document())

	p, err = ReviewPatchFromDocument(docstore.Document{"rating": 2})
	require.NoError(t, err)
	assert.Nil(t, p.Content)
	assert.Equal(t, docstore.Document{"rating": 2.0}, p.Document())

	_, err = ReviewPatchFromDocument(docstore.Document{"content": false})
	assert.Error(t, err)
}

func TestGenreRoundTrip(t *testing.T) {
	g := Genre{ID: "g1", Name: "Mecha"}
	got, err := GenreFromDocument(GenreDocument(g))
	require.NoError(t, err)
	assert.Equal(t, g, got)
}
