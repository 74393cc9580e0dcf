// Package media defines the catalog entities and how they map to store
// documents. Anime and manga share one model; a Kind carries the only
// differences between them.
package media

// Kind is the per-domain configuration: its collection names, the name of
// its unit count field and the review foreign key.
type Kind struct {
	Name             string
	MediaCollection  string
	GenreCollection  string
	ReviewCollection string
	UnitField        string
	ForeignKey       string
}

var (
	Anime = Kind{
		Name:             "anime",
		MediaCollection:  "animes",
		GenreCollection:  "anime_genres",
		ReviewCollection: "anime_reviews",
		UnitField:        "episodes",
		ForeignKey:       "animeId",
	}
	Manga = Kind{
		Name:             "manga",
		MediaCollection:  "mangas",
		GenreCollection:  "manga_genres",
		ReviewCollection: "manga_reviews",
		UnitField:        "chapters",
		ForeignKey:       "mangaId",
	}
)

// Sub-resource segments under a kind's path. A media id may not equal one of
// them or it would be shadowed by the static routes.
const (
	GenresSegment  = "genres"
	ReviewsSegment = "reviews"
)

// ReservedID reports whether id cannot address a single media item by path.
func ReservedID(id string) bool {
	return id == GenresSegment || id == ReviewsSegment
}

// Kinds lists every served kind in route order.
func Kinds() []Kind {
	return []Kind{Anime, Manga}
}

// Path is the plural route segment, e.g. "animes".
func (k Kind) Path() string {
	return k.Name + "s"
}
