package media

import "time"

// Media is an anime or manga title. Reviews are never stored with it; they
// are joined in at read time.
type Media struct {
	ID          string
	Title       string
	Description string
	ReleaseDate *time.Time
	Units       int
	Genres      []Genre
	Rating      float64
	Reviews     []Review
}

type Genre struct {
	ID   string
	Name string
}

// Review belongs to one Media through MediaID. Only Content and Rating change
// after creation.
type Review struct {
	ID      string
	MediaID string
	Author  string
	Content string
	Rating  float64
	Date    string
}

// ReviewPatch carries the fields a review update may touch; nil leaves a
// field as it is.
type ReviewPatch struct {
	Content *string
	Rating  *float64
}
