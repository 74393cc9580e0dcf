package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/example/anilist/internal/platform/docstore"
)

// TimeLayout is how release dates and review dates are written.
const TimeLayout = time.RFC3339

// FieldError reports a document field with an unusable value.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// MediaDocument is the stored form. It never carries reviews.
func (k Kind) MediaDocument(m Media) docstore.Document {
	genres := make([]any, 0, len(m.Genres))
	for _, g := range m.Genres {
		genres = append(genres, map[string]any(GenreDocument(g)))
	}
	doc := docstore.Document{
		"id":          m.ID,
		"title":       m.Title,
		"description": m.Description,
		k.UnitField:   m.Units,
		"genres":      genres,
		"rating":      m.Rating,
	}
	if m.ReleaseDate != nil {
		doc["releaseDate"] = m.ReleaseDate.UTC().Format(TimeLayout)
	} else {
		doc["releaseDate"] = nil
	}
	return doc
}

// MediaView is the wire form: the stored document plus the joined reviews.
func (k Kind) MediaView(m Media) map[string]any {
	view := map[string]any(k.MediaDocument(m))
	reviews := make([]any, 0, len(m.Reviews))
	for _, r := range m.Reviews {
		reviews = append(reviews, map[string]any(k.ReviewDocument(r)))
	}
	view["reviews"] = reviews
	return view
}

// MediaFromDocument decodes a stored or client supplied document. Any
// "reviews" key is ignored.
func (k Kind) MediaFromDocument(doc docstore.Document) (Media, error) {
	var (
		m   Media
		err error
	)
	if m.ID, err = stringField(doc, "id"); err != nil {
		return Media{}, err
	}
	if m.Title, err = stringField(doc, "title"); err != nil {
		return Media{}, err
	}
	if m.Description, err = stringField(doc, "description"); err != nil {
		return Media{}, err
	}
	if m.ReleaseDate, err = timeField(doc, "releaseDate"); err != nil {
		return Media{}, err
	}
	if m.Units, err = intField(doc, k.UnitField); err != nil {
		return Media{}, err
	}
	if m.Rating, err = floatField(doc, "rating"); err != nil {
		return Media{}, err
	}
	if m.Genres, err = genresField(doc, "genres"); err != nil {
		return Media{}, err
	}
	return m, nil
}

func GenreDocument(g Genre) docstore.Document {
	return docstore.Document{"id": g.ID, "name": g.Name}
}

func GenreFromDocument(doc docstore.Document) (Genre, error) {
	var (
		g   Genre
		err error
	)
	if g.ID, err = stringField(doc, "id"); err != nil {
		return Genre{}, err
	}
	if g.Name, err = stringField(doc, "name"); err != nil {
		return Genre{}, err
	}
	return g, nil
}

func (k Kind) ReviewDocument(r Review) docstore.Document {
	return docstore.Document{
		"id":         r.ID,
		k.ForeignKey: r.MediaID,
		"userEmail":  r.Author,
		"content":    r.Content,
		"rating":     r.Rating,
		"date":       r.Date,
	}
}

func (k Kind) ReviewFromDocument(doc docstore.Document) (Review, error) {
	var (
		r   Review
		err error
	)
	if r.ID, err = stringField(doc, "id"); err != nil {
		return Review{}, err
	}
	if r.MediaID, err = stringField(doc, k.ForeignKey); err != nil {
		return Review{}, err
	}
	if r.Author, err = stringField(doc, "userEmail"); err != nil {
		return Review{}, err
	}
	if r.Content, err = stringField(doc, "content"); err != nil {
		return Review{}, err
	}
	if r.Rating, err = floatField(doc, "rating"); err != nil {
		return Review{}, err
	}
	if r.Date, err = stringField(doc, "date"); err != nil {
		return Review{}, err
	}
	return r, nil
}

// ReviewPatchFromDocument picks content and rating out of doc and ignores
// every other key.
func ReviewPatchFromDocument(doc docstore.Document) (ReviewPatch, error) {
	var p ReviewPatch
	if v, ok := doc["content"]; ok && v != nil {
		s, err := stringField(doc, "content")
		if err != nil {
			return ReviewPatch{}, err
		}
		p.Content = &s
	}
	if v, ok := doc["rating"]; ok && v != nil {
		f, err := floatField(doc, "rating")
		if err != nil {
			return ReviewPatch{}, err
		}
		p.Rating = &f
	}
	return p, nil
}

// Document returns the store fields the patch sets.
func (p ReviewPatch) Document() docstore.Document {
	doc := docstore.Document{}
	if p.Content != nil {
		doc["content"] = *p.Content
	}
	if p.Rating != nil {
		doc["rating"] = *p.Rating
	}
	return doc
}

func stringField(doc docstore.Document, key string) (string, error) {
	switch v := doc[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", &FieldError{Field: key, Reason: "must be a string"}
	}
}

func floatField(doc docstore.Document, key string) (float64, error) {
	f, ok, err := number(doc[key])
	if err != nil || (!ok && doc[key] != nil) {
		return 0, &FieldError{Field: key, Reason: "must be a number"}
	}
	return f, nil
}

func intField(doc docstore.Document, key string) (int, error) {
	f, ok, err := number(doc[key])
	if err != nil || (!ok && doc[key] != nil) {
		return 0, &FieldError{Field: key, Reason: "must be an integer"}
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, &FieldError{Field: key, Reason: "must be an integer"}
	}
	return int(f), nil
}

// number accepts every numeric shape the store backends and encoding/json
// produce. ok is false for nil and non-numeric values.
func number(v any) (f float64, ok bool, err error) {
	switch n := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return n, true, nil
	case float32:
		return float64(n), true, nil
	case int:
		return float64(n), true, nil
	case int32:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case json.Number:
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return 0, false, err
		}
		return f, true, nil
	default:
		return 0, false, nil
	}
}

func timeField(doc docstore.Document, key string) (*time.Time, error) {
	switch v := doc[key].(type) {
	case nil:
		return nil, nil
	case time.Time:
		t := v.UTC()
		return &t, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		t, err := time.Parse(TimeLayout, v)
		if err != nil {
			return nil, &FieldError{Field: key, Reason: "must be an RFC 3339 timestamp"}
		}
		t = t.UTC()
		return &t, nil
	default:
		return nil, &FieldError{Field: key, Reason: "must be an RFC 3339 timestamp"}
	}
}

func genresField(doc docstore.Document, key string) ([]Genre, error) {
	var items []any
	switch v := doc[key].(type) {
	case nil:
		return []Genre{}, nil
	case []any:
		items = v
	case []map[string]any:
		for _, e := range v {
			items = append(items, e)
		}
	default:
		return nil, &FieldError{Field: key, Reason: "must be a list of genres"}
	}

	genres := make([]Genre, 0, len(items))
	for i, item := range items {
		var sub docstore.Document
		switch e := item.(type) {
		case map[string]any:
			sub = e
		case docstore.Document:
			sub = e
		default:
			return nil, &FieldError{Field: fmt.Sprintf("%s[%d]", key, i), Reason: "must be an object"}
		}
		g, err := GenreFromDocument(sub)
		if err != nil {
			var fe *FieldError
			if errors.As(err, &fe) {
				fe.Field = fmt.Sprintf("%s[%d].%s", key, i, fe.Field)
			}
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, nil
}
