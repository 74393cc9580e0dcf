package catalog

import (
	"strconv"
	"strings"

	"github.com/example/anilist/services/catalog/internal/media"
)

func validateMedia(k media.Kind, m media.Media) error {
	fields := map[string]string{}
	if strings.TrimSpace(m.Title) == "" {
		fields["title"] = "is required"
	}
	if m.Units < 0 {
		fields[k.UnitField] = "must not be negative"
	}
	if m.Rating < 0 {
		fields["rating"] = "must not be negative"
	}
	for i, g := range m.Genres {
		if strings.TrimSpace(g.Name) == "" {
			fields["genres["+strconv.Itoa(i)+"].name"] = "is required"
		}
	}
	return fieldsError(fields)
}

// validateNewID checks a client supplied id on create. Ids must fit in one
// path segment, and media ids must not shadow the genre and review routes.
func validateNewID(id string, isMedia bool) error {
	switch {
	case id == "":
		return nil
	case strings.TrimSpace(id) != id || strings.ContainsAny(id, "/?#"):
		return fieldsError(map[string]string{"id": "must be a single path segment"})
	case isMedia && media.ReservedID(id):
		return fieldsError(map[string]string{"id": "is reserved"})
	}
	return nil
}

func validateGenre(g media.Genre) error {
	fields := map[string]string{}
	if strings.TrimSpace(g.Name) == "" {
		fields["name"] = "is required"
	}
	return fieldsError(fields)
}

func validateReview(k media.Kind, r media.Review) error {
	fields := map[string]string{}
	if strings.TrimSpace(r.MediaID) == "" {
		fields[k.ForeignKey] = "is required"
	}
	if strings.TrimSpace(r.Author) == "" {
		fields["userEmail"] = "is required"
	}
	if r.Rating < 0 {
		fields["rating"] = "must not be negative"
	}
	return fieldsError(fields)
}

func fieldsError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
