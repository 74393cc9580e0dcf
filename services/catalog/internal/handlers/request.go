package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/anilist/internal/platform/api"
	"github.com/example/anilist/internal/platform/docstore"
	"github.com/example/anilist/services/catalog/internal/catalog"
	"github.com/example/anilist/services/catalog/internal/media"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

// decodeDocument reads a JSON object body keeping numbers exact. On failure it
// writes a 400 response and returns false.
func decodeDocument(w http.ResponseWriter, r *http.Request, rid string) (docstore.Document, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	dec.UseNumber()
	var doc docstore.Document
	if err := dec.Decode(&doc); err != nil || doc == nil {
		api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
		return nil, false
	}
	return doc, true
}

// decodeJSON is decodeDocument for fixed shape requests.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, rid string, dst *T) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(dst); err != nil {
		api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, rid string) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		api.BadRequest(w, "MISSING_ID", "id is required", rid, nil)
		return "", false
	}
	return id, true
}

// writeBodyError answers a request body that decoded as JSON but does not
// fit the entity shape. Only call it with errors from decoding the body.
func writeBodyError(w http.ResponseWriter, log *zap.Logger, rid string, err error) {
	var ferr *media.FieldError
	if errors.As(err, &ferr) {
		api.BadRequest(w, "INVALID_FIELD", ferr.Error(), rid, map[string]any{ferr.Field: ferr.Reason})
		return
	}
	writeError(w, log, rid, err)
}

// writeError maps validation failures to 400 and everything else, including
// stored documents that no longer decode, to a logged 500.
func writeError(w http.ResponseWriter, log *zap.Logger, rid string, err error) {
	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		api.ValidationFailed(w, rid, verr.Fields)
		return
	}
	log.Error("request failed", zap.String("request_id", rid), zap.Error(err))
	api.Internal(w, rid)
}
