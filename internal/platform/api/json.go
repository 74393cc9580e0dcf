package api

import (
	"encoding/json"
	"net/http"
)

// WriteJSON encodes v as the response body. Encoding errors are dropped because
// the status line has already been sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
