package api

import (
	"net/http"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func (e APIError) write(w http.ResponseWriter, status int) {
	WriteJSON(w, status, ErrorResponse{Error: e})
}

func WriteError(w http.ResponseWriter, status int, code, message, requestID string, details map[string]any) {
	APIError{Code: code, Message: message, Details: details, RequestID: requestID}.write(w, status)
}

func BadRequest(w http.ResponseWriter, code, message, requestID string, details map[string]any) {
	WriteError(w, http.StatusBadRequest, code, message, requestID, details)
}

// ValidationFailed reports per-field problems as details keyed by field path.
func ValidationFailed(w http.ResponseWriter, requestID string, fields map[string]string) {
	details := make(map[string]any, len(fields))
	for field, reason := range fields {
		details[field] = reason
	}
	BadRequest(w, "VALIDATION_FAILED", "Invalid input", requestID, details)
}

// Unauthorized sets a bearer challenge so clients know which scheme to retry with.
func Unauthorized(w http.ResponseWriter, code, message, requestID string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="anilist"`)
	WriteError(w, http.StatusUnauthorized, code, message, requestID, nil)
}

func NotFound(w http.ResponseWriter, code, message, requestID string) {
	WriteError(w, http.StatusNotFound, code, message, requestID, nil)
}

func Conflict(w http.ResponseWriter, code, message, requestID string, details map[string]any) {
	WriteError(w, http.StatusConflict, code, message, requestID, details)
}

func RateLimited(w http.ResponseWriter, code, message, requestID string, details map[string]any) {
	WriteError(w, http.StatusTooManyRequests, code, message, requestID, details)
}

// Internal hides the cause; callers log it with the request id.
func Internal(w http.ResponseWriter, requestID string) {
	WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error", requestID, nil)
}
