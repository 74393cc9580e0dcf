package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/example/anilist/internal/platform/api"
	"github.com/example/anilist/internal/platform/httpserver"
	"github.com/example/anilist/services/catalog/internal/identity"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c credentialsRequest) missing() map[string]any {
	details := map[string]any{}
	if strings.TrimSpace(c.Email) == "" {
		details["email"] = "is required"
	}
	if c.Password == "" {
		details["password"] = "is required"
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// Login handles POST /auth/login
func Login(p identity.Provider, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req credentialsRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		if details := req.missing(); details != nil {
			api.BadRequest(w, "VALIDATION_FAILED", "email and password are required", rid, details)
			return
		}

		session, err := p.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
		switch {
		case err == nil:
			api.WriteJSON(w, http.StatusOK, session)
		case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrInvalidEmail):
			api.Unauthorized(w, "INVALID_CREDENTIALS", "invalid email or password", rid)
		default:
			log.Error("login failed", zap.String("request_id", rid), zap.Error(err))
			api.Internal(w, rid)
		}
	}
}

// Register handles POST /auth/register
func Register(p identity.Provider, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req credentialsRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		if details := req.missing(); details != nil {
			api.BadRequest(w, "VALIDATION_FAILED", "email and password are required", rid, details)
			return
		}

		acct, err := p.Register(r.Context(), strings.TrimSpace(req.Email), req.Password)
		switch {
		case err == nil:
			api.WriteJSON(w, http.StatusCreated, acct)
		case errors.Is(err, identity.ErrEmailExists):
			api.Conflict(w, "EMAIL_EXISTS", "email already registered", rid, nil)
		case errors.Is(err, identity.ErrWeakPassword):
			api.BadRequest(w, "WEAK_PASSWORD", "password must be at least 6 characters", rid, nil)
		case errors.Is(err, identity.ErrInvalidEmail):
			api.BadRequest(w, "INVALID_EMAIL", "invalid email", rid, nil)
		default:
			log.Error("register failed", zap.String("request_id", rid), zap.Error(err))
			api.Internal(w, rid)
		}
	}
}
