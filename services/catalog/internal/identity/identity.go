// Package identity talks to the identity provider that owns accounts,
// passwords and id tokens. The catalog never stores credentials itself
// unless the local development provider is selected.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/anilist/internal/platform/auth"
)

var (
	ErrEmailExists        = errors.New("identity: email already registered")
	ErrWeakPassword       = errors.New("identity: password too weak")
	ErrInvalidEmail       = errors.New("identity: invalid email")
	ErrInvalidCredentials = errors.New("identity: invalid email or password")
	ErrInvalidToken       = fmt.Errorf("identity: invalid id token: %w", auth.ErrTokenRejected)
)

// Session is the result of a password login.
type Session struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int64  `json:"expiresIn"`
	UserID       string `json:"localId"`
	Email        string `json:"email"`
}

// Account is a newly registered user.
type Account struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
}

type Provider interface {
	Login(ctx context.Context, email, password string) (Session, error)
	Register(ctx context.Context, email, password string) (Account, error)
	auth.Verifier
}
