package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/anilist/internal/platform/auth"
	"github.com/example/anilist/internal/platform/docstore"
)

const (
	UsersCollection   = "identity_users"
	MinPasswordLength = 6
	localIssuer       = "anilist-local"
)

// LocalProvider is a self contained provider for development and tests.
// Accounts live in the docstore keyed by lower-cased email and id tokens are
// HS256 JWTs.
type LocalProvider struct {
	store  docstore.Store
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

type localClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func NewLocalProvider(store docstore.Store, secret []byte, ttl time.Duration) (*LocalProvider, error) {
	if len(secret) == 0 {
		return nil, errors.New("LOCAL_IDENTITY_SECRET is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LocalProvider{store: store, secret: secret, ttl: ttl, cost: bcrypt.DefaultCost, now: time.Now}, nil
}

func (p *LocalProvider) Register(ctx context.Context, email, password string) (Account, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Account{}, err
	}
	if len(password) < MinPasswordLength {
		return Account{}, ErrWeakPassword
	}

	_, err = p.store.Get(ctx, UsersCollection, email)
	if err == nil {
		return Account{}, ErrEmailExists
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return Account{}, fmt.Errorf("identity: register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return Account{}, fmt.Errorf("identity: hash password: %w", err)
	}
	acct := Account{UserID: uuid.NewString(), Email: email}
	err = p.store.Put(ctx, UsersCollection, email, docstore.Document{
		"id":           acct.UserID,
		"email":        email,
		"passwordHash": string(hash),
		"createdAt":    p.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Account{}, fmt.Errorf("identity: register: %w", err)
	}
	return acct, nil
}

func (p *LocalProvider) Login(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	doc, err := p.store.Get(ctx, UsersCollection, email)
	if errors.Is(err, docstore.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("identity: login: %w", err)
	}
	hash, _ := doc["passwordHash"].(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}

	userID, _ := doc["id"].(string)
	token, err := p.newToken(userID, email)
	if err != nil {
		return Session{}, err
	}
	return Session{IDToken: token, ExpiresIn: int64(p.ttl / time.Second), UserID: userID, Email: email}, nil
}

// Verify returns no identities when the token is valid but its account is
// gone, the same answer the remote lookup gives.
func (p *LocalProvider) Verify(ctx context.Context, token string) ([]auth.Identity, error) {
	claims, err := p.parseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	doc, err := p.store.Get(ctx, UsersCollection, claims.Email)
	if errors.Is(err, docstore.ErrNotFound) {
		return []auth.Identity{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("identity: lookup: %w", err)
	}
	if id, _ := doc["id"].(string); id != claims.Subject {
		return []auth.Identity{}, nil
	}
	return []auth.Identity{{UserID: claims.Subject, Email: claims.Email}}, nil
}

func (p *LocalProvider) newToken(userID, email string) (string, error) {
	now := p.now().UTC()
	claims := localClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    localIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
		Email: email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("identity: sign token: %w", err)
	}
	return signed, nil
}

func (p *LocalProvider) parseToken(token string) (*localClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &localClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	}, jwt.WithIssuer(localIssuer), jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*localClaims)
	if !ok || !parsed.Valid || claims.Email == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

var _ Provider = (*LocalProvider)(nil)
