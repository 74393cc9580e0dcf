package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/anilist/internal/platform/auth"
)

const DefaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

// Client calls the identity toolkit REST API with an API key.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type tokenResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
	} `json:"users"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ProviderError is a non-success answer the client could not map to one of
// the identity sentinels.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity: status %d: %s", e.Status, e.Message)
}

func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var out tokenResponse
	err := c.call(ctx, "accounts:signInWithPassword", passwordRequest{Email: email, Password: password, ReturnSecureToken: true}, &out)
	if err != nil {
		return Session{}, err
	}
	expiresIn, _ := strconv.ParseInt(out.ExpiresIn, 10, 64)
	return Session{
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    expiresIn,
		UserID:       out.LocalID,
		Email:        out.Email,
	}, nil
}

func (c *Client) Register(ctx context.Context, email, password string) (Account, error) {
	var out tokenResponse
	err := c.call(ctx, "accounts:signUp", passwordRequest{Email: email, Password: password, ReturnSecureToken: true}, &out)
	if err != nil {
		return Account{}, err
	}
	return Account{UserID: out.LocalID, Email: out.Email}, nil
}

// Verify looks the token up and returns the matching accounts. A token the
// provider refuses yields ErrInvalidToken; transport and decode failures are
// returned as they are.
func (c *Client) Verify(ctx context.Context, token string) ([]auth.Identity, error) {
	var out lookupResponse
	if err := c.call(ctx, "accounts:lookup", lookupRequest{IDToken: token}, &out); err != nil {
		return nil, err
	}
	ids := make([]auth.Identity, 0, len(out.Users))
	for _, u := range out.Users {
		ids = append(ids, auth.Identity{UserID: u.LocalID, Email: u.Email})
	}
	return ids, nil
}

func (c *Client) call(ctx context.Context, method string, in, out any) error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("identity: api key not configured")
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	u := c.BaseURL + "/" + method + "?key=" + url.QueryEscape(c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "anilist-catalog/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity: %s: %w", method, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("identity: %s: read body: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return mapProviderError(resp.StatusCode, b)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("identity: %s: decode error: %w body=%q", method, err, string(b[:min(len(b), 200)]))
	}
	return nil
}

// mapProviderError turns the provider's error message, e.g.
// "WEAK_PASSWORD : Password should be at least 6 characters", into a
// sentinel.
func mapProviderError(status int, body []byte) error {
	var er errorResponse
	_ = json.Unmarshal(body, &er)
	msg := strings.TrimSpace(er.Error.Message)
	code := msg
	if i := strings.IndexAny(code, " :"); i >= 0 {
		code = code[:i]
	}

	switch code {
	case "EMAIL_EXISTS":
		return ErrEmailExists
	case "WEAK_PASSWORD":
		return ErrWeakPassword
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return ErrInvalidEmail
	case "INVALID_PASSWORD", "EMAIL_NOT_FOUND", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED", "MISSING_PASSWORD":
		return ErrInvalidCredentials
	case "INVALID_ID_TOKEN", "USER_NOT_FOUND", "TOKEN_EXPIRED", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return ErrInvalidToken
	}
	if msg == "" {
		msg = string(body[:min(len(body), 200)])
	}
	return &ProviderError{Status: status, Message: msg}
}

var _ Provider = (*Client)(nil)
