package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/anilist/internal/platform/auth"
)

func fakeToolkit(t *testing.T, handler func(method string, body map[string]any) (int, any)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		status, out := handler(r.URL.Path[len("/v1/"):], body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/v1", "test-key", time.Second)
}

func providerError(msg string) map[string]any {
	return map[string]any{"error": map[string]any{"code": 400, "message": msg}}
}

func TestClientLogin(t *testing.T) {
	c := fakeToolkit(t, func(method string, body map[string]any) (int, any) {
		assert.Equal(t, "accounts:signInWithPassword", method)
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, true, body["returnSecureToken"])
		return http.StatusOK, map[string]any{
			"idToken": "tok", "refreshToken": "ref", "expiresIn": "3600", "localId": "u1", "email": "a@b.com",
		}
	})

	s, err := c.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, Session{IDToken: "tok", RefreshToken: "ref", ExpiresIn: 3600, UserID: "u1", Email: "a@b.com"}, s)
}

func TestClientLoginErrors(t *testing.T) {
	cases := map[string]error{
		"INVALID_PASSWORD":          ErrInvalidCredentials,
		"EMAIL_NOT_FOUND":           ErrInvalidCredentials,
		"INVALID_LOGIN_CREDENTIALS": ErrInvalidCredentials,
		"INVALID_EMAIL":             ErrInvalidEmail,
	}
	for msg, want := range cases {
		t.Run(msg, func(t *testing.T) {
			c := fakeToolkit(t, func(string, map[string]any) (int, any) {
				return http.StatusBadRequest, providerError(msg)
			})
			_, err := c.Login(context.Background(), "a@b.com", "x")
			assert.ErrorIs(t, err, want)
		})
	}
}

func TestClientRegister(t *testing.T) {
	c := fakeToolkit(t, func(method string, body map[string]any) (int, any) {
		assert.Equal(t, "accounts:signUp", method)
		return http.StatusOK, map[string]any{"localId": "u9", "email": body["email"], "idToken": "t"}
	})
	acct, err := c.Register(context.Background(), "new@b.com", "longenough")
	require.NoError(t, err)
	assert.Equal(t, Account{UserID: "u9", Email: "new@b.com"}, acct)
}

func TestClientRegisterErrors(t *testing.T) {
	for msg, want := range map[string]error{
		"EMAIL_EXISTS": ErrEmailExists,
		"WEAK_PASSWORD : Password should be at least 6 characters": ErrWeakPassword,
	} {
		t.Run(msg, func(t *testing.T) {
			c := fakeToolkit(t, func(string, map[string]any) (int, any) {
				return http.StatusBadRequest, providerError(msg)
			})
			_, err := c.Register(context.Background(), "a@b.com", "x")
			assert.ErrorIs(t, err, want)
		})
	}
}

func TestClientVerify(t *testing.T) {
	c := fakeToolkit(t, func(method string, body map[string]any) (int, any) {
		assert.Equal(t, "accounts:lookup", method)
		assert.Equal(t, "tok", body["idToken"])
		return http.StatusOK, map[string]any{"users": []any{map[string]any{"localId": "u1", "email": "a@b.com"}}}
	})
	ids, err := c.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, []auth.Identity{{UserID: "u1", Email: "a@b.com"}}, ids)
}

func TestClientVerifyZeroUsers(t *testing.T) {
	c := fakeToolkit(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, map[string]any{}
	})
	ids, err := c.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestClientVerifyInvalidTokenIsRejection(t *testing.T) {
	c := fakeToolkit(t, func(string, map[string]any) (int, any) {
		return http.StatusBadRequest, providerError("INVALID_ID_TOKEN")
	})
	_, err := c.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, auth.ErrTokenRejected)
}

func TestClientUpstreamFailuresAreNotRejections(t *testing.T) {
	c := fakeToolkit(t, func(string, map[string]any) (int, any) {
		return http.StatusServiceUnavailable, providerError("BACKEND_UNAVAILABLE")
	})
	_, err := c.Verify(context.Background(), "tok")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusServiceUnavailable, pe.Status)
	assert.False(t, errors.Is(err, auth.ErrTokenRejected))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()
	_, err = NewClient(srv.URL, "k", time.Second).Verify(context.Background(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode error")
	assert.False(t, errors.Is(err, auth.ErrTokenRejected))

	srv.Close()
	_, err = NewClient(srv.URL, "k", time.Second).Verify(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, auth.ErrTokenRejected))
}

func TestClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("", "", 0).Login(context.Background(), "a@b.com", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", "k", 0)
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, 10*time.Second, c.HTTPClient.Timeout)
}
