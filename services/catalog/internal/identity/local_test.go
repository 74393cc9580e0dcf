package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/anilist/internal/platform/auth"
	"github.com/example/anilist/internal/platform/docstore"
)

func newLocal(t *testing.T) (*LocalProvider, *docstore.MemoryStore) {
	t.Helper()
	store := docstore.NewMemoryStore()
	p, err := NewLocalProvider(store, []byte("test-secret-32-bytes-padded!!!!!"), time.Hour)
	require.NoError(t, err)
	p.cost = bcrypt.MinCost
	return p, store
}

func TestNewLocalProviderRequiresSecret(t *testing.T) {
	_, err := NewLocalProvider(docstore.NewMemoryStore(), nil, time.Hour)
	assert.Error(t, err)
}

func TestLocalRegisterLoginVerify(t *testing.T) {
	ctx := context.Background()
	p, store := newLocal(t)

	acct, err := p.Register(ctx, "  Reader@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", acct.Email)
	assert.NotEmpty(t, acct.UserID)

	doc, err := store.Get(ctx, UsersCollection, "reader@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", doc["passwordHash"])

	s, err := p.Login(ctx, "READER@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, s.IDToken)
	assert.Equal(t, int64(3600), s.ExpiresIn)
	assert.Equal(t, acct.UserID, s.UserID)

	ids, err := p.Verify(ctx, s.IDToken)
	require.NoError(t, err)
	assert.Equal(t, []auth.Identity{{UserID: acct.UserID, Email: "reader@example.com"}}, ids)
}

func TestLocalRegisterErrors(t *testing.T) {
	ctx := context.Background()
	p, _ := newLocal(t)

	_, err := p.Register(ctx, "not-an-email", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = p.Register(ctx, "a@b.com", "12345")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = p.Register(ctx, "a@b.com", "123456")
	require.NoError(t, err)
	_, err = p.Register(ctx, "A@B.com", "654321")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLocalLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	p, _ := newLocal(t)
	_, err := p.Register(ctx, "a@b.com", "correct-horse")
	require.NoError(t, err)

	_, err = p.Login(ctx, "a@b.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.Login(ctx, "nobody@b.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocalVerifyRejections(t *testing.T) {
	ctx := context.Background()
	p, store := newLocal(t)
	_, err := p.Register(ctx, "a@b.com", "correct-horse")
	require.NoError(t, err)
	s, err := p.Login(ctx, "a@b.com", "correct-horse")
	require.NoError(t, err)

	_, err = p.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, auth.ErrTokenRejected)

	other, _ := newLocal(t)
	other.secret = []byte("another-secret")
	_, err = other.Verify(ctx, s.IDToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = p.Verify(ctx, s.IDToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	p.now = time.Now

	_, err = store.Delete(ctx, UsersCollection, "a@b.com")
	require.NoError(t, err)
	ids, err := p.Verify(ctx, s.IDToken)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
