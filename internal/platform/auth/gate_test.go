package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/anilist/internal/platform/metrics"
)

type stubVerifier struct {
	identities []Identity
	err        error
	calls      atomic.Int32
	lastToken  string
}

func (s *stubVerifier) Verify(_ context.Context, token string) ([]Identity, error) {
	s.calls.Add(1)
	s.lastToken = token
	return s.identities, s.err
}

func TestDecideNoHeader(t *testing.T) {
	v := &stubVerifier{}
	g := NewGate(v, nil, nil)

	p, d := g.Decide(context.Background(), "  ")
	assert.Equal(t, NoCredentials, d)
	assert.Empty(t, p.Email)
	assert.Zero(t, v.calls.Load())
}

func TestDecideMalformedHeaderSkipsVerifier(t *testing.T) {
	for _, h := range []string{"Basic abc", "Bearer", "Bearer   ", "tok"} {
		t.Run(h, func(t *testing.T) {
			v := &stubVerifier{identities: []Identity{{Email: "a@b.com"}}}
			_, d := NewGate(v, nil, nil).Decide(context.Background(), h)
			assert.Equal(t, Rejected, d)
			assert.Zero(t, v.calls.Load())
		})
	}
}

func TestDecideAuthenticated(t *testing.T) {
	v := &stubVerifier{identities: []Identity{{UserID: "u1", Email: "a@b.com"}}}
	p, d := NewGate(v, nil, nil).Decide(context.Background(), "bearer  tok-123 ")
	assert.Equal(t, Authenticated, d)
	assert.Equal(t, "a@b.com", p.Email)
	assert.Equal(t, "tok-123", v.lastToken)
}

func TestDecideRejections(t *testing.T) {
	cases := map[string]*stubVerifier{
		"zero identities": {identities: nil},
		"invalid token":   {err: fmt.Errorf("lookup: %w", ErrTokenRejected)},
		"upstream down":   {err: errors.New("dial tcp: connection refused")},
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			p, d := NewGate(v, nil, nil).Decide(context.Background(), "Bearer tok")
			assert.Equal(t, Rejected, d)
			assert.Empty(t, p.Email)
			assert.EqualValues(t, 1, v.calls.Load())
		})
	}
}

func TestDecideCountsOutcomes(t *testing.T) {
	m := metrics.New()
	ctx := context.Background()

	NewGate(&stubVerifier{err: ErrTokenRejected}, nil, m).Decide(ctx, "Bearer a")
	NewGate(&stubVerifier{err: errors.New("timeout")}, nil, m).Decide(ctx, "Bearer b")
	NewGate(&stubVerifier{identities: []Identity{{Email: "x@y.z"}}}, nil, m).Decide(ctx, "Bearer c")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthDecisions.WithLabelValues(outcomeInvalidToken)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthDecisions.WithLabelValues(outcomeUpstreamError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthDecisions.WithLabelValues(outcomeAuthenticated)))
}

func TestRequireBlocksWithoutPrincipal(t *testing.T) {
	ran := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { ran = true })

	for _, tc := range []struct {
		name   string
		header string
		v      *stubVerifier
	}{
		{"no header", "", &stubVerifier{}},
		{"invalid token", "Bearer bad", &stubVerifier{err: ErrTokenRejected}},
		{"upstream error", "Bearer tok", &stubVerifier{err: errors.New("eof")}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ran = false
			req := httptest.NewRequest(http.MethodPost, "/animes", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			NewGate(tc.v, nil, nil).Require(next).ServeHTTP(rec, req)

			assert.False(t, ran)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			assert.NotContains(t, rec.Body.String(), "eof")
		})
	}
}

func TestRequireAttachesPrincipal(t *testing.T) {
	var got Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		got = p
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodDelete, "/mangas/1", nil)
	req.Header.Set("Authorization", "Bearer ok")
	rec := httptest.NewRecorder()
	NewGate(&stubVerifier{identities: []Identity{{Email: "reader@example.com"}}}, nil, nil).
		Require(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "reader@example.com", got.Email)
}

func TestPrincipalFromContextMissing(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	p, ok := PrincipalFromContext(WithPrincipal(context.Background(), Principal{Email: "e"}))
	assert.True(t, ok)
	assert.Equal(t, "e", p.Email)
}
