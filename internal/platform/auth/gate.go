// Package auth holds the request gate that turns a bearer token into a
// verified principal by asking an identity provider.
//
// The gate keeps no session state and caches nothing: every protected
// request is verified again.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/example/anilist/internal/platform/api"
	"github.com/example/anilist/internal/platform/httpserver"
	"github.com/example/anilist/internal/platform/metrics"
)

// ErrTokenRejected is wrapped by verifiers when the provider answered and
// said the token is not valid, as opposed to failing to answer at all.
var ErrTokenRejected = errors.New("auth: token rejected")

// Identity is one account record returned by a token lookup.
type Identity struct {
	UserID string
	Email  string
}

// Verifier looks a token up at the identity provider.
type Verifier interface {
	Verify(ctx context.Context, token string) ([]Identity, error)
}

// Principal is the verified caller attached to a request.
type Principal struct {
	Email string
}

type Decision int

const (
	// NoCredentials means no Authorization header was sent.
	NoCredentials Decision = iota
	Authenticated
	Rejected
)

func (d Decision) String() string {
	switch d {
	case NoCredentials:
		return "no_credentials"
	case Authenticated:
		return "authenticated"
	default:
		return "rejected"
	}
}

const (
	outcomeNoCredentials = "no_credentials"
	outcomeAuthenticated = "authenticated"
	outcomeMalformed     = "malformed_header"
	outcomeNoIdentity    = "no_identity"
	outcomeInvalidToken  = "invalid_token"
	outcomeUpstreamError = "upstream_error"
)

type ctxKeyPrincipal struct{}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal{}).(Principal)
	return p, ok
}

// WithPrincipal attaches p to ctx. Useful for testing handlers behind Require.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal{}, p)
}

type Gate struct {
	verifier Verifier
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// NewGate builds a gate. log and m may be nil.
func NewGate(v Verifier, log *zap.Logger, m *metrics.Metrics) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{verifier: v, log: log, metrics: m}
}

// Decide inspects a raw Authorization header value. Verifier failures never
// escape: both a rejected token and an unreachable provider yield Rejected,
// and only the log line and metric tell them apart.
func (g *Gate) Decide(ctx context.Context, header string) (Principal, Decision) {
	header = strings.TrimSpace(header)
	if header == "" {
		g.metrics.ObserveAuth(outcomeNoCredentials)
		return Principal{}, NoCredentials
	}

	token, ok := bearerToken(header)
	if !ok {
		g.metrics.ObserveAuth(outcomeMalformed)
		g.log.Debug("auth rejected", zap.String("reason", outcomeMalformed))
		return Principal{}, Rejected
	}

	identities, err := g.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenRejected) {
			g.metrics.ObserveAuth(outcomeInvalidToken)
			g.log.Warn("auth rejected", zap.String("reason", outcomeInvalidToken), zap.Error(err))
		} else {
			g.metrics.ObserveAuth(outcomeUpstreamError)
			g.log.Error("auth rejected", zap.String("reason", outcomeUpstreamError), zap.Error(err))
		}
		return Principal{}, Rejected
	}
	if len(identities) == 0 {
		g.metrics.ObserveAuth(outcomeNoIdentity)
		g.log.Warn("auth rejected", zap.String("reason", outcomeNoIdentity))
		return Principal{}, Rejected
	}

	g.metrics.ObserveAuth(outcomeAuthenticated)
	return Principal{Email: identities[0].Email}, Authenticated
}

// Require lets the request through only when the gate authenticated it.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, decision := g.Decide(r.Context(), r.Header.Get("Authorization"))
		if decision != Authenticated {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
