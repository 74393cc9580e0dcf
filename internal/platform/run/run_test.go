package run

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestWithSignals_ExitCodes(t *testing.T) {
	r := New(zap.NewNop())

	if code := r.WithSignals(func(context.Context) error { return nil }); code != 0 {
		t.Fatalf("expected 0 for nil error, got %d", code)
	}
	if code := r.WithSignals(func(context.Context) error { return http.ErrServerClosed }); code != 0 {
		t.Fatalf("expected 0 for server closed, got %d", code)
	}
	if code := r.WithSignals(func(context.Context) error { return errors.New("bind failed") }); code != 1 {
		t.Fatalf("expected 1 for failure, got %d", code)
	}
}

func TestGraceful_RunsStepsInOrder(t *testing.T) {
	r := New(zap.NewNop())
	var ran []string
	r.Graceful(
		Step{Name: "http", Fn: func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Fatal("expected deadline on shutdown context")
			}
			ran = append(ran, "http")
			return nil
		}},
		Step{Name: "nil"},
		Step{Name: "store", Fn: func(context.Context) error {
			ran = append(ran, "store")
			return errors.New("close failed")
		}},
		Step{Name: "nats", Fn: func(context.Context) error {
			ran = append(ran, "nats")
			return nil
		}},
	)
	if strings.Join(ran, ",") != "http,store,nats" {
		t.Fatalf("expected steps in order, got %v", ran)
	}
}
