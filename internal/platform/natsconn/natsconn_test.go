package natsconn

import (
	"context"
	"testing"
	"time"
)

func TestOptionsDefaults(t *testing.T) {
	t.Setenv("NATS_MAX_RECONNECTS", "")
	t.Setenv("NATS_RECONNECT_WAIT", "")
	o := Options{}.withDefaults()
	if o.MaxReconnects != 5 || o.ReconnectWait != 2*time.Second {
		t.Fatalf("unexpected defaults: %+v", o)
	}
	if o.Logger == nil {
		t.Fatal("expected a nop logger")
	}
}

func TestOptionsDefaults_FromEnv(t *testing.T) {
	t.Setenv("NATS_MAX_RECONNECTS", "7")
	t.Setenv("NATS_RECONNECT_WAIT", "3s")
	o := Options{}.withDefaults()
	if o.MaxReconnects != 7 || o.ReconnectWait != 3*time.Second {
		t.Fatalf("unexpected env overrides: %+v", o)
	}
}

func TestOptionsDefaults_ExplicitWins(t *testing.T) {
	t.Setenv("NATS_MAX_RECONNECTS", "7")
	o := Options{MaxReconnects: 1, ReconnectWait: time.Millisecond}.withDefaults()
	if o.MaxReconnects != 1 || o.ReconnectWait != time.Millisecond {
		t.Fatalf("explicit options overridden: %+v", o)
	}
}

func TestConnect_RequiresURL(t *testing.T) {
	if _, err := Connect(Options{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(Options{
		URL:           "nats://127.0.0.1:19999",
		MaxReconnects: 1,
		ReconnectWait: 10 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error connecting to unreachable NATS URL")
	}
}

func TestDrain_NilConn(t *testing.T) {
	if err := Drain(context.Background(), nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
