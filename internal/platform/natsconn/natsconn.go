// Package natsconn connects the catalog to NATS for change events.
package natsconn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/anilist/internal/platform/config"
)

// Options configures the connection. Zero values fall back to
// NATS_MAX_RECONNECTS (5) and NATS_RECONNECT_WAIT (2s).
type Options struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Logger        *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxReconnects == 0 {
		o.MaxReconnects = config.Int("NATS_MAX_RECONNECTS", 5)
	}
	if o.ReconnectWait == 0 {
		o.ReconnectWait = config.Duration("NATS_RECONNECT_WAIT", 2*time.Second)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Connect fails fast: the initial connection is not retried.
func Connect(opts Options) (*nats.Conn, error) {
	if opts.URL == "" {
		return nil, errors.New("nats connect: url is required")
	}
	opts = opts.withDefaults()
	log := opts.Logger

	natsOpts := []nats.Option{
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.RetryOnFailedConnect(false),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected, events are dropped until reconnect", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Info("nats connection closed")
		}),
	}
	if opts.Name != "" {
		natsOpts = append(natsOpts, nats.Name(opts.Name))
	}

	nc, err := nats.Connect(opts.URL, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s (max_reconnects=%d, wait=%s): %w",
			opts.URL, opts.MaxReconnects, opts.ReconnectWait, err)
	}
	return nc, nil
}

// Drain flushes pending publishes and waits for the connection to close or
// ctx to expire, whichever comes first.
func Drain(ctx context.Context, nc *nats.Conn) error {
	if nc == nil {
		return nil
	}
	if err := nc.Drain(); err != nil {
		return err
	}
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for !nc.IsClosed() {
		select {
		case <-ctx.Done():
			nc.Close()
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}
