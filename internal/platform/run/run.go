package run

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownTimeout bounds every Graceful call.
const ShutdownTimeout = 10 * time.Second

type Runner struct {
	Logger *zap.Logger
}

func New(log *zap.Logger) *Runner {
	return &Runner{Logger: log}
}

// WithSignals runs start until it returns or SIGINT/SIGTERM arrives, and
// converts the outcome to a process exit code. start receives a context that
// is cancelled on the signal.
func (r *Runner) WithSignals(start func(ctx context.Context) error) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- start(ctx)
	}()

	select {
	case <-ctx.Done():
		r.Logger.Info("shutdown signal received")
		return 0
	case err := <-errCh:
		return r.exitCode(err)
	}
}

func (r *Runner) exitCode(err error) int {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return 0
	}
	r.Logger.Error("service exited with error", zap.Error(err))
	return 1
}

// Step is one named shutdown action.
type Step struct {
	Name string
	Fn   func(context.Context) error
}

// Graceful runs steps in order under a shared deadline. A failing step is
// logged and the rest still run.
func (r *Runner) Graceful(steps ...Step) {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	for _, step := range steps {
		if step.Fn == nil {
			continue
		}
		if err := step.Fn(ctx); err != nil {
			r.Logger.Warn("shutdown step failed", zap.String("step", step.Name), zap.Error(err))
		}
	}
}

func Exit(code int) {
	os.Exit(code)
}
