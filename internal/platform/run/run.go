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

const DefaultShutdownTimeout = 10 * time.Second

type Runner struct {
	Logger *zap.Logger
	// ShutdownTimeout bounds both Graceful and the wait for start to return
	// after a signal.
	ShutdownTimeout time.Duration
}

func New(log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Logger: log, ShutdownTimeout: DefaultShutdownTimeout}
}

// WithSignals runs start until SIGINT or SIGTERM and returns a process exit code.
func (r *Runner) WithSignals(start func(ctx context.Context) error) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return r.Run(ctx, start)
}

// Run calls start with ctx. Once ctx is done it waits up to ShutdownTimeout
// for start to return so deferred cleanup in the caller sees a stopped service.
func (r *Runner) Run(ctx context.Context, start func(ctx context.Context) error) int {
	errCh := make(chan error, 1)
	go func() {
		errCh <- start(ctx)
	}()

	select {
	case <-ctx.Done():
		r.Logger.Info("shutdown signal received")
		select {
		case err := <-errCh:
			return r.code(err)
		case <-time.After(r.timeout()):
			r.Logger.Warn("service did not stop in time", zap.Duration("timeout", r.timeout()))
			return 1
		}
	case err := <-errCh:
		return r.code(err)
	}
}

// Graceful calls shutdown with a fresh ShutdownTimeout deadline.
func (r *Runner) Graceful(shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout())
	defer cancel()
	if err := shutdown(ctx); err != nil {
		r.Logger.Warn("graceful shutdown", zap.Error(err))
		return err
	}
	return nil
}

func (r *Runner) code(err error) int {
	if err == nil || errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		return 0
	}
	r.Logger.Error("service exited with error", zap.Error(err))
	return 1
}

func (r *Runner) timeout() time.Duration {
	if r.ShutdownTimeout <= 0 {
		return DefaultShutdownTimeout
	}
	return r.ShutdownTimeout
}

func Exit(code int) {
	os.Exit(code)
}
