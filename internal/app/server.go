package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 10 * time.Second

// Start serves HTTP on app.server.http.address and returns a channel closed
// once SIGINT, SIGTERM or SIGHUP arrives, or the listener fails.
func (a *App) Start() <-chan struct{} {
	ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	done := make(chan struct{})

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped unexpectedly", "error", err)
			stop()
		}
	}()

	go func() {
		defer stop()

		<-ctx.Done()
		slog.Info("shutting down", "cause", context.Cause(ctx))
		close(done)
	}()

	return done
}

// Serve runs the HTTP server on l. Tests use it with an ephemeral port.
func (a *App) Serve(l net.Listener) <-chan error {
	errChan := make(chan error, 1)

	go func() {
		errChan <- a.httpServer.Serve(l)
		close(errChan)
	}()

	return errChan
}

// ShutdownTimeout bounds Stop; it reads app.server.shutdown_timeout_seconds.
func (a *App) ShutdownTimeout() time.Duration {
	if d := a.config.GetSecond("app.server.shutdown_timeout_seconds"); d > 0 {
		return d
	}
	return defaultShutdownTimeout
}

// Stop fails the readiness check, waits app.server.shutdown_drain_seconds for
// balancers to notice, then stops the server, flushes queued security events
// and closes every resource.
func (a *App) Stop(ctx context.Context) {
	a.ready.Store(false)

	if drain := a.config.GetSecond("app.server.shutdown_drain_seconds"); drain > 0 {
		slog.InfoContext(ctx, "draining before shutdown", "duration", drain.String())
		select {
		case <-time.After(drain):
		case <-ctx.Done():
		}
	}

	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to shut down http server", "error", err)
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background tasks finished with errors", "error", err)
	}
	if dropped := a.goroutine.Dropped(); dropped > 0 {
		slog.WarnContext(ctx, "background tasks were dropped at capacity", "count", dropped)
	}

	if err := a.closeAll(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "error", err)
	}
	slog.InfoContext(ctx, "application stopped")
}
