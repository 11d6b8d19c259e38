package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	serverDrainTimeout     = 3 * time.Second
	serverErrorMsg         = "server: %w"
)

// Run serves HTTP and blocks until ctx is cancelled or the server fails.
// SIGINT and SIGTERM also stop it. Everything is then shut down within
// server.timeout.shutdown.
func (a *App) Run(ctx context.Context) error {
	serverErrCh := a.serve()
	shutdownRequested, serverErr := a.waitForShutdownOrServerError(ctx, serverErrCh)

	timeout := a.cfg.Server.Timeout.Shutdown
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := a.timeoutProvider.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.logger.Info().Msg("Shutting down application")
	shutdownErr := a.Shutdown(shutdownCtx)

	var errs []error
	if shutdownRequested {
		if err := a.drainServerError(serverErrCh); err != nil {
			errs = append(errs, fmt.Errorf(serverErrorMsg, err))
		}
	} else if serverErr != nil {
		a.logger.Error().Err(serverErr).Msg("Server stopped unexpectedly")
		errs = append(errs, fmt.Errorf(serverErrorMsg, serverErr))
	}
	if shutdownErr != nil {
		errs = append(errs, shutdownErr)
	}
	return errors.Join(errs...)
}

// serve starts the HTTP server in a goroutine and returns its error channel
func (a *App) serve() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.runner.Start()
		close(errCh)
	}()
	return errCh
}

// waitForShutdownOrServerError reports whether shutdown was requested, or
// the error the server stopped with.
func (a *App) waitForShutdownOrServerError(ctx context.Context, serverErrCh <-chan error) (bool, error) {
	quit := make(chan os.Signal, 1)
	a.signalHandler.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer a.signalHandler.Stop(quit)

	select {
	case sig := <-quit:
		a.logger.Info().Str("signal", sig.String()).Msg("Shutdown requested via signal")
		return true, nil
	case <-ctx.Done():
		a.logger.Info().Msg("Shutdown requested via context")
		return true, nil
	case err := <-serverErrCh:
		return false, err
	}
}

// drainServerError waits for the server goroutine after Shutdown
func (a *App) drainServerError(ch <-chan error) error {
	select {
	case err := <-ch:
		return err
	case <-time.After(serverDrainTimeout):
		a.logger.Warn().Msg("Timeout waiting for server goroutine to complete")
		return fmt.Errorf("server goroutine failed to complete within %s", serverDrainTimeout)
	}
}

// Shutdown stops the HTTP server, closes connections and flushes telemetry.
// It returns every failure joined.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	start := time.Now()
	if err := a.runner.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf(serverErrorMsg, err))
		a.logger.Error().Err(err).Msg("Failed to shutdown server")
	} else {
		a.logger.Info().Dur("duration", time.Since(start)).Msg("HTTP server shutdown completed")
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		a.shutdownResource(a.closers[i], &errs)
	}
	a.closers = nil

	if a.observability != nil {
		if err := a.observability.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("observability: %w", err))
			a.logger.Error().Err(err).Msg("Failed to shutdown observability")
		}
	}

	a.logger.Info().Msg("Application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) shutdownResource(c namedCloser, errs *[]error) {
	if err := c.closer.Close(); err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", c.name, err))
		a.logger.Error().Err(err).Msgf("Failed to close %s", c.name)
		return
	}
	a.logger.Info().Msgf("%s closed successfully", strings.ToUpper(c.name[:1])+c.name[1:])
}
