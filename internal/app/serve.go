package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/contractgrid/internal/ctxlog"
	"github.com/specialistvlad/contractgrid/internal/server"
	"github.com/specialistvlad/contractgrid/internal/sessionstore"
)

// DefaultListenAddr is used when Config.ListenAddr is empty.
const DefaultListenAddr = ":8090"

const shutdownTimeout = 5 * time.Second

// Serve runs the editor server on the configured address until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	addr := a.config.ListenAddr
	if addr == "" {
		addr = DefaultListenAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener runs the editor server on ln until ctx is done. It closes ln.
func (a *App) ServeListener(ctx context.Context, ln net.Listener) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	srv := server.New(ctx, a.compiler, sessionstore.New(), server.WithDefaultHeader(a.header))
	defer srv.Close()

	httpServer := &http.Server{Handler: srv.Handler()}

	a.healthCheckServer()
	defer func() {
		if err := a.closeHealthCheckServer(); err != nil {
			a.logger.Error("Failed to close health check server", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Editor server starting", "address", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down editor server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Debug("Editor server shut down gracefully.")
	return nil
}
