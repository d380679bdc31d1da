package daemon

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/excavator/excavator/internal/logging"
)

// Run starts the watcher, the pipeline worker, and the control plane, then
// blocks until a SIGINT/SIGTERM, ctx cancellation, or a control-plane
// POST /shutdown triggers graceful shutdown. It returns once shutdown has
// completed (or its grace period has elapsed).
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.watcher.Start(); err != nil {
		return err
	}
	d.worker.Start()

	serveErrCh := make(chan error, 1)
	go func() {
		if err := d.control.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
			return
		}
		serveErrCh <- nil
	}()
	d.control.SetReady(true)
	logging.Daemon("excavator is ready on %s", d.cfg.ControlPlane.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logging.Daemon("received signal %s, shutting down", sig)
	case <-d.shutdownCh:
		logging.Daemon("shutdown requested via control plane")
	case <-ctx.Done():
		logging.Daemon("context cancelled, shutting down")
	case err := <-serveErrCh:
		if err != nil {
			logging.DaemonError("control plane exited unexpectedly: %v", err)
			return err
		}
	}

	return d.shutdown(serveErrCh)
}

func (d *Daemon) shutdown(serveErrCh chan error) error {
	grace := time.Duration(d.cfg.ControlPlane.ShutdownGraceS) * time.Second
	if grace <= 0 {
		grace = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	var firstErr error
	if err := d.control.Shutdown(ctx); err != nil {
		firstErr = err
		logging.DaemonError("control plane shutdown: %v", err)
	} else {
		<-serveErrCh
	}

	d.watcher.Stop()
	d.worker.Stop()

	if err := d.catalog.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := d.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}
	logging.Daemon("shutdown complete")
	return firstErr
}
