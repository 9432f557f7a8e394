package workers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const shutdownGracePeriod = 5 * time.Second

// HTTPServerWorker runs the HTTP server that carries the /ws upgrade
// endpoint and /metrics, with graceful shutdown driven by the supervised
// context.
type HTTPServerWorker struct {
	log    *slog.Logger
	server *http.Server
}

func NewHTTPServerWorker(log *slog.Logger, addr string, handler http.Handler) *HTTPServerWorker {
	return &HTTPServerWorker{
		log:    log,
		server: &http.Server{Addr: addr, Handler: handler},
	}
}

func (w *HTTPServerWorker) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		w.log.Info("HTTP server listening", "addr", w.server.Addr)
		errCh <- w.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := w.server.Shutdown(shutdownCtx); err != nil {
			w.log.Warn("HTTP server shutdown forced", "error", err)
			_ = w.server.Close()
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
