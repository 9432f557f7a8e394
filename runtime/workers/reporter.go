package workers

import (
	"context"
	"log/slog"
	"time"
)

// RegistryStats is the snapshot surface the reporter reads; satisfied by
// the runtime registry.
type RegistryStats interface {
	Stats() (connections, rooms int)
}

// ReporterWorker periodically logs a registry snapshot. Cheap visibility
// for a single-process deployment; the Prometheus metrics carry the rest.
type ReporterWorker struct {
	log      *slog.Logger
	registry RegistryStats
	interval time.Duration
}

func NewReporterWorker(log *slog.Logger, registry RegistryStats, interval time.Duration) *ReporterWorker {
	return &ReporterWorker{log: log, registry: registry, interval: interval}
}

func (w *ReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			connections, rooms := w.registry.Stats()
			w.log.Info("registry snapshot", "connections", connections, "rooms", rooms)
		}
	}
}
