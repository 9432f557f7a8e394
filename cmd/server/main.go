package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rakshit0960/PeerTalk/auth"
	"github.com/rakshit0960/PeerTalk/infrastructure/ws"
	"github.com/rakshit0960/PeerTalk/internal"
	"github.com/rakshit0960/PeerTalk/observability"
	"github.com/rakshit0960/PeerTalk/repositories"
	"github.com/rakshit0960/PeerTalk/runtime"
	"github.com/rakshit0960/PeerTalk/runtime/workers"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper. Its only responsibility is
	// to call run() and hand the exit code to the OS, so that every defer
	// (database close included) executes before the process exits.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := internal.LoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Database (BadgerDB), backing the read-receipt collaborator
	options := badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(options)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Core wiring: registry, router, coordinator, relay
	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)

	registry := runtime.NewRegistry()
	router := runtime.NewRouter(logger, registry, metrics)
	store := repositories.NewMessageRepository(db, logger)
	coordinator := runtime.NewCoordinator(router, store)
	runtime.NewCallRelay(router)

	// 4. Transport
	verifier := auth.NewVerifier(config.JWTSecret)
	server := ws.NewServer(logger, verifier, registry, router, coordinator, metrics, ws.Config{
		BufferSize: config.ConnectionBufferSize,
		WriteWait:  config.WriteTimeout,
		PongWait:   config.PongTimeout,
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", server)
	mux.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	// 5. Supervised workers
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(
		workers.NewHTTPServerWorker(logger, addr, mux),
		workers.NewReporterWorker(logger, registry, config.ReportInterval),
	)

	logger.Info("Starting real-time server", "addr", addr)
	supervisor.Run(ctx)

	logger.Info("Shutdown complete")
	return exitOK, nil
}
