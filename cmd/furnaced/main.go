package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maercaestro/furnace-commander/internal/api"
	"github.com/maercaestro/furnace-commander/internal/predict"
	"github.com/maercaestro/furnace-commander/internal/store"
)

func main() {
	var (
		addr       = flag.String("addr", envOr("FURNACE_ADDR", ":8600"), "listen address")
		dbPath     = flag.String("db", envOr("FURNACE_DB", "furnace.db"), "sqlite database path, empty disables the leaderboard")
		sidecarURL = flag.String("sidecar", envOr("FURNACE_SIDECAR_URL", ""), "inference sidecar base URL, empty disables the demo")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[FURNACED] ", log.LstdFlags)

	var db store.DB
	if *dbPath != "" {
		sqlite, err := store.NewSQLiteDB(*dbPath)
		if err != nil {
			logger.Fatalf("store_open_failed path=%s err=%v", *dbPath, err)
		}
		defer sqlite.Close()
		if err := sqlite.Migrate(); err != nil {
			logger.Fatalf("store_migrate_failed path=%s err=%v", *dbPath, err)
		}
		db = sqlite
		logger.Printf("store_ready path=%s", *dbPath)
	} else {
		logger.Printf("store_disabled")
	}

	var predictor predict.Predictor
	if *sidecarURL != "" {
		predictor = predict.NewClient(predict.Config{BaseURL: *sidecarURL})
		logger.Printf("predictor_ready url=%s", *sidecarURL)
	} else {
		logger.Printf("predictor_disabled")
	}

	server := api.NewServer(db, predictor)
	httpServer := &http.Server{
		Addr:    *addr,
		Handler: server.Routes(),
		// WebSocket play sessions manage their own deadlines.
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening addr=%s", *addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown_signal_received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server_failed err=%v", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown_incomplete err=%v", err)
	}
	logger.Printf("shutdown_complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
