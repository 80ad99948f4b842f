package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/fairtab/fairtab/internal/connectivity"
	"github.com/fairtab/fairtab/internal/identity"
	"github.com/fairtab/fairtab/internal/ledger"
	"github.com/fairtab/fairtab/internal/server"
	"github.com/fairtab/fairtab/internal/storage/sqlite"
	"github.com/fairtab/fairtab/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	// .env is optional; real env vars win.
	_ = godotenv.Load()
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/fairtab.db")
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		slog.Error("invalid PORT value", "value", os.Getenv("PORT"))
		os.Exit(1)
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", dbPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The monitor starts offline; the first probe flips it online if
	// the network is reachable, which re-resolves identity.
	monitor := connectivity.NewMonitor(false)
	probeInterval, err := time.ParseDuration(getEnv("PROBE_INTERVAL", "30s"))
	if err != nil {
		slog.Error("invalid PROBE_INTERVAL value", "value", os.Getenv("PROBE_INTERVAL"))
		os.Exit(1)
	}
	probe := &connectivity.Probe{
		URL:      getEnv("PROBE_URL", "https://www.gstatic.com/generate_204"),
		Interval: probeInterval,
		Monitor:  monitor,
	}
	go probe.Run(ctx)

	manager := identity.NewJWTManager(getEnv("SESSION_SECRET", ""), 24*time.Hour)
	session := identity.NewTokenSession(manager, os.Getenv("SESSION_TOKEN"))
	resolver := identity.NewResolver(session, store, monitor)
	go resolver.Watch(ctx)

	l := ledger.New(store, resolver, monitor)
	l.Init(ctx)

	srv := server.New(server.Config{Port: port}, l, resolver, monitor)
	if err := srv.Start(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
