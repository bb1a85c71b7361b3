package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/0xRadioAc7iv/caskdb/core"
	"github.com/0xRadioAc7iv/caskdb/internal"
	"github.com/0xRadioAc7iv/caskdb/internal/logging"
	"github.com/0xRadioAc7iv/caskdb/internal/metrics"
	"github.com/0xRadioAc7iv/caskdb/internal/utils"
)

func main() {
	cfg, err := utils.HandleCLIInputs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(2)
	}

	logger := logging.New("caskdb", cfg.LogLevel, os.Stderr)
	m := metrics.New()

	bitcask := core.Bitcask{
		DirectoryPath:       cfg.DirectoryPath,
		MaximumDatafileSize: cfg.MaximumDatafileSize(),
		ListenerPort:        cfg.Port,
		SyncInterval:        cfg.SyncInterval,
		SyncOnWrite:         cfg.SyncOnWrite,
		KeyDirShards:        cfg.KeyDirShards,
		Logger:              logger,
		Metrics:             m,
	}

	if err := bitcask.Start(); err != nil {
		logger.Error("error while starting", "error", err)
		os.Exit(1)
	}
	defer bitcask.Stop()

	stopMetrics := serveMetrics(cfg, m, logger)
	defer stopMetrics()

	utils.ListenForProcessInterruptOrKill(logger)
}

// serveMetrics exposes /metrics on cfg.MetricsAddr and returns a function
// that shuts the endpoint down.
func serveMetrics(cfg *internal.ServerConfig, m *metrics.Metrics, logger hclog.Logger) func() {
	if cfg.MetricsAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
