package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"file-dashboard/internal/database"
	"file-dashboard/internal/filesystem"
	"file-dashboard/internal/handlers"
	"file-dashboard/internal/indexer"
	"file-dashboard/internal/launcher"
	"file-dashboard/internal/logging"
	"file-dashboard/internal/metrics"
	"file-dashboard/internal/middleware"
	"file-dashboard/internal/startup"

	"github.com/spf13/cobra"
)

const (
	metricsInterval = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

func runServe(cmd *cobra.Command, listen string) error {
	startTime := time.Now()

	var extra map[string]any
	if listen != "" {
		extra = map[string]any{"listen_address": listen}
	}
	config, err := loadConfig(cmd, extra)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Close() }()

	startup.LogStartup(config)

	if err := startup.PrepareDirectories(config); err != nil {
		logging.Fatal("Directory setup failed: %v", err)
	}

	if config.MetricsEnabled {
		filesystem.SetObserver(metrics.NewFilesystemObserver())
		metrics.InitializeMetrics()
		info := startup.GetBuildInfo()
		metrics.AppInfo.WithLabelValues(info.Version, info.Commit, info.GoVersion).Set(1)
	}

	ctx := context.Background()

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("failed to close database: %v", err)
		}
	}()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Initial sync runs before the server accepts requests.
	idx := indexer.New(db, config.ManagedDirectory)
	idx.Exclude(config.DatabaseFiles()...)
	result, err := idx.Sync(ctx)
	if err != nil {
		logging.Fatal("Initial sync of %s failed: %v", config.ManagedDirectory, err)
	}
	startup.LogInitialSync(result.Indexed, result.Pruned, result.Duration)

	var collector *metrics.Collector
	if config.MetricsEnabled {
		collector = metrics.NewCollector(catalogStats(db), metricsInterval)
		collector.Start()
	}

	h := handlers.New(db, idx, launcher.Default(), config)
	router := h.Router()
	if config.MetricsEnabled {
		// Router middleware so the matched route template is available as a label.
		router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	}
	startup.LogHTTPRoutes(router)

	var handler http.Handler = router
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)
	handler = middleware.Logger(middleware.DefaultLoggingConfig())(handler)

	srv := &http.Server{
		Addr:              config.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Refresh holds the request open for a whole sync.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	startup.LogServerStarted(config.ListenAddress, config.MetricsEnabled, time.Since(startTime))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-serverErr:
		if err != nil {
			logging.Error("Server error: %v", err)
			return err
		}
		return nil
	case sig := <-sigChan:
		startup.LogShutdownInitiated(sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if collector != nil {
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	startup.LogShutdownComplete()
	return nil
}

// catalogStats adapts the store to the metrics collector.
func catalogStats(db *database.Database) metrics.StatsFunc {
	return func(ctx context.Context) (metrics.Stats, error) {
		db.UpdateDBMetrics()
		stats, err := db.Stats(ctx)
		if err != nil {
			return metrics.Stats{}, err
		}
		return metrics.Stats{
			Files:        stats.Files,
			Bytes:        stats.Bytes,
			Tags:         stats.Tags,
			Associations: stats.Associations,
		}, nil
	}
}
