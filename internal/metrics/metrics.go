package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_dashboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_dashboard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_dashboard_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_dashboard_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_dashboard_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_dashboard_db_rows_affected",
			Help:    "Rows affected by write operations",
			Buckets: []float64{1, 10, 100, 1000, 10000},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_dashboard_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "file_dashboard_indexer_runs_total",
			Help: "Total number of sync runs",
		},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_dashboard_indexer_last_run_timestamp",
			Help: "Timestamp of the last sync run",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_dashboard_indexer_last_run_duration_seconds",
			Help: "Duration of the last sync run in seconds",
		},
	)

	IndexerFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "file_dashboard_indexer_files_processed_total",
			Help: "Total number of files upserted by the indexer",
		},
	)

	IndexerFilesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "file_dashboard_indexer_files_pruned_total",
			Help: "Total number of orphaned file records removed by the indexer",
		},
	)

	IndexerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "file_dashboard_indexer_errors_total",
			Help: "Total number of indexer errors",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_dashboard_indexer_running",
			Help: "Whether a sync is currently running (1 = running, 0 = idle)",
		},
	)
)

// Catalog metrics
var (
	CatalogFilesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_dashboard_catalog_files",
			Help: "Number of file records in the catalog",
		},
	)

	CatalogBytesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_dashboard_catalog_bytes",
			Help: "Sum of the sizes of all catalogued files",
		},
	)

	CatalogTagsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_dashboard_catalog_tags",
			Help: "Number of tags",
		},
	)

	CatalogTagAssignments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_dashboard_catalog_tag_assignments",
			Help: "Number of file-tag associations",
		},
	)
)

// Launcher and preview metrics
var (
	LaunchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_dashboard_launches_total",
			Help: "Files handed to the OS default application",
		},
		[]string{"status"},
	)

	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_dashboard_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "file_dashboard_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_dashboard_filesystem_retry_attempts_total",
			Help: "Retries of filesystem operations after stale NFS handles",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_dashboard_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after a retry",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_dashboard_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_dashboard_filesystem_stale_errors_total",
			Help: "Stale file handle errors observed",
		},
		[]string{"operation"},
	)
)

// App info
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "file_dashboard_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)
