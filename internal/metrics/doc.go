// Package metrics provides Prometheus instrumentation for the file dashboard.
//
// All metrics are prefixed with "file_dashboard_". They are grouped into:
//   - HTTP: request counts, durations and in-flight requests
//   - Database: query counts and durations per store operation
//   - Indexer: sync runs, duration, files upserted and pruned
//   - Catalog: file, byte, tag and association gauges refreshed by Collector
//   - Launcher and previews: open-file attempts and thumbnail generation
//   - Filesystem: stale NFS handle retries
//
// Metrics are registered with the default registry via promauto and exposed
// through promhttp on /metrics when enabled.
package metrics
