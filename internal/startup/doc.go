// Package startup handles configuration loading, directory bootstrap and
// the startup/shutdown log output.
//
// # Configuration
//
// [LoadConfig] layers, lowest precedence first:
//
//  1. Built-in defaults ([DefaultConfig])
//  2. A YAML file, given explicitly or found as ./config.yaml
//  3. Environment variables, including those loaded from .env and .env.local
//  4. Explicit overrides, typically command-line flags
//
// Environment variable names are the upper-cased keys with dots replaced by
// underscores:
//
//   - SECRET_KEY: signing secret for notice cookies (default: development value, logged as a warning)
//   - DATABASE_PATH: SQLite catalog file (default: ./filemanager.db)
//   - MANAGED_DIRECTORY: directory to catalog (default: ./managed_files)
//   - LISTEN_ADDRESS: HTTP listen address (default: 127.0.0.1:5000)
//   - METRICS_ENABLED: expose /metrics (default: true)
//   - THUMBNAIL_SIZE: preview bounding box in pixels (default: 320)
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//   - LOG_FILE: optional rotating log file
//   - LOG_MAX_SIZE_MB, LOG_MAX_BACKUPS: rotation limits (default: 10, 3)
//
// Relative paths are resolved against the working directory.
//
// # Directory Setup
//
// [PrepareDirectories] creates the managed directory and the database's
// parent directory and verifies the latter is writable.
//
// # Build Information
//
// Version, Commit and BuildTime are set at build time:
//
//	go build -ldflags "-X file-dashboard/internal/startup.Version=1.0.0"
package startup
