// Package main provides the entry point for the File Dashboard application.
//
// File Dashboard catalogs the files of one managed directory in a SQLite
// database and serves a local web UI for browsing, searching, tagging and
// annotating them. Files can be opened in the desktop's default application.
//
// # Commands
//
//   - serve (default): sync once, then serve the dashboard until SIGINT/SIGTERM
//   - sync: sync once and print the result
//   - config generate: write the default configuration as YAML
//   - version: print build information
//
// # Serve Lifecycle
//
//  1. Configuration loading (defaults, config.yaml, .env, environment, flags)
//  2. Directory setup: managed directory and database directory
//  3. Database initialization (fatal on failure)
//  4. Initial sync of the managed directory (fatal on failure)
//  5. Metrics collector, when metrics are enabled
//  6. HTTP server with logging, compression and metrics middleware
//  7. Graceful shutdown on SIGINT/SIGTERM
//
// There is no background indexing: the catalog changes only through the
// startup sync, the Refresh button, and edits made in the UI.
package main
