// Package database provides the SQLite catalog store for the file dashboard.
//
// It handles storage and retrieval of:
//   - File records keyed by their path relative to the managed directory
//   - User notes attached to files
//   - Tags and file-to-tag associations
//   - Key/value metadata such as the schema revision and last sync time
//
// The database uses WAL mode for concurrent reads, enforces foreign keys on
// every connection so deleting a file removes its tag associations, and
// creates its schema automatically on open. Every exported operation is a
// single statement or a single transaction.
package database
