package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"file-dashboard/internal/logging"
	"file-dashboard/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// pruneTimeout bounds PruneMissing, which stages every surviving path.
const pruneTimeout = 2 * time.Minute

// schemaVersion is stored in the metadata table.
const schemaVersion = "1"

// driverName is the go-sqlite3 driver registered with the casefold function.
const driverName = "sqlite3_file_dashboard"

var (
	// ErrNotFound is returned when a file or tag id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmptyTagName is returned when a tag name is blank.
	ErrEmptyTagName = errors.New("tag name cannot be empty")
)

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// SQLite's lower() and LIKE only fold ASCII.
			return conn.RegisterFunc("casefold", casefold, true)
		},
	})
}

func casefold(s string) string {
	return strings.ToLower(s)
}

// Database is the catalog store: files, tags and their associations.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens (creating if needed) the SQLite database at dbPath and ensures
// the schema exists. The parent directory must already exist.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	// busy_timeout helps prevent "database is locked" errors; foreign keys
	// are per connection in SQLite so they are enabled through the DSN.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL,
		filepath TEXT NOT NULL UNIQUE,
		file_size INTEGER NOT NULL DEFAULT 0,
		file_modified INTEGER NOT NULL,
		indexed_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_files_filename ON files(filename);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tag_name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS file_tags (
		file_id INTEGER NOT NULL,
		tag_id INTEGER NOT NULL,
		PRIMARY KEY (file_id, tag_id),
		FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE,
		FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_file_tags_tag ON file_tags(tag_id);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	_, err := d.db.ExecContext(ctx, schema)
	recordQuery("initialize_schema", start, err)
	if err != nil {
		return err
	}

	_, err = d.db.ExecContext(ctx,
		"INSERT INTO metadata (key, value) VALUES ('schema_version', ?) ON CONFLICT(key) DO NOTHING",
		schemaVersion,
	)
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping verifies the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// Path returns the database file location.
func (d *Database) Path() string {
	return d.dbPath
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on error.
func (d *Database) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	return tx.Commit()
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// placeholders returns n comma-separated "?" markers, each wrapped as
// given by the format (for example "?" or "(?)").
func placeholders(n int, marker string) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(n * (len(marker) + 1))
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(marker)
	}
	return b.String()
}

// closeRows closes a result set, logging any error.
func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logging.Error("error closing rows: %v", err)
	}
}
