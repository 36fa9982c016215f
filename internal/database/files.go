package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"file-dashboard/internal/metrics"
)

const fileColumns = "f.id, f.filename, f.filepath, f.file_size, f.file_modified, f.indexed_at, f.notes"

// pruneChunkSize bounds the number of bound parameters per staging insert.
const pruneChunkSize = 500

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (File, error) {
	var file File
	var modified, indexed int64
	var notes sql.NullString

	if err := row.Scan(
		&file.ID, &file.Filename, &file.Filepath, &file.Size,
		&modified, &indexed, &notes,
	); err != nil {
		return File{}, err
	}

	file.ModifiedAt = time.Unix(modified, 0)
	file.IndexedAt = time.Unix(indexed, 0)
	if notes.Valid {
		file.Notes = notes.String
	}
	return file, nil
}

// queryFiles runs a query selecting fileColumns and scans every row.
// Caller must hold at least a read lock.
func (d *Database) queryFiles(ctx context.Context, query string, args ...any) ([]File, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	files := []File{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// UpsertFile inserts a file keyed by filepath, or refreshes filename, size,
// modification time and indexed_at when the filepath is already known.
// Notes and tag associations are preserved. Returns the file id.
//
// Only a conflict on filepath is resolved as an update; any other
// constraint failure is returned to the caller.
func (d *Database) UpsertFile(ctx context.Context, filename, filepath string, size int64, modifiedAt time.Time) (id int64, err error) {
	start := time.Now()
	defer func() { recordQuery("upsert_file", start, err) }()

	if filepath == "" {
		return 0, errors.New("filepath cannot be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, `
		INSERT INTO files (filename, filepath, file_size, file_modified, indexed_at)
		VALUES (?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(filepath) DO UPDATE SET
			filename = excluded.filename,
			file_size = excluded.file_size,
			file_modified = excluded.file_modified,
			indexed_at = excluded.indexed_at
		RETURNING id
	`, filename, filepath, size, modifiedAt.Unix()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert file %s: %w", filepath, err)
	}
	return id, nil
}

// ListFiles returns all files ordered by filename.
func (d *Database) ListFiles(ctx context.Context) (files []File, err error) {
	start := time.Now()
	defer func() { recordQuery("list_files", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return d.listFilesUnlocked(ctx)
}

func (d *Database) listFilesUnlocked(ctx context.Context) ([]File, error) {
	return d.queryFiles(ctx, "SELECT "+fileColumns+" FROM files f ORDER BY f.filename, f.filepath")
}

// GetFile returns a single file by id, or ErrNotFound.
func (d *Database) GetFile(ctx context.Context, id int64) (file *File, err error) {
	start := time.Now()
	defer func() { recordQuery("get_file", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM files f WHERE f.id = ?", id)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateNotes overwrites the notes of a file. Returns ErrNotFound when the
// id does not exist.
func (d *Database) UpdateNotes(ctx context.Context, id int64, notes string) (err error) {
	start := time.Now()
	defer func() { recordQuery("update_notes", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "UPDATE files SET notes = ? WHERE id = ?", notes, id)
	if err != nil {
		return err
	}
	return requireRow(result, id)
}

// DeleteFile removes a file and its tag associations. Returns ErrNotFound
// when the id does not exist.
func (d *Database) DeleteFile(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { recordQuery("delete_file", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(result, id)
}

func requireRow(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("file %d: %w", id, ErrNotFound)
	}
	return nil
}

// SearchByText returns files whose filename or notes contain query,
// ignoring case. An empty query returns every file.
func (d *Database) SearchByText(ctx context.Context, query string) (files []File, err error) {
	start := time.Now()
	defer func() { recordQuery("search_by_text", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if query == "" {
		return d.listFilesUnlocked(ctx)
	}

	needle := casefold(query)
	return d.queryFiles(ctx, `
		SELECT `+fileColumns+`
		FROM files f
		WHERE instr(casefold(f.filename), ?) > 0
		   OR instr(casefold(COALESCE(f.notes, '')), ?) > 0
		ORDER BY f.filename, f.filepath
	`, needle, needle)
}

// SearchByTags returns files carrying any of the named tags, each file once.
// An empty set returns every file.
func (d *Database) SearchByTags(ctx context.Context, tagNames []string) (files []File, err error) {
	start := time.Now()
	defer func() { recordQuery("search_by_tags", start, err) }()

	names := uniqueNonEmpty(tagNames)

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if len(names) == 0 {
		return d.listFilesUnlocked(ctx)
	}

	args := make([]any, len(names))
	for i, name := range names {
		args[i] = name
	}

	return d.queryFiles(ctx, `
		SELECT `+fileColumns+`
		FROM files f
		WHERE f.id IN (
			SELECT ft.file_id
			FROM file_tags ft
			INNER JOIN tags t ON t.id = ft.tag_id
			WHERE t.tag_name IN (`+placeholders(len(names), "?")+`)
		)
		ORDER BY f.filename, f.filepath
	`, args...)
}

// uniqueNonEmpty trims values the same way tag names are stored and drops
// blanks and duplicates.
func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// PruneMissing deletes every file whose filepath is not in surviving.
// An empty set deletes all files. The staging and delete run in a single
// transaction so readers never observe a partially applied prune.
func (d *Database) PruneMissing(ctx context.Context, surviving []string) (deleted int64, err error) {
	start := time.Now()
	defer func() { recordQuery("prune_missing", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, pruneTimeout)
	defer cancel()

	err = d.withTx(ctx, func(tx *sql.Tx) error {
		if len(surviving) == 0 {
			result, err := tx.ExecContext(ctx, "DELETE FROM files")
			if err != nil {
				return err
			}
			deleted, err = result.RowsAffected()
			return err
		}

		if _, err := tx.ExecContext(ctx, "CREATE TEMP TABLE IF NOT EXISTS prune_keep (filepath TEXT PRIMARY KEY)"); err != nil {
			return fmt.Errorf("create staging table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM temp.prune_keep"); err != nil {
			return fmt.Errorf("clear staging table: %w", err)
		}

		for i := 0; i < len(surviving); i += pruneChunkSize {
			end := min(i+pruneChunkSize, len(surviving))
			chunk := surviving[i:end]

			args := make([]any, len(chunk))
			for j, p := range chunk {
				args[j] = p
			}

			query := "INSERT OR IGNORE INTO temp.prune_keep (filepath) VALUES " + placeholders(len(chunk), "(?)")
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("stage surviving paths: %w", err)
			}
		}

		result, err := tx.ExecContext(ctx,
			"DELETE FROM files WHERE filepath NOT IN (SELECT filepath FROM temp.prune_keep)")
		if err != nil {
			return err
		}
		if deleted, err = result.RowsAffected(); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, "DROP TABLE temp.prune_keep")
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune missing files: %w", err)
	}

	if deleted > 0 {
		metrics.DBRowsAffected.WithLabelValues("prune_missing").Observe(float64(deleted))
	}
	return deleted, nil
}

// Stats returns catalog counts.
func (d *Database) Stats(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	defer func() { recordQuery("stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM files),
			(SELECT COALESCE(SUM(file_size), 0) FROM files),
			(SELECT COUNT(*) FROM tags),
			(SELECT COUNT(*) FROM file_tags)
	`).Scan(&stats.Files, &stats.Bytes, &stats.Tags, &stats.Associations)
	return stats, err
}

// normalizeTagName trims surrounding whitespace and rejects blank names.
func normalizeTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyTagName
	}
	return name, nil
}
