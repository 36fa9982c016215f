package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// tagsChunkSize bounds the number of file ids bound per TagsForFiles query.
const tagsChunkSize = 500

// GetOrCreateTag returns the id of the named tag, creating it if needed.
// Surrounding whitespace is trimmed; a blank name yields ErrEmptyTagName.
func (d *Database) GetOrCreateTag(ctx context.Context, name string) (id int64, err error) {
	start := time.Now()
	defer func() { recordQuery("get_or_create_tag", start, err) }()

	name, err = normalizeTagName(name)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.withTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		id, txErr = getOrCreateTagTx(ctx, tx, name)
		return txErr
	})
	return id, err
}

func getOrCreateTagTx(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO tags (tag_name) VALUES (?) ON CONFLICT(tag_name) DO NOTHING",
		name,
	); err != nil {
		return 0, fmt.Errorf("failed to create tag: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM tags WHERE tag_name = ?", name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up tag %q: %w", name, err)
	}
	return id, nil
}

// ListTags returns every tag ordered by name, with the number of files
// carrying it.
func (d *Database) ListTags(ctx context.Context) (tags []Tag, err error) {
	start := time.Now()
	defer func() { recordQuery("list_tags", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT t.id, t.tag_name, COUNT(ft.file_id)
		FROM tags t
		LEFT JOIN file_tags ft ON ft.tag_id = t.id
		GROUP BY t.id
		ORDER BY t.tag_name
	`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	tags = []Tag{}
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.FileCount); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// AttachTag associates the named tag with a file, creating the tag if it
// does not exist. Attaching a tag twice is a no-op. Returns ErrNotFound when
// the file does not exist and ErrEmptyTagName for a blank name.
func (d *Database) AttachTag(ctx context.Context, fileID int64, tagName string) (err error) {
	start := time.Now()
	defer func() { recordQuery("attach_tag", start, err) }()

	tagName, err = normalizeTagName(tagName)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return d.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM files WHERE id = ?", fileID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("file %d: %w", fileID, ErrNotFound)
		}
		if err != nil {
			return err
		}

		tagID, err := getOrCreateTagTx(ctx, tx, tagName)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO file_tags (file_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			fileID, tagID,
		)
		return err
	})
}

// DetachTag removes a tag from a file. Removing an association that does
// not exist is a no-op. The tag itself is kept.
func (d *Database) DetachTag(ctx context.Context, fileID, tagID int64) (err error) {
	start := time.Now()
	defer func() { recordQuery("detach_tag", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		"DELETE FROM file_tags WHERE file_id = ? AND tag_id = ?",
		fileID, tagID,
	)
	return err
}

// TagsForFile returns the tags of a file ordered by name.
func (d *Database) TagsForFile(ctx context.Context, fileID int64) (tags []Tag, err error) {
	start := time.Now()
	defer func() { recordQuery("tags_for_file", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT t.id, t.tag_name
		FROM tags t
		INNER JOIN file_tags ft ON ft.tag_id = t.id
		WHERE ft.file_id = ?
		ORDER BY t.tag_name
	`, fileID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	tags = []Tag{}
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// TagsForFiles returns the tags of several files at once, keyed by file id.
// Files without tags are absent from the map.
func (d *Database) TagsForFiles(ctx context.Context, fileIDs []int64) (result map[int64][]Tag, err error) {
	start := time.Now()
	defer func() { recordQuery("tags_for_files", start, err) }()

	result = make(map[int64][]Tag)
	if len(fileIDs) == 0 {
		return result, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for i := 0; i < len(fileIDs); i += tagsChunkSize {
		end := min(i+tagsChunkSize, len(fileIDs))
		if err := d.tagsForChunk(ctx, fileIDs[i:end], result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (d *Database) tagsForChunk(ctx context.Context, ids []int64, into map[int64][]Tag) error {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT ft.file_id, t.id, t.tag_name
		FROM file_tags ft
		INNER JOIN tags t ON t.id = ft.tag_id
		WHERE ft.file_id IN (`+placeholders(len(ids), "?")+`)
		ORDER BY ft.file_id, t.tag_name
	`, args...)
	if err != nil {
		return err
	}
	defer closeRows(rows)

	for rows.Next() {
		var fileID int64
		var tag Tag
		if err := rows.Scan(&fileID, &tag.ID, &tag.Name); err != nil {
			return err
		}
		into[fileID] = append(into[fileID], tag)
	}
	return rows.Err()
}
