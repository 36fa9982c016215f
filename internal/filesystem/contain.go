package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

var (
	// ErrOutsideRoot is returned when a path resolves outside the managed root.
	ErrOutsideRoot = errors.New("path is outside the managed directory")
	// ErrNotExist is returned when a path does not exist on disk.
	ErrNotExist = errors.New("file does not exist on disk")
)

// Contain verifies that path lies inside root after both have been made
// absolute, cleaned and symlink-resolved. It returns the canonical path.
//
// The lexical check runs before anything touches the disk so that
// traversal attempts are rejected even when the target does not exist.
func Contain(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve managed directory: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	if !within(absRoot, absPath) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolve managed directory: %w", err)
	}

	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return "", fmt.Errorf("resolve path: %w", err)
	}

	if !within(realRoot, realPath) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	return realPath, nil
}

// within reports whether p equals root or is nested below it. Both paths
// must already be absolute and clean.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}
