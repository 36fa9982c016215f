package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"file-dashboard/internal/filesystem"
	"file-dashboard/internal/logging"
	"file-dashboard/internal/metrics"
)

// Store is the subset of the catalog the indexer writes to.
type Store interface {
	UpsertFile(ctx context.Context, filename, filepath string, size int64, modifiedAt time.Time) (int64, error)
	PruneMissing(ctx context.Context, surviving []string) (int64, error)
}

// syncRecorder is implemented by stores that persist the last sync time.
type syncRecorder interface {
	SetLastSync(ctx context.Context, t time.Time) error
}

// Result summarizes one sync pass.
type Result struct {
	// Indexed is the number of regular files seen in the tree. It includes
	// files whose stat failed; their entries are kept but not refreshed.
	Indexed int `json:"indexed"`
	// Pruned is the number of catalog entries removed because their file is gone.
	Pruned int64 `json:"pruned"`
	// Skipped counts listed files that were not upserted, either because
	// stat failed or because they vanished before stat.
	Skipped int `json:"skipped"`
	// Incomplete is set when part of the tree could not be read and the
	// prune step was skipped.
	Incomplete bool          `json:"incomplete"`
	Duration   time.Duration `json:"duration"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// Indexer reconciles the catalog with the contents of the managed directory.
type Indexer struct {
	store    Store
	root     string
	retry    filesystem.RetryConfig
	excluded []string

	syncMu sync.Mutex

	stateMu    sync.RWMutex
	lastResult Result
	lastErr    error
	running    bool
}

// New creates an Indexer for root.
func New(store Store, root string) *Indexer {
	return &Indexer{
		store: store,
		root:  filepath.Clean(root),
		retry: filesystem.DefaultRetryConfig(),
	}
}

// Exclude keeps the given absolute paths out of the catalog. Paths outside
// the managed directory are ignored.
func (idx *Indexer) Exclude(paths ...string) {
	for _, p := range paths {
		idx.excluded = append(idx.excluded, filepath.Clean(p))
	}
}

// Root returns the managed directory.
func (idx *Indexer) Root() string {
	return idx.root
}

// ResolvePath joins a catalog path (slash-separated, relative to the root)
// with the managed directory. The result is not validated; callers must
// check containment with filesystem.Contain before touching it.
func (idx *Indexer) ResolvePath(rel string) string {
	return filepath.Join(idx.root, filepath.FromSlash(rel))
}

// LastResult returns the outcome of the most recent completed sync and the
// error it returned, if any.
func (idx *Indexer) LastResult() (Result, error) {
	idx.stateMu.RLock()
	defer idx.stateMu.RUnlock()
	return idx.lastResult, idx.lastErr
}

// IsSyncing reports whether a sync is in progress.
func (idx *Indexer) IsSyncing() bool {
	idx.stateMu.RLock()
	defer idx.stateMu.RUnlock()
	return idx.running
}

// Sync walks the managed directory, upserts every regular file and removes
// catalog entries whose file no longer exists. Concurrent calls run one
// after another, each performing its own full pass.
//
// A missing root is created and reported as zero files without pruning.
func (idx *Indexer) Sync(ctx context.Context) (Result, error) {
	idx.syncMu.Lock()
	defer idx.syncMu.Unlock()

	idx.setRunning(true)
	defer idx.setRunning(false)

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)
	metrics.IndexerRunsTotal.Inc()

	start := time.Now()
	logging.Info("Starting sync of %s", idx.root)

	result, err := idx.sync(ctx)
	result.Duration = time.Since(start)
	result.FinishedAt = time.Now()

	idx.stateMu.Lock()
	idx.lastResult = result
	idx.lastErr = err
	idx.stateMu.Unlock()

	if err != nil {
		metrics.IndexerErrors.Inc()
		logging.Error("Sync failed after %v: %v", result.Duration, err)
		return result, err
	}

	metrics.IndexerLastRunTimestamp.Set(float64(result.FinishedAt.Unix()))
	metrics.IndexerLastRunDuration.Set(result.Duration.Seconds())
	metrics.IndexerFilesProcessed.Add(float64(result.Indexed))
	metrics.IndexerFilesPruned.Add(float64(result.Pruned))

	if rec, ok := idx.store.(syncRecorder); ok {
		if err := rec.SetLastSync(ctx, result.FinishedAt); err != nil {
			logging.Warn("Failed to record sync time: %v", err)
		}
	}

	logging.Info("Sync complete: %d files indexed, %d pruned, %d skipped in %v",
		result.Indexed, result.Pruned, result.Skipped, result.Duration)
	return result, nil
}

func (idx *Indexer) setRunning(running bool) {
	idx.stateMu.Lock()
	idx.running = running
	idx.stateMu.Unlock()
}

func (idx *Indexer) sync(ctx context.Context) (Result, error) {
	var result Result

	info, err := os.Stat(idx.root)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Info("Managed directory %s does not exist, creating it", idx.root)
		if err := os.MkdirAll(idx.root, 0o755); err != nil {
			return result, fmt.Errorf("create managed directory: %w", err)
		}
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("stat managed directory: %w", err)
	}
	if !info.IsDir() {
		return result, fmt.Errorf("managed directory %s is not a directory", idx.root)
	}

	// WalkDir does not descend into a symlinked root, so walk its target.
	walkRoot, err := filepath.EvalSymlinks(idx.root)
	if err != nil {
		return result, fmt.Errorf("resolve managed directory: %w", err)
	}

	excluded := idx.excludedRelPaths(walkRoot)
	seen := make([]string, 0, 256)
	walkErrors := 0

	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == walkRoot {
				return err
			}
			walkErrors++
			logging.Warn("Cannot read %s: %v", path, err)
			return nil
		}

		// Symlinks, sockets, devices and directories are not catalogued.
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			walkErrors++
			logging.Warn("Cannot relativize %s: %v", path, err)
			return nil
		}
		rel = filepath.ToSlash(rel)
		if excluded[rel] {
			return nil
		}

		fi, err := filesystem.StatWithRetry(path, idx.retry)
		if errors.Is(err, fs.ErrNotExist) {
			// Removed between listing and stat.
			result.Skipped++
			return nil
		}
		if err != nil {
			// Keep the existing entry but do not refresh it.
			logging.Warn("Cannot stat %s: %v", path, err)
			result.Skipped++
			result.Indexed++
			seen = append(seen, rel)
			return nil
		}

		if _, err := idx.store.UpsertFile(ctx, d.Name(), rel, fi.Size(), fi.ModTime()); err != nil {
			return fmt.Errorf("index %s: %w", rel, err)
		}

		seen = append(seen, rel)
		result.Indexed++

		if result.Indexed%1000 == 0 {
			logging.Debug("Sync progress: %d files", result.Indexed)
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	if walkErrors > 0 {
		result.Incomplete = true
		logging.Warn("Skipping prune: %d part(s) of %s could not be read", walkErrors, idx.root)
		return result, nil
	}

	pruned, err := idx.store.PruneMissing(ctx, seen)
	if err != nil {
		return result, err
	}
	result.Pruned = pruned

	return result, nil
}

// excludedRelPaths maps the excluded paths that fall inside walkRoot to
// their catalog form.
func (idx *Indexer) excludedRelPaths(walkRoot string) map[string]bool {
	out := make(map[string]bool, len(idx.excluded))
	for _, p := range idx.excluded {
		dir := filepath.Dir(p)
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			dir = resolved
		}
		rel, err := filepath.Rel(walkRoot, filepath.Join(dir, filepath.Base(p)))
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		out[filepath.ToSlash(rel)] = true
	}
	return out
}
