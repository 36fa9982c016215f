package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"testing"
	"time"
)

// fakeStore records indexer calls in memory.
type fakeStore struct {
	mu        sync.Mutex
	upserts   map[string]int64
	pruned    [][]string
	upsertErr error
	lastSync  time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{upserts: make(map[string]int64)}
}

func (s *fakeStore) UpsertFile(_ context.Context, _, path string, size int64, _ time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	s.upserts[path] = size
	return int64(len(s.upserts)), nil
}

func (s *fakeStore) PruneMissing(_ context.Context, surviving []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruned = append(s.pruned, slices.Clone(surviving))
	return 0, nil
}

func (s *fakeStore) SetLastSync(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync = t
	return nil
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSyncCollectsRelativeSlashPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, "docs/b.pdf", "bb")
	writeFile(t, root, "docs/deep/c.md", "ccc")
	writeFile(t, root, ".hidden", "h")
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	store := newFakeStore()
	idx := New(store, root)

	result, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Indexed != 4 {
		t.Errorf("Indexed = %d, want 4", result.Indexed)
	}

	want := map[string]int64{"a.txt": 1, "docs/b.pdf": 2, "docs/deep/c.md": 3, ".hidden": 1}
	for path, size := range want {
		if got, ok := store.upserts[path]; !ok || got != size {
			t.Errorf("upsert %q = %d (present %v), want size %d", path, got, ok, size)
		}
	}

	if len(store.pruned) != 1 {
		t.Fatalf("PruneMissing called %d times, want 1", len(store.pruned))
	}
	surviving := slices.Sorted(slices.Values(store.pruned[0]))
	if !slices.Equal(surviving, []string{".hidden", "a.txt", "docs/b.pdf", "docs/deep/c.md"}) {
		t.Errorf("surviving = %v", surviving)
	}

	if store.lastSync.IsZero() {
		t.Error("last sync time was not recorded")
	}

	last, lastErr := idx.LastResult()
	if lastErr != nil || last.Indexed != 4 {
		t.Errorf("LastResult = %+v, %v", last, lastErr)
	}
}

func TestSyncCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "managed", "files")

	store := newFakeStore()
	result, err := New(store, root).Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Indexed != 0 {
		t.Errorf("Indexed = %d, want 0", result.Indexed)
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Fatalf("root not created: %v", err)
	}
	if len(store.pruned) != 0 {
		t.Error("bootstrap sync must not prune")
	}
}

func TestSyncRootIsAFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(root, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(newFakeStore(), root).Sync(context.Background()); err == nil {
		t.Fatal("expected error when root is a regular file")
	}
}

func TestSyncSkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, root, "real.txt", "r")
	writeFile(t, outside, "secret.txt", "s")

	if err := os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "linkdir")); err != nil {
		t.Fatal(err)
	}
	// Cycle back to the root.
	if err := os.Symlink(root, filepath.Join(root, "loop")); err != nil {
		t.Fatal(err)
	}

	store := newFakeStore()
	result, err := New(store, root).Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Indexed != 1 {
		t.Errorf("Indexed = %d, want 1", result.Indexed)
	}
	if _, ok := store.upserts["real.txt"]; !ok {
		t.Error("real.txt not indexed")
	}
}

func TestSyncThroughSymlinkedRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	target := t.TempDir()
	writeFile(t, target, "sub/a.txt", "a")

	root := filepath.Join(t.TempDir(), "managed")
	if err := os.Symlink(target, root); err != nil {
		t.Fatal(err)
	}

	store := newFakeStore()
	result, err := New(store, root).Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Indexed != 1 {
		t.Errorf("Indexed = %d, want 1", result.Indexed)
	}
	if _, ok := store.upserts["sub/a.txt"]; !ok {
		t.Errorf("upserts = %v, want sub/a.txt", store.upserts)
	}
}

func TestSyncSkipsPruneWhenSubtreeUnreadable(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	root := t.TempDir()
	writeFile(t, root, "ok.txt", "x")
	writeFile(t, root, "locked/inside.txt", "y")

	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	store := newFakeStore()
	result, err := New(store, root).Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !result.Incomplete {
		t.Error("expected Incomplete result")
	}
	if len(store.pruned) != 0 {
		t.Error("prune must be skipped when part of the tree is unreadable")
	}
}

func TestSyncStoreErrorAbortsBeforePrune(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")

	store := newFakeStore()
	store.upsertErr = errors.New("disk I/O error")

	idx := New(store, root)
	if _, err := idx.Sync(context.Background()); err == nil {
		t.Fatal("expected error from failing store")
	}
	if len(store.pruned) != 0 {
		t.Error("prune must not run after a failed upsert")
	}
	if _, lastErr := idx.LastResult(); lastErr == nil {
		t.Error("LastResult should report the failure")
	}
}

func TestSyncCanceledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newFakeStore()
	if _, err := New(store, root).Sync(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Sync error = %v, want context.Canceled", err)
	}
	if len(store.pruned) != 0 {
		t.Error("canceled sync must not prune")
	}
}

func TestSyncConcurrentCallsSerialize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, "b.txt", "b")

	store := newFakeStore()
	idx := New(store, root)

	var wg sync.WaitGroup
	results := make([]Result, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := idx.Sync(context.Background())
			if err != nil {
				t.Errorf("Sync failed: %v", err)
			}
			results[i] = r
		}()
	}
	wg.Wait()

	for i, r := range results {
		if r.Indexed != 2 {
			t.Errorf("results[%d].Indexed = %d, want 2", i, r.Indexed)
		}
	}
	if len(store.pruned) != len(results) {
		t.Errorf("PruneMissing called %d times, want %d", len(store.pruned), len(results))
	}
	if idx.IsSyncing() {
		t.Error("IsSyncing should be false after all syncs return")
	}
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	idx := New(nil, root)

	tests := []struct {
		rel  string
		want string
	}{
		{"a.txt", filepath.Join(root, "a.txt")},
		{"docs/b.pdf", filepath.Join(root, "docs", "b.pdf")},
		{"../../etc/passwd", filepath.Join(root, "..", "..", "etc", "passwd")},
	}

	for _, tt := range tests {
		if got := idx.ResolvePath(tt.rel); got != tt.want {
			t.Errorf("ResolvePath(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}

	if idx.Root() != filepath.Clean(root) {
		t.Errorf("Root() = %q, want %q", idx.Root(), root)
	}
}

func TestSyncKeepsFilesThatFailStat(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	root := t.TempDir()
	writeFile(t, root, "ok.txt", "x")
	writeFile(t, root, "noexec/a.txt", "y")

	// Readable but not searchable: the entry is listed, stat fails.
	noexec := filepath.Join(root, "noexec")
	if err := os.Chmod(noexec, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(noexec, 0o755) })

	store := newFakeStore()
	result, err := New(store, root).Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Indexed != 2 {
		t.Errorf("Indexed = %d, want 2", result.Indexed)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if _, ok := store.upserts["noexec/a.txt"]; ok {
		t.Error("file that failed stat should not be upserted")
	}
	if len(store.pruned) != 1 || !slices.Contains(store.pruned[0], "noexec/a.txt") {
		t.Errorf("surviving = %v, want noexec/a.txt kept", store.pruned)
	}
}

func TestSyncSkipsExcludedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, "data/catalog.db", "db")
	writeFile(t, root, "data/catalog.db-wal", "wal")

	store := newFakeStore()
	idx := New(store, root)
	idx.Exclude(
		filepath.Join(root, "data", "catalog.db"),
		filepath.Join(root, "data", "catalog.db-wal"),
		filepath.Join(root, "data", "catalog.db-shm"),
		filepath.Join(t.TempDir(), "elsewhere.db"),
	)

	result, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Indexed != 1 {
		t.Errorf("Indexed = %d, want 1", result.Indexed)
	}
	for _, rel := range []string{"data/catalog.db", "data/catalog.db-wal"} {
		if _, ok := store.upserts[rel]; ok {
			t.Errorf("%s was catalogued", rel)
		}
	}
	if len(store.pruned) != 1 || slices.Contains(store.pruned[0], "data/catalog.db") {
		t.Errorf("surviving = %v, want database files absent", store.pruned)
	}
}
