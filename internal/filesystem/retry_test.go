package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

type countingObserver struct {
	attempts, successes, failures, stale int
}

func (c *countingObserver) ObserveRetryAttempt(string) { c.attempts++ }
func (c *countingObserver) ObserveRetrySuccess(string) { c.successes++ }
func (c *countingObserver) ObserveRetryFailure(string) { c.failures++ }
func (c *countingObserver) ObserveStaleError(string)   { c.stale++ }

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"ESTALE", syscall.ESTALE, true},
		{"wrapped ESTALE", &fs.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, true},
		{"ENOENT", syscall.ENOENT, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStatWithRetryExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	info, err := StatWithRetry(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("StatWithRetry() error = %v", err)
	}
	if info.Size() != 5 {
		t.Errorf("Size() = %d, want 5", info.Size())
	}
}

func TestStatWithRetryMissingFileFailsFast(t *testing.T) {
	obs := &countingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	_, err := StatWithRetry(filepath.Join(t.TempDir(), "missing"), fastRetryConfig())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("StatWithRetry() error = %v, want not exist", err)
	}
	if obs.attempts != 0 {
		t.Errorf("retry attempts = %d, want 0 for non-stale errors", obs.attempts)
	}
}

func TestStatWithRetryRecoversFromStaleHandle(t *testing.T) {
	obs := &countingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	path := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	calls := 0
	stat := func(p string) (os.FileInfo, error) {
		calls++
		if calls < 3 {
			return nil, &fs.PathError{Op: "stat", Path: p, Err: syscall.ESTALE}
		}
		return os.Lstat(p)
	}

	if _, err := statWithRetry(path, fastRetryConfig(), stat); err != nil {
		t.Fatalf("statWithRetry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("stat called %d times, want 3", calls)
	}
	if obs.stale != 2 || obs.attempts != 2 || obs.successes != 1 {
		t.Errorf("observer = %+v, want stale=2 attempts=2 successes=1", *obs)
	}
}

func TestStatWithRetryGivesUp(t *testing.T) {
	obs := &countingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	stat := func(p string) (os.FileInfo, error) {
		return nil, &fs.PathError{Op: "stat", Path: p, Err: syscall.ESTALE}
	}

	_, err := statWithRetry("/nfs/file", fastRetryConfig(), stat)
	if !isNFSStaleError(err) {
		t.Fatalf("statWithRetry() error = %v, want ESTALE", err)
	}
	if obs.failures != 1 {
		t.Errorf("failures = %d, want 1", obs.failures)
	}
	if obs.attempts != 3 {
		t.Errorf("attempts = %d, want 3", obs.attempts)
	}
}
