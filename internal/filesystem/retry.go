package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"file-dashboard/internal/logging"
)

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}

	return false
}

// StatWithRetry performs os.Lstat with retry logic for NFS stale file handle
// errors. Lstat is used so that symlinks are reported as such rather than
// followed.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return statWithRetry(path, config, os.Lstat)
}

func statWithRetry(path string, config RetryConfig, stat func(string) (os.FileInfo, error)) (os.FileInfo, error) {
	obs := observe()
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		info, err := stat(path)
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS Stat succeeded on retry %d for %s", attempt, path)
				obs.ObserveRetrySuccess("stat")
			}
			return info, nil
		}

		lastErr = err

		if !isNFSStaleError(err) {
			return nil, err
		}

		obs.ObserveStaleError("stat")

		// Don't sleep after the last attempt
		if attempt < config.MaxRetries {
			obs.ObserveRetryAttempt("stat")
			logging.Debug("NFS Stat stale file handle for %s, retrying in %v (attempt %d/%d)",
				path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("NFS Stat failed after %d retries for %s: %v", config.MaxRetries, path, lastErr)
	obs.ObserveRetryFailure("stat")
	return nil, lastErr
}
