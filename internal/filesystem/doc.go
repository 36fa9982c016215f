/*
Package filesystem provides the filesystem guards used before the dashboard
touches a catalogued file.

# Containment

Contain canonicalizes a candidate path and the managed root (absolute,
cleaned and symlink-resolved) and rejects the candidate unless it lies inside
the root:

	real, err := filesystem.Contain(root, filepath.Join(root, rel))
	switch {
	case errors.Is(err, filesystem.ErrOutsideRoot):
	    // traversal via ".." or a symlink pointing elsewhere
	case errors.Is(err, filesystem.ErrNotExist):
	    // catalogued file is gone from disk
	}

# Retry

StatWithRetry wraps os.Stat with capped exponential backoff for NFS stale
file handle errors (ESTALE). All other errors fail immediately. Retry counts
are reported through the Observer registered with SetObserver.
*/
package filesystem
