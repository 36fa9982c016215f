// Package indexer keeps the file catalog in step with the managed directory.
//
// Each Sync is a full re-walk:
//   - Every regular file under the root is upserted, keyed by its
//     slash-separated path relative to the root
//   - Catalog entries whose path was not seen are pruned
//   - Notes and tags of surviving files are never touched
//
// Symlinks are not followed and are not catalogued. When part of the tree
// cannot be read the prune step is skipped for that pass, so an unreadable
// directory never erases user annotations. A missing root is created and
// reported as an empty catalog.
//
// There is no background scanning: syncs run at startup and when requested.
package indexer
