// Package handlers provides the HTTP handlers for the file dashboard.
//
// It includes handlers for:
//   - The file list, search and file detail pages
//   - Editing notes and attaching or detaching tags
//   - Opening a file in the desktop's default application
//   - Image previews
//   - Re-syncing the catalog with the managed directory
//   - JSON listings, health checks, version and metrics
//
// Pages are rendered from embedded html/template files. One-shot notices
// shown after a redirect travel in an encrypted, expiring cookie.
package handlers
