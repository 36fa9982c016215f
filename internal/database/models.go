package database

import "time"

// File is a catalogued file. Filepath is relative to the managed directory,
// slash-separated, and unique.
type File struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Filepath   string    `json:"filepath"`
	Size       int64     `json:"file_size"`
	ModifiedAt time.Time `json:"file_modified"`
	IndexedAt  time.Time `json:"indexed_at"`
	Notes      string    `json:"notes"`
}

// Tag is a user-defined label. Names are unique and case-sensitive.
type Tag struct {
	ID        int64  `json:"id"`
	Name      string `json:"tag_name"`
	FileCount int    `json:"file_count,omitempty"`
}

// Stats summarizes the catalog.
type Stats struct {
	Files        int64 `json:"files"`
	Bytes        int64 `json:"bytes"`
	Tags         int64 `json:"tags"`
	Associations int64 `json:"associations"`
}
