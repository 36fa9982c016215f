package handlers

import (
	"net/http"

	"file-dashboard/internal/database"
	"file-dashboard/internal/logging"
)

// ListFilesJSON returns every file record as a JSON array. Tags are not
// included.
func (h *Handlers) ListFilesJSON(w http.ResponseWriter, r *http.Request) {
	files, err := h.db.ListFiles(r.Context())
	if err != nil {
		logging.Error("failed to list files: %v", err)
		writeJSONError(w, "Failed to list files", http.StatusInternalServerError)
		return
	}

	if files == nil {
		files = []database.File{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, files)
}

// ListTagsJSON returns every tag with its file count.
func (h *Handlers) ListTagsJSON(w http.ResponseWriter, r *http.Request) {
	tags, err := h.db.ListTags(r.Context())
	if err != nil {
		logging.Error("failed to list tags: %v", err)
		writeJSONError(w, "Failed to list tags", http.StatusInternalServerError)
		return
	}

	if tags == nil {
		tags = []database.Tag{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, tags)
}
