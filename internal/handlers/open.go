package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"file-dashboard/internal/database"
	"file-dashboard/internal/filesystem"
	"file-dashboard/internal/launcher"
	"file-dashboard/internal/logging"
	"file-dashboard/internal/media"
	"file-dashboard/internal/metrics"
)

// resolveFile maps a catalogued file to its canonical path on disk. The
// path must stay inside the managed directory once symlinks are resolved.
func (h *Handlers) resolveFile(file *database.File) (string, error) {
	return filesystem.Contain(h.indexer.Root(), h.indexer.ResolvePath(file.Filepath))
}

// OpenFile launches the file in the desktop's default application.
func (h *Handlers) OpenFile(w http.ResponseWriter, r *http.Request) {
	file, ok := h.lookupFile(w, r)
	if !ok {
		return
	}
	back := fileURL(file.ID)

	realPath, err := h.resolveFile(file)
	if err != nil {
		metrics.LaunchesTotal.WithLabelValues("rejected").Inc()
		switch {
		case errors.Is(err, filesystem.ErrOutsideRoot):
			logging.Warn("Refusing to open %q: %v", file.Filepath, err)
			h.addFlash(w, r, flashError, "Access denied: File is outside managed directory")
		case errors.Is(err, filesystem.ErrNotExist):
			h.addFlash(w, r, flashError, "File does not exist on disk")
		default:
			logging.Warn("Cannot resolve %q: %v", file.Filepath, err)
			h.addFlash(w, r, flashError, "Invalid file path")
		}
		redirect(w, r, back)
		return
	}

	if err := h.launcher.Launch(r.Context(), realPath); err != nil {
		logging.Error("failed to open %s: %v", realPath, err)
		message := fmt.Sprintf("Error opening file: %v", err)
		if errors.Is(err, launcher.ErrUnavailable) {
			message = "Error opening file: no default application launcher is installed"
		}
		h.addFlash(w, r, flashError, message)
		redirect(w, r, back)
		return
	}

	logging.Info("Opened %s", file.Filepath)
	h.addFlash(w, r, flashSuccess, "File opened successfully")
	redirect(w, r, back)
}

// GetThumbnail serves a JPEG preview of an image file.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	file, err := h.db.GetFile(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		logging.Error("failed to load file %d: %v", id, err)
		http.Error(w, "Failed to load file", http.StatusInternalServerError)
		return
	}

	realPath, err := h.resolveFile(file)
	switch {
	case errors.Is(err, filesystem.ErrOutsideRoot):
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	case err != nil:
		http.NotFound(w, r)
		return
	}

	data, err := h.thumbGen.Thumbnail(realPath)
	if errors.Is(err, media.ErrUnsupported) {
		http.Error(w, "Preview not available", http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		logging.Warn("thumbnail for %s failed: %v", file.Filepath, err)
		http.Error(w, "Failed to generate preview", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := w.Write(data); err != nil {
		logging.Debug("failed to write thumbnail: %v", err)
	}
}
