package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"file-dashboard/internal/database"
	"file-dashboard/internal/logging"
	"file-dashboard/internal/mediatypes"
)

// Index lists every catalogued file.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	files, err := h.db.ListFiles(r.Context())
	if err != nil {
		logging.Error("failed to list files: %v", err)
		http.Error(w, "Failed to list files", http.StatusInternalServerError)
		return
	}
	h.renderFileList(w, r, files, ViewData{Title: "Files"})
}

// Search filters the list by tags (any of them) or, when no tag is
// selected, by a substring of the filename or notes.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	var tagFilter []string
	for _, name := range r.URL.Query()["tags"] {
		if name = strings.TrimSpace(name); name != "" {
			tagFilter = append(tagFilter, name)
		}
	}

	var (
		files []database.File
		err   error
	)
	switch {
	case len(tagFilter) > 0:
		files, err = h.db.SearchByTags(r.Context(), tagFilter)
	case query != "":
		files, err = h.db.SearchByText(r.Context(), query)
	default:
		files, err = h.db.ListFiles(r.Context())
	}
	if err != nil {
		logging.Error("search failed (q=%q, tags=%v): %v", query, tagFilter, err)
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}

	selected := make(map[string]bool, len(tagFilter))
	for _, name := range tagFilter {
		selected[name] = true
	}

	h.renderFileList(w, r, files, ViewData{
		Title:        "Search",
		SearchQuery:  query,
		SelectedTags: selected,
		Searching:    true,
	})
}

func (h *Handlers) renderFileList(w http.ResponseWriter, r *http.Request, files []database.File, data ViewData) {
	ctx := r.Context()

	ids := make([]int64, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	tagsByFile, err := h.db.TagsForFiles(ctx, ids)
	if err != nil {
		logging.Error("failed to load file tags: %v", err)
		http.Error(w, "Failed to load tags", http.StatusInternalServerError)
		return
	}

	allTags, err := h.db.ListTags(ctx)
	if err != nil {
		logging.Error("failed to list tags: %v", err)
		http.Error(w, "Failed to load tags", http.StatusInternalServerError)
		return
	}

	data.Files = make([]fileRow, len(files))
	for i, f := range files {
		data.Files[i] = newFileRow(f, tagsByFile[f.ID])
	}
	data.AllTags = allTags
	data.ContentTemplate = "index"
	h.render(w, r, data)
}

// render fills the layout fields and writes the page.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, data ViewData) {
	data.ManagedDir = h.managedDir
	if last, err := h.db.GetLastSync(r.Context()); err == nil {
		data.LastSync = last
	}
	data.Flashes = h.popFlashes(w, r)
	h.views.renderPage(w, data)
}

// FileDetail shows one file with its tags and notes.
func (h *Handlers) FileDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	file, ok := h.lookupFile(w, r)
	if !ok {
		return
	}

	tags, err := h.db.TagsForFile(ctx, file.ID)
	if err != nil {
		logging.Error("failed to load tags for file %d: %v", file.ID, err)
		http.Error(w, "Failed to load tags", http.StatusInternalServerError)
		return
	}
	allTags, err := h.db.ListTags(ctx)
	if err != nil {
		logging.Error("failed to list tags: %v", err)
		http.Error(w, "Failed to load tags", http.StatusInternalServerError)
		return
	}

	row := newFileRow(*file, tags)
	h.render(w, r, ViewData{
		Title:           file.Filename,
		ContentTemplate: "detail",
		File:            &row,
		AllTags:         allTags,
		NotesHTML:       renderNotes(file.Notes),
		HasPreview:      mediatypes.IsPreviewable(file.Filename),
	})
}

// lookupFile loads the file named by the {id} route variable. Unknown ids
// redirect to the list with an error notice.
func (h *Handlers) lookupFile(w http.ResponseWriter, r *http.Request) (*database.File, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}

	file, err := h.db.GetFile(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.addFlash(w, r, flashError, "File not found")
		redirect(w, r, "/")
		return nil, false
	}
	if err != nil {
		logging.Error("failed to load file %d: %v", id, err)
		http.Error(w, "Failed to load file", http.StatusInternalServerError)
		return nil, false
	}
	return file, true
}

// UpdateNotes replaces a file's notes with the submitted form value.
func (h *Handlers) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	err = h.db.UpdateNotes(r.Context(), id, r.FormValue("notes"))
	switch {
	case errors.Is(err, database.ErrNotFound):
		h.addFlash(w, r, flashError, "File not found")
		redirect(w, r, "/")
		return
	case err != nil:
		logging.Error("failed to update notes for file %d: %v", id, err)
		h.addFlash(w, r, flashError, "Failed to update notes")
	default:
		h.addFlash(w, r, flashSuccess, "Notes updated successfully")
	}
	redirect(w, r, fileURL(id))
}

// AddTag attaches the submitted tag, creating it on first use. A blank
// name is ignored.
func (h *Handlers) AddTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	name := strings.TrimSpace(r.FormValue("tag_name"))
	if name == "" {
		redirect(w, r, fileURL(id))
		return
	}

	err = h.db.AttachTag(r.Context(), id, name)
	switch {
	case errors.Is(err, database.ErrNotFound):
		h.addFlash(w, r, flashError, "File not found")
		redirect(w, r, "/")
		return
	case errors.Is(err, database.ErrEmptyTagName):
		// nothing to attach
	case err != nil:
		logging.Error("failed to tag file %d with %q: %v", id, name, err)
		h.addFlash(w, r, flashError, "Failed to add tag")
	default:
		h.addFlash(w, r, flashSuccess, fmt.Sprintf("Tag %q added successfully", name))
	}
	redirect(w, r, fileURL(id))
}

// RemoveTag detaches a tag from a file. The tag itself is kept.
func (h *Handlers) RemoveTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	tagID, err := pathID(r, "tag_id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.db.DetachTag(r.Context(), id, tagID); err != nil {
		logging.Error("failed to remove tag %d from file %d: %v", tagID, id, err)
		h.addFlash(w, r, flashError, "Failed to remove tag")
	} else {
		h.addFlash(w, r, flashSuccess, "Tag removed successfully")
	}
	redirect(w, r, fileURL(id))
}

// Refresh re-syncs the catalog with the managed directory.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	// A client disconnect must not abandon a sync halfway through its writes.
	result, err := h.indexer.Sync(context.WithoutCancel(r.Context()))
	if err != nil {
		logging.Error("sync failed: %v", err)
		h.addFlash(w, r, flashError, fmt.Sprintf("Directory sync failed: %v", err))
		redirect(w, r, "/")
		return
	}

	message := fmt.Sprintf("Directory synced successfully. %d files indexed.", result.Indexed)
	if result.Incomplete {
		message += " Some folders could not be read, so removed files were kept."
	}
	h.addFlash(w, r, flashSuccess, message)
	redirect(w, r, "/")
}
