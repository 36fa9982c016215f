package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"file-dashboard/internal/database"
	"file-dashboard/internal/logging"
	"file-dashboard/internal/mediatypes"

	"github.com/yuin/goldmark"
)

//go:embed templates/*.html
var templateFS embed.FS

// notesRenderer leaves goldmark's unsafe HTML option off, so raw HTML in
// notes is omitted from the output.
var notesRenderer = goldmark.New()

// fileRow is a catalogued file with what the pages display alongside it.
type fileRow struct {
	database.File
	Tags []database.Tag
	Kind mediatypes.FileType
}

func newFileRow(f database.File, tags []database.Tag) fileRow {
	return fileRow{File: f, Tags: tags, Kind: mediatypes.GetFileType(f.Filename)}
}

// ViewData is passed to every page template.
type ViewData struct {
	Title           string
	ContentTemplate string
	ContentHTML     template.HTML
	Flashes         []Flash
	ManagedDir      string
	LastSync        time.Time

	Files        []fileRow
	AllTags      []database.Tag
	SearchQuery  string
	SelectedTags map[string]bool
	Searching    bool

	File       *fileRow
	NotesHTML  template.HTML
	HasPreview bool
}

type templates struct {
	all *template.Template
}

func mustParseTemplates() *templates {
	t := template.New("").Funcs(template.FuncMap{
		"bytes":    formatBytes,
		"datetime": formatTime,
	})
	t = template.Must(t.ParseFS(templateFS, "templates/*.html"))
	return &templates{all: t}
}

// renderPage executes data.ContentTemplate and wraps it in the base layout.
func (t *templates) renderPage(w http.ResponseWriter, data ViewData) {
	var content bytes.Buffer
	if err := t.all.ExecuteTemplate(&content, data.ContentTemplate, data); err != nil {
		logging.Error("failed to render %s: %v", data.ContentTemplate, err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	data.ContentHTML = template.HTML(content.String()) //nolint:gosec // G203 - output of html/template

	var page bytes.Buffer
	if err := t.all.ExecuteTemplate(&page, "base", data); err != nil {
		logging.Error("failed to render layout: %v", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := page.WriteTo(w); err != nil {
		logging.Debug("failed to write page: %v", err)
	}
}

// renderNotes converts Markdown notes to HTML.
func renderNotes(notes string) template.HTML {
	if notes == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := notesRenderer.Convert([]byte(notes), &buf); err != nil {
		logging.Warn("failed to render notes: %v", err)
		return template.HTML("<pre>" + template.HTMLEscapeString(notes) + "</pre>") //nolint:gosec // G203 - escaped above
	}
	return template.HTML(buf.String()) //nolint:gosec // G203 - goldmark omits raw HTML
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
