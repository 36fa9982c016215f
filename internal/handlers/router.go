package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Router builds the route table. Numeric route variables are constrained
// in the patterns so handlers only see parseable ids.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", h.Index).Methods(http.MethodGet).Name("index")
	r.HandleFunc("/search", h.Search).Methods(http.MethodGet).Name("search")
	r.HandleFunc("/refresh", h.Refresh).Methods(http.MethodGet).Name("refresh")

	const file = "/file/{id:[0-9]+}"
	r.HandleFunc(file, h.FileDetail).Methods(http.MethodGet).Name("file_detail")
	r.HandleFunc(file+"/update_notes", h.UpdateNotes).Methods(http.MethodPost).Name("update_notes")
	r.HandleFunc(file+"/add_tag", h.AddTag).Methods(http.MethodPost).Name("add_tag")
	r.HandleFunc(file+"/remove_tag/{tag_id:[0-9]+}", h.RemoveTag).Methods(http.MethodPost).Name("remove_tag")
	r.HandleFunc(file+"/open", h.OpenFile).Methods(http.MethodGet).Name("open_file")
	r.HandleFunc(file+"/thumbnail", h.GetThumbnail).Methods(http.MethodGet).Name("thumbnail")

	r.HandleFunc("/api/files", h.ListFilesJSON).Methods(http.MethodGet).Name("api_files")
	r.HandleFunc("/api/tags", h.ListTagsJSON).Methods(http.MethodGet).Name("api_tags")

	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet).Name("health")
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead).Name("liveness")
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet).Name("version")

	if h.metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet).Name("metrics")
	}

	return r
}
