package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, op := range []string{
		"upsert_file", "list_files", "get_file", "update_notes", "delete_file",
		"search_by_text", "search_by_tags", "get_or_create_tag", "list_tags",
		"attach_tag", "detach_tag", "tags_for_file", "tags_for_files",
		"prune_missing", "stats",
	} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, status := range []string{"success", "error", "rejected"} {
		LaunchesTotal.WithLabelValues(status)
	}

	for _, status := range []string{"success", "error", "unsupported"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	FilesystemRetryAttempts.WithLabelValues("stat")
	FilesystemRetrySuccess.WithLabelValues("stat")
	FilesystemRetryFailures.WithLabelValues("stat")
	FilesystemStaleErrors.WithLabelValues("stat")
}
