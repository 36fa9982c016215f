package handlers

import (
	"time"

	"file-dashboard/internal/database"
	"file-dashboard/internal/indexer"
	"file-dashboard/internal/launcher"
	"file-dashboard/internal/media"
	"file-dashboard/internal/startup"
)

// Handlers holds the services shared by every request.
type Handlers struct {
	db             *database.Database
	indexer        *indexer.Indexer
	launcher       launcher.Launcher
	thumbGen       *media.ThumbnailGenerator
	views          *templates
	flash          *flashCodec
	managedDir     string
	metricsEnabled bool
	startTime      time.Time
}

// New wires the handlers to their services.
func New(db *database.Database, idx *indexer.Indexer, l launcher.Launcher, config *startup.Config) *Handlers {
	return &Handlers{
		db:             db,
		indexer:        idx,
		launcher:       l,
		thumbGen:       media.NewThumbnailGenerator(config.ThumbnailSize),
		views:          mustParseTemplates(),
		flash:          newFlashCodec(config.SecretKey, flashMaxAge),
		managedDir:     idx.Root(),
		metricsEnabled: config.MetricsEnabled,
		startTime:      time.Now(),
	}
}
