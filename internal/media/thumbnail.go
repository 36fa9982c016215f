package media

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"sync"
	"time"

	"file-dashboard/internal/filesystem"
	"file-dashboard/internal/logging"
	"file-dashboard/internal/mediatypes"
	"file-dashboard/internal/metrics"

	"github.com/disintegration/imaging"
)

// ErrUnsupported is returned for files that cannot be previewed.
var ErrUnsupported = errors.New("preview not supported for this file type")

const (
	// DefaultThumbnailSize is the bounding box used when none is configured.
	DefaultThumbnailSize = 320

	maxCachedThumbnails = 256
)

type cacheKey struct {
	path    string
	size    int64
	modTime time.Time
}

// ThumbnailGenerator renders JPEG previews of image files and keeps recent
// results in memory, keyed by path, size and modification time.
type ThumbnailGenerator struct {
	maxDim int

	mu    sync.Mutex
	cache map[cacheKey][]byte
	order []cacheKey
}

// NewThumbnailGenerator creates a generator fitting previews into a
// maxDim x maxDim box.
func NewThumbnailGenerator(maxDim int) *ThumbnailGenerator {
	if maxDim <= 0 {
		maxDim = DefaultThumbnailSize
	}
	logging.Debug("ThumbnailGenerator: max dimension %d", maxDim)
	return &ThumbnailGenerator{
		maxDim: maxDim,
		cache:  make(map[cacheKey][]byte),
	}
}

// MaxDimension returns the bounding box size.
func (t *ThumbnailGenerator) MaxDimension() int {
	return t.maxDim
}

// Thumbnail returns a JPEG preview of the image at path.
func (t *ThumbnailGenerator) Thumbnail(path string) (data []byte, err error) {
	if !mediatypes.IsPreviewable(path) {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("unsupported").Inc()
		return nil, ErrUnsupported
	}

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}
	if !info.Mode().IsRegular() {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("unsupported").Inc()
		return nil, ErrUnsupported
	}

	key := cacheKey{path: path, size: info.Size(), modTime: info.ModTime()}

	t.mu.Lock()
	if data, ok := t.cache[key]; ok {
		t.mu.Unlock()
		logging.Debug("Thumbnail cache hit: %s", path)
		return data, nil
	}
	t.mu.Unlock()

	start := time.Now()
	defer func() {
		metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
		switch {
		case errors.Is(err, ErrUnsupported):
			metrics.ThumbnailGenerationsTotal.WithLabelValues("unsupported").Inc()
		case err != nil:
			metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		default:
			metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
		}
	}()

	data, err = Thumbnail(path, t.maxDim)
	if err != nil {
		return nil, err
	}

	t.store(key, data)
	return data, nil
}

func (t *ThumbnailGenerator) store(key cacheKey, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.cache[key]; ok {
		return
	}
	if len(t.order) >= maxCachedThumbnails {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.cache, oldest)
	}
	t.cache[key] = data
	t.order = append(t.order, key)
}

// Thumbnail decodes the image at path, fits it into a maxDim x maxDim box
// and encodes it as JPEG. Images smaller than the box are not enlarged.
func Thumbnail(path string, maxDim int) ([]byte, error) {
	img, err := loadImage(path)
	if err != nil {
		return nil, err
	}

	thumb := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
