package media

import (
	"fmt"
	"image"
	"os"

	"file-dashboard/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the maximum width or height we'll process.
	// Images larger than this will be downscaled first.
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total pixels (width * height) we'll process.
	MaxImagePixels = 20_000_000 // ~20MP, uses ~80MB in RGBA
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// loadImage decodes an image with EXIF auto-orientation, refusing images
// whose header declares more than MaxImagePixels.
func loadImage(path string) (image.Image, error) {
	dimensions, err := GetImageDimensions(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	if pixels := dimensions.Width * dimensions.Height; pixels > MaxImagePixels {
		return nil, fmt.Errorf("image %dx%d exceeds %d pixels", dimensions.Width, dimensions.Height, MaxImagePixels)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxImageDimension || bounds.Dy() > MaxImageDimension {
		logging.Debug("Constraining large image %s from %dx%d", path, bounds.Dx(), bounds.Dy())
		img = imaging.Fit(img, MaxImageDimension, MaxImageDimension, imaging.Lanczos)
	}
	return img, nil
}
