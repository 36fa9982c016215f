// Package media provides image preview generation for catalogued files.
//
// The ThumbnailGenerator decodes JPEG, PNG, GIF, BMP, TIFF and WebP images,
// applies EXIF orientation, fits them into a square bounding box and encodes
// the result as JPEG. Recent previews are cached in memory and invalidated
// when the file's size or modification time changes.
package media
