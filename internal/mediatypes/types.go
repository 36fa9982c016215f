package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType is the coarse kind of a catalogued file, derived from its extension.
type FileType string

const (
	// FileTypeImage represents an image file.
	FileTypeImage FileType = "image"
	// FileTypeVideo represents a video file.
	FileTypeVideo FileType = "video"
	// FileTypeAudio represents an audio file.
	FileTypeAudio FileType = "audio"
	// FileTypeDocument represents a text, office or PDF document.
	FileTypeDocument FileType = "document"
	// FileTypeArchive represents a compressed archive.
	FileTypeArchive FileType = "archive"
	// FileTypeOther represents an unknown file type.
	FileTypeOther FileType = "other"
)

var extensionTypes = map[string]FileType{
	".jpg": FileTypeImage, ".jpeg": FileTypeImage, ".png": FileTypeImage,
	".gif": FileTypeImage, ".bmp": FileTypeImage, ".webp": FileTypeImage,
	".svg": FileTypeImage, ".ico": FileTypeImage, ".tiff": FileTypeImage,
	".tif": FileTypeImage, ".heic": FileTypeImage, ".heif": FileTypeImage,

	".mp4": FileTypeVideo, ".mkv": FileTypeVideo, ".avi": FileTypeVideo,
	".mov": FileTypeVideo, ".wmv": FileTypeVideo, ".flv": FileTypeVideo,
	".webm": FileTypeVideo, ".m4v": FileTypeVideo, ".mpeg": FileTypeVideo,
	".mpg": FileTypeVideo, ".3gp": FileTypeVideo,

	".mp3": FileTypeAudio, ".flac": FileTypeAudio, ".wav": FileTypeAudio,
	".ogg": FileTypeAudio, ".m4a": FileTypeAudio, ".aac": FileTypeAudio,
	".opus": FileTypeAudio,

	".pdf": FileTypeDocument, ".txt": FileTypeDocument, ".md": FileTypeDocument,
	".doc": FileTypeDocument, ".docx": FileTypeDocument, ".odt": FileTypeDocument,
	".xls": FileTypeDocument, ".xlsx": FileTypeDocument, ".ods": FileTypeDocument,
	".ppt": FileTypeDocument, ".pptx": FileTypeDocument, ".odp": FileTypeDocument,
	".rtf": FileTypeDocument, ".csv": FileTypeDocument, ".epub": FileTypeDocument,

	".zip": FileTypeArchive, ".tar": FileTypeArchive, ".gz": FileTypeArchive,
	".tgz": FileTypeArchive, ".bz2": FileTypeArchive, ".xz": FileTypeArchive,
	".7z": FileTypeArchive, ".rar": FileTypeArchive, ".zst": FileTypeArchive,
}

// previewExtensions are the image formats the thumbnail generator can decode.
var previewExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
}

// GetFileType returns the FileType for a file name or extension.
// Matching is case-insensitive. Returns FileTypeOther if unrecognized.
func GetFileType(name string) FileType {
	if t, ok := extensionTypes[ext(name)]; ok {
		return t
	}
	return FileTypeOther
}

// IsPreviewable reports whether a thumbnail can be generated for the file.
func IsPreviewable(name string) bool {
	return previewExtensions[ext(name)]
}

func ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
