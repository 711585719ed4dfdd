package renamer

import (
	"path/filepath"
	"strings"
)

// File-type presets narrow which scanned files become rename candidates.
var (
	imageExtensions = []string{
		"jpg", "jpeg", "png", "gif", "bmp", "webp", "tif", "tiff", "heic", "heif", "svg",
	}
	videoExtensions = []string{
		"mp4", "mov", "avi", "mkv", "webm", "m4v", "mpg", "mpeg", "wmv",
	}
	audioExtensions = []string{"mp3", "wav", "flac", "aac", "m4a", "ogg", "opus", "wma"}
	documentExtensions = []string{
		"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "rtf", "odt", "ods", "odp", "csv", "md",
	}
	archiveExtensions = []string{"zip", "rar", "7z", "tar", "gz", "bz2", "xz", "tgz"}
)

// NormalizePreset maps arbitrary user input to a known preset name,
// defaulting to "all".
func NormalizePreset(preset string) string {
	switch strings.ToLower(strings.TrimSpace(preset)) {
	case "images":
		return "images"
	case "videos":
		return "videos"
	case "audio":
		return "audio"
	case "documents":
		return "documents"
	case "archives":
		return "archives"
	default:
		return "all"
	}
}

// MatchesPreset reports whether a file name falls under the preset.
// Matching is by extension and case-insensitive; files without an
// extension only match "all".
func MatchesPreset(name, preset string) bool {
	normalized := NormalizePreset(preset)
	if normalized == "all" {
		return true
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}

	var allowed []string
	switch normalized {
	case "images":
		allowed = imageExtensions
	case "videos":
		allowed = videoExtensions
	case "audio":
		allowed = audioExtensions
	case "documents":
		allowed = documentExtensions
	case "archives":
		allowed = archiveExtensions
	default:
		return true
	}
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
