package util

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".webm": true,
	".avi": true, ".m4v": true, ".wmv": true, ".flv": true, ".3gp": true,
}

// ValidateMimeType sniffs the content and checks it against the allowed
// MIME prefixes or full types (e.g. "video/", "application/pdf").
func ValidateMimeType(reader io.Reader, allowedTypes []string) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	mimeType := http.DetectContentType(buffer[:n])

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, errors.New("invalid file type: " + mimeType)
}

func IsVideo(mimeType string) bool {
	return strings.HasPrefix(mimeType, "video/") || mimeType == "application/x-mpegURL"
}

// LooksLikeVideo accepts either a video MIME type or a recognized video
// filename extension. Used to decide whether the uncompressed-fallback
// path may run at all.
func LooksLikeVideo(name, mimeType string) bool {
	if IsVideo(mimeType) {
		return true
	}
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// CompressedFileName turns "clip.mov" into "clip-compressed.mp4".
func CompressedFileName(name string) string {
	ext := filepath.Ext(name)
	base := name
	if ext != "" && len(base) > len(ext) {
		base = name[:len(name)-len(ext)]
	}
	return base + "-compressed.mp4"
}
