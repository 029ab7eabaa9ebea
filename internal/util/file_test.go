package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeVideo(t *testing.T) {
	assert.True(t, LooksLikeVideo("clip.mp4", "video/mp4"))
	assert.True(t, LooksLikeVideo("clip.bin", "video/quicktime"))
	assert.True(t, LooksLikeVideo("CLIP.MOV", ""))
	assert.True(t, LooksLikeVideo("clip.webm", "application/octet-stream"))
	assert.False(t, LooksLikeVideo("resume.pdf", "application/pdf"))
	assert.False(t, LooksLikeVideo("notes.txt", ""))
}

func TestCompressedFileName(t *testing.T) {
	assert.Equal(t, "clip-compressed.mp4", CompressedFileName("clip.mov"))
	assert.Equal(t, "clip-compressed.mp4", CompressedFileName("clip.mp4"))
	assert.Equal(t, "archive.tar-compressed.mp4", CompressedFileName("archive.tar.gz"))
	assert.Equal(t, "noext-compressed.mp4", CompressedFileName("noext"))
}

func TestValidateMimeType(t *testing.T) {
	mime, err := ValidateMimeType(strings.NewReader("%PDF-1.4 fake"), []string{"application/pdf"})
	assert.NoError(t, err)
	assert.Equal(t, "application/pdf", mime)

	_, err = ValidateMimeType(strings.NewReader("plain text"), []string{"video/"})
	assert.Error(t, err)
}
