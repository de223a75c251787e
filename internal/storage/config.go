package storage

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Config holds upload limits for tool images
type Config struct {
	UploadDir     string
	BaseURL       string
	MaxFileSizeMB int64
	AllowedTypes  []string
}

// MaxBytes returns the upload size limit in bytes.
func (c Config) MaxBytes() int64 {
	return c.MaxFileSizeMB << 20
}

// CheckUpload rejects content types and sizes outside the configured limits.
func (c Config) CheckUpload(contentType string, size int64) error {
	if len(c.AllowedTypes) > 0 && !slices.Contains(c.AllowedTypes, strings.ToLower(contentType)) {
		return fmt.Errorf("content type %q not allowed", contentType)
	}
	if c.MaxFileSizeMB > 0 && size > c.MaxBytes() {
		return fmt.Errorf("file exceeds %d MB", c.MaxFileSizeMB)
	}
	return nil
}

// URL returns the public download URL for ref.
func (c Config) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return strings.TrimRight(c.BaseURL, "/") + "/api/v1/images/" + ref
}

// ContentType guesses an image MIME type from the reference extension.
func ContentType(ref string) string {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return "application/octet-stream"
}
