package attachments

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Cache keeps private copies of attached files so a message can keep
// pointing at its image after the original moves.
type Cache struct {
	dir string
}

// NewCache creates the cache directory if needed
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory
func (c *Cache) Dir() string {
	return c.dir
}

// Store copies the attachment into the cache and points its URL at the copy.
// The original Path is kept for uploading.
func (c *Cache) Store(att Attachment) (Attachment, error) {
	src, err := os.Open(att.Path)
	if err != nil {
		return att, fmt.Errorf("failed to open attachment: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(att.Name))
	dstPath, err := filepath.Abs(filepath.Join(c.dir, name))
	if err != nil {
		return att, fmt.Errorf("failed to resolve cache path: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return att, fmt.Errorf("failed to create cached copy: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return att, fmt.Errorf("failed to copy attachment: %w", err)
	}
	if err := dst.Close(); err != nil {
		return att, fmt.Errorf("failed to close cached copy: %w", err)
	}

	att.URL = FileURL(dstPath)
	return att, nil
}

// FileURL turns an absolute path into a file:// URL
func FileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
