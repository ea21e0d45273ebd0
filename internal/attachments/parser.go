package attachments

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobchat/cli/internal/conversation"
	"github.com/gen2brain/go-fitz"
)

// ErrUnsupported is returned for files that are neither an image nor a PDF
var ErrUnsupported = errors.New("unsupported attachment type")

// Attachment is a file picked in the composer
type Attachment struct {
	Path  string
	Name  string
	Size  int64
	Kind  conversation.Kind
	MIME  string
	URL   string
	Pages int

	Width  int
	Height int
}

// SizeMB returns the file size in megabytes
func (a Attachment) SizeMB() float64 {
	return float64(a.Size) / 1024 / 1024
}

var extensionTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// Inspect classifies the file at path and gathers what the composer shows
// about it. PDFs are opened to count pages so broken files fail early.
func Inspect(path string) (Attachment, error) {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	info, err := os.Stat(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.IsDir() {
		return Attachment{}, fmt.Errorf("%s is a directory", path)
	}

	mime, err := detectType(path)
	if err != nil {
		return Attachment{}, err
	}

	att := Attachment{
		Path: path,
		Name: filepath.Base(path),
		Size: info.Size(),
		MIME: mime,
	}

	switch {
	case mime == "application/pdf":
		att.Kind = conversation.KindPDF
		pages, err := countPages(path)
		if err != nil {
			return Attachment{}, err
		}
		att.Pages = pages
	case strings.HasPrefix(mime, "image/"):
		att.Kind = conversation.KindImage
		if w, h, ok := imageSize(path); ok {
			att.Width, att.Height = w, h
		}
	default:
		return Attachment{}, ErrUnsupported
	}

	return att, nil
}

// detectType sniffs the content first and falls back to the extension
func detectType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open attachment: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read attachment: %w", err)
	}

	sniffed := http.DetectContentType(head[:n])
	if sniffed == "application/pdf" || strings.HasPrefix(sniffed, "image/") {
		return sniffed, nil
	}

	if mime, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
}

func countPages(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

func imageSize(path string) (int, int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}
