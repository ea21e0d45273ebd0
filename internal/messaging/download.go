package messaging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bobchat/cli/internal/conversation"
	"github.com/rs/zerolog/log"
)

// Downloader fetches absolute URLs
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// GeneratedImageName is the file name a generated image is saved under
func GeneratedImageName(msg conversation.Message) string {
	return fmt.Sprintf("ai-generated-image-%s.jpg", msg.ID)
}

// LatestGeneratedImage returns the newest message in msgs that carries a
// generated image
func LatestGeneratedImage(msgs []conversation.Message) (conversation.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].GeneratedImageURL != "" {
			return msgs[i], true
		}
	}
	return conversation.Message{}, false
}

// SaveGeneratedImage downloads the image attached to an assistant reply
// into dir and returns the written path
func SaveGeneratedImage(ctx context.Context, d Downloader, msg conversation.Message, dir string) (string, error) {
	if msg.GeneratedImageURL == "" {
		return "", fmt.Errorf("message %s has no generated image", msg.ID)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	path := filepath.Join(dir, GeneratedImageName(msg))
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := d.Download(ctx, msg.GeneratedImageURL, tmp)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to download generated image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write generated image: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to save generated image: %w", err)
	}

	log.Info().Str("path", path).Int64("bytes", n).Msg("saved generated image")
	return path, nil
}
