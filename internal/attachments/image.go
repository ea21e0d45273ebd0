package attachments

import (
	"encoding/base64"
	"fmt"
	"os"
)

// DataURL inlines the file at path as a base64 data URL
func DataURL(path, mime string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
