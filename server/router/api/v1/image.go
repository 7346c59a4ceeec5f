package v1

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// maxImageBytes caps uploads for the explain-image endpoint.
const maxImageBytes = 8 << 20

// fileToDataURL reads an uploaded image and encodes it as a data URL for the
// vision model.
func fileToDataURL(header *multipart.FileHeader) (string, error) {
	if header.Size > maxImageBytes {
		return "", fmt.Errorf("image exceeds %d byte limit", maxImageBytes)
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded image: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read uploaded image: %w", err)
	}
	if len(data) > maxImageBytes {
		return "", fmt.Errorf("image exceeds %d byte limit", maxImageBytes)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}
