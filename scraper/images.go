package scraper

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	// Decoders registered for cover verification.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

var recognizedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// ImageStore downloads cover images into a directory and verifies
// them before reporting success.
type ImageStore struct {
	fetcher *Fetcher
	dir     string
	metrics *Metrics
}

// NewImageStore builds a store writing under dir, sharing the
// fetcher's timeout and header policy.
func NewImageStore(fetcher *Fetcher, dir string, metrics *Metrics) *ImageStore {
	return &ImageStore{fetcher: fetcher, dir: dir, metrics: metrics}
}

// Acquire downloads imageURL and stores it as <isbn><ext> under the
// configured directory, overwriting any earlier download for the same
// ISBN. The file only survives if it decodes as an image; otherwise it
// is removed and an error returned. On success the absolute host-native
// path is returned.
func (s *ImageStore) Acquire(ctx context.Context, imageURL, isbn string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create images directory: %w", err)
	}

	result := s.fetcher.FetchImage(ctx, imageURL)
	switch result.Status {
	case FetchOK:
	case FetchHTTPError:
		return "", fmt.Errorf("image fetch: http status %d", result.StatusCode)
	default:
		return "", fmt.Errorf("image fetch: %w", result.Err)
	}

	ext := imageExtension(result.ContentType, imageURL)
	filePath := filepath.Join(s.dir, isbn+ext)

	if err := os.WriteFile(filePath, result.Body, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	if err := verifyImage(filePath); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("verify image: %w", err)
	}

	abs, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("resolve image path: %w", err)
	}

	s.metrics.IncImages()
	return abs, nil
}

// imageExtension picks the storage extension: content type first, URL
// path suffix second, .jpg as the default.
func imageExtension(contentType, imageURL string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return ".jpg"
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "gif"):
		return ".gif"
	}

	if parsed, err := url.Parse(imageURL); err == nil {
		ext := strings.ToLower(path.Ext(parsed.Path))
		if _, ok := recognizedExtensions[ext]; ok {
			return ext
		}
	}

	return ".jpg"
}

// verifyImage re-opens the stored file and checks it fully decodes.
func verifyImage(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return err
	}
	return nil
}
