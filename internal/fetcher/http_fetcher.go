package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

const _maxImageSize = 10 * 1024 * 1024 // 10 MB

// HTTPFetcher retrieves cover art from HTTP/HTTPS URLs or file:// paths
type HTTPFetcher struct {
	logger *zap.Logger
	client *http.Client
}

// NewHTTPFetcher creates a new HTTP-based fetcher instance
func NewHTTPFetcher(logger *zap.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Fetch returns the image data behind rawURL
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "file://") {
		return f.fetchFile(rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "tracktext/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		return nil, fmt.Errorf("url is not an image: %s", resp.Header.Get("Content-Type"))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, _maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	f.logger.Debug("Image fetched successfully", zap.Int("bytes", len(data)), zap.String("url", rawURL))
	return data, nil
}

// fetchFile reads local artwork, as sent by players caching covers on disk
func (f *HTTPFetcher) fetchFile(rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid file url: %w", err)
	}

	file, err := os.Open(u.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artwork: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, _maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read artwork: %w", err)
	}

	f.logger.Debug("Image read from disk", zap.Int("bytes", len(data)), zap.String("path", u.Path))
	return data, nil
}
