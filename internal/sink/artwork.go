package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/genricoloni/tracktext/internal/domain"
	"go.uber.org/zap"
)

// CoverFile is written next to the text files when artwork is enabled
const CoverFile = "cover.png"

// Artwork downloads the cover of every new track and stores it as cover.png.
// Failures are logged and never returned: a missing cover must not stop the loop.
type Artwork struct {
	logger    *zap.Logger
	fetcher   domain.Fetcher
	processor domain.ImageProcessor
	path      string
	lastURL   string
}

// NewArtwork creates a cover art sink writing into the configured output directory
func NewArtwork(logger *zap.Logger, cfg domain.Config, fetch domain.Fetcher, proc domain.ImageProcessor) *Artwork {
	return &Artwork{
		logger:    logger,
		fetcher:   fetch,
		processor: proc,
		path:      filepath.Join(cfg.GetOutputDir(), CoverFile),
	}
}

// Name identifies the sink in logs
func (a *Artwork) Name() string {
	return "artwork"
}

// Publish refreshes cover.png when the artwork URL changed
func (a *Artwork) Publish(ctx context.Context, info domain.TrackInfo, _ string) error {
	if info.ArtworkURL == "" {
		a.logger.Debug("No artwork URL for track", zap.String("track", info.Name))
		return nil
	}
	if info.ArtworkURL == a.lastURL {
		return nil
	}

	if err := a.refresh(ctx, info.ArtworkURL); err != nil {
		a.logger.Warn("Failed to update cover art",
			zap.String("track", info.Name),
			zap.String("url", info.ArtworkURL),
			zap.Error(err))
		return nil
	}

	a.lastURL = info.ArtworkURL
	a.logger.Info("Cover art updated", zap.String("path", a.path), zap.String("track", info.Name))
	return nil
}

func (a *Artwork) refresh(ctx context.Context, url string) error {
	raw, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	cover, err := a.processor.Process(ctx, raw)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}

	if err := os.WriteFile(a.path, cover, 0644); err != nil {
		return fmt.Errorf("failed to write cover: %w", err)
	}
	return nil
}
