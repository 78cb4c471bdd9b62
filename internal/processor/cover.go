package processor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/genricoloni/tracktext/internal/domain"
	"go.uber.org/zap"
)

// CoverProcessor crops album art to a centered square and resizes it
type CoverProcessor struct {
	logger *zap.Logger
	size   int
}

// NewCoverProcessor creates a processor producing covers of the configured size
func NewCoverProcessor(logger *zap.Logger, cfg domain.Config) *CoverProcessor {
	return &CoverProcessor{
		logger: logger,
		size:   cfg.GetArtworkSize(),
	}
}

// Process decodes imageData and returns a size x size PNG
func (p *CoverProcessor) Process(ctx context.Context, imageData []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Validate image dimensions to prevent division by zero
	bounds := img.Bounds()
	if bounds.Dy() == 0 || bounds.Dx() == 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	p.logger.Debug("Resizing cover",
		zap.Int("srcW", bounds.Dx()),
		zap.Int("srcH", bounds.Dy()),
		zap.Int("size", p.size))
	cover := imaging.Fill(img, p.size, p.size, imaging.Center, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, cover, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	p.logger.Debug("Image processed successfully", zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}
