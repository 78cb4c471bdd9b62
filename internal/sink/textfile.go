package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/genricoloni/tracktext/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Output file names, written in this order on every change
const (
	NameFile      = "name.txt"
	AlbumFile     = "album.txt"
	ArtistFile    = "artist.txt"
	DurationFile  = "duration.txt"
	PlayCountFile = "playedCount.txt"
)

// TextFiles writes one text file per track field
type TextFiles struct {
	logger *zap.Logger
	dir    string
}

// NewTextFiles creates a sink writing into the configured output directory
func NewTextFiles(logger *zap.Logger, cfg domain.Config) *TextFiles {
	return &TextFiles{
		logger: logger,
		dir:    cfg.GetOutputDir(),
	}
}

// Name identifies the sink in logs
func (s *TextFiles) Name() string {
	return "textfiles"
}

// Dir returns the output directory
func (s *TextFiles) Dir() string {
	return s.dir
}

// EnsureDir creates the output directory if it does not exist yet
func (s *TextFiles) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	s.logger.Info("Output directory ready", zap.String("path", s.dir))
	return nil
}

// Publish overwrites every field file. The first failing write aborts.
func (s *TextFiles) Publish(_ context.Context, info domain.TrackInfo, _ string) error {
	files := []struct {
		name string
		text string
	}{
		{NameFile, info.Name},
		{AlbumFile, info.Album},
		{ArtistFile, info.Artist},
		{DurationFile, info.Duration},
		{PlayCountFile, info.PlayCount},
	}

	for _, f := range files {
		if err := s.writeFile(f.name, f.text); err != nil {
			return err
		}
	}

	s.logger.Debug("Text files written", zap.String("dir", s.dir))
	return nil
}

// writeFile truncates the file and writes text as a single line.
// The handle is closed whether or not the write succeeded.
func (s *TextFiles) writeFile(name, text string) (err error) {
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	if _, err := f.WriteString(text + "\n"); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
