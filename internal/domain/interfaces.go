package domain

import (
	"context"
	"time"
)

// TrackReader reads the currently playing track from the media player.
// Implementations never fail: fields the player could not provide are
// returned as empty strings.
type TrackReader interface {
	Read(ctx context.Context) TrackInfo
}

// Sink receives a track every time the display string changes.
// A returned error is considered fatal by the poll loop.
type Sink interface {
	// Name identifies the sink in logs
	Name() string

	// Publish outputs the track. display is the precomputed display string.
	Publish(ctx context.Context, info TrackInfo, display string) error
}

// Fetcher defines the interface for retrieving album artwork
type Fetcher interface {
	// Fetch downloads or reads image data from a URL or local path
	// Returns the raw image bytes or an error
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ImageProcessor defines the interface for in-memory image processing
type ImageProcessor interface {
	// Process transforms image data into the cover written to disk
	Process(ctx context.Context, imageData []byte) ([]byte, error)
}

// Config defines the interface for application configuration
type Config interface {
	// GetOutputDir returns the directory that receives the text files
	GetOutputDir() string

	// GetPollInterval returns the delay between two poll cycles
	GetPollInterval() time.Duration

	// GetSource returns the resolved reader backend ("applescript" or "mpris")
	GetSource() string

	// GetPlayer returns the scripted application name
	GetPlayer() string

	// GetOsaScriptPath returns the path of the osascript binary
	GetOsaScriptPath() string

	// ArtworkEnabled reports whether cover art is written next to the text files
	ArtworkEnabled() bool

	// GetArtworkSize returns the edge length in pixels of the written cover
	GetArtworkSize() int
}
