package reader

import (
	"context"
	"sync"
	"time"

	"github.com/genricoloni/tracktext/internal/domain"
	"github.com/genricoloni/tracktext/internal/executor"
	"go.uber.org/zap"
)

// Field queries sent to the player, one script invocation each
const (
	QueryName      = "return name of current track"
	QueryArtist    = "return artist of current track"
	QueryAlbum     = "return album of current track"
	QueryDuration  = "return duration of current track"
	QueryPlayCount = "return played count of current track"
	QueryArtwork   = "return artwork url of current track"
)

// AppleScriptReader reads the current track by scripting the player through osascript
type AppleScriptReader struct {
	logger  *zap.Logger
	runner  executor.Runner
	player  string
	artwork bool
	warn    *failureWarning
}

// NewAppleScriptReader creates a reader scripting the configured player
func NewAppleScriptReader(logger *zap.Logger, runner executor.Runner, cfg domain.Config) *AppleScriptReader {
	return &AppleScriptReader{
		logger:  logger,
		runner:  runner,
		player:  cfg.GetPlayer(),
		artwork: cfg.ArtworkEnabled(),
		warn:    newFailureWarning(logger, 5*time.Second),
	}
}

// Read queries every field independently. Failed queries become empty fields.
func (r *AppleScriptReader) Read(ctx context.Context) domain.TrackInfo {
	info := domain.TrackInfo{
		Name:      r.query(ctx, QueryName).OrEmpty(),
		Artist:    r.query(ctx, QueryArtist).OrEmpty(),
		Album:     r.query(ctx, QueryAlbum).OrEmpty(),
		Duration:  FormatDuration(r.query(ctx, QueryDuration).OrEmpty()),
		PlayCount: r.query(ctx, QueryPlayCount).OrEmpty(),
	}
	if r.artwork {
		info.ArtworkURL = r.query(ctx, QueryArtwork).OrEmpty()
	}
	return info
}

// Envelope wraps a field query in the tell block targeting the player
func (r *AppleScriptReader) Envelope(query string) string {
	return "tell application \"" + r.player + "\"\n" + query + "\nend tell"
}

func (r *AppleScriptReader) query(ctx context.Context, query string) domain.FieldResult {
	out, err := r.runner.Run(ctx, r.Envelope(query))
	if err != nil {
		r.logger.Debug("Field query failed", zap.String("query", query), zap.Error(err))
		r.warn.report("Player script failed, writing empty fields", zap.String("player", r.player), zap.Error(err))
		return domain.FieldError(err)
	}
	return domain.Field(stripLineBreaks(out))
}

// failureWarning logs a warning about an unreachable player, rate-limited
// to avoid one line per field per cycle while the player is closed.
type failureWarning struct {
	logger   *zap.Logger
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func newFailureWarning(logger *zap.Logger, interval time.Duration) *failureWarning {
	return &failureWarning{logger: logger, interval: interval}
}

func (w *failureWarning) report(msg string, fields ...zap.Field) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if now.Sub(w.last) >= w.interval {
		w.logger.Warn(msg, fields...)
		w.last = now
	}
}
