package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/genricoloni/tracktext/internal/domain"
	"go.uber.org/zap"
)

// Banner is printed once before the first cycle
type Banner interface {
	Banner() error
}

// Engine runs the poll loop: read the current track, compare its display
// string against the previous cycle and publish it to every sink on change.
type Engine struct {
	logger   *zap.Logger
	reader   domain.TrackReader
	sinks    []domain.Sink
	banner   Banner
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	// onFatal is called from the loop goroutine when a sink fails
	onFatal func(error)
}

// NewEngine creates a new poll engine. Sinks are published to in order.
func NewEngine(
	logger *zap.Logger,
	cfg domain.Config,
	reader domain.TrackReader,
	banner Banner,
	sinks []domain.Sink,
) *Engine {
	return &Engine{
		logger:   logger,
		reader:   reader,
		sinks:    sinks,
		banner:   banner,
		interval: cfg.GetPollInterval(),
	}
}

// OnFatal registers the callback invoked when the loop stops on a sink error
func (e *Engine) OnFatal(fn func(error)) {
	e.onFatal = fn
}

// Start prints the banner and launches the poll loop in a goroutine.
// It returns immediately (non-blocking).
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Engine starting...", zap.Duration("interval", e.interval))

	if e.banner != nil {
		if err := e.banner.Banner(); err != nil {
			return fmt.Errorf("failed to print banner: %w", err)
		}
	}

	// The loop outlives the start context
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel
	e.done = make(chan struct{})

	go func() {
		defer close(e.done)
		if err := e.Run(loopCtx); err != nil {
			e.logger.Error("Poll loop stopped", zap.Error(err))
			if e.onFatal != nil {
				e.onFatal(err)
			}
		}
	}()
	return nil
}

// Run executes cycles until ctx is cancelled or a sink fails.
// It returns nil on cancellation.
func (e *Engine) Run(ctx context.Context) error {
	var previous string

	timer := time.NewTimer(e.interval)
	timer.Stop()
	defer timer.Stop()

	for {
		next, err := e.cycle(ctx, previous)
		if err != nil {
			return err
		}
		previous = next

		timer.Reset(e.interval)
		select {
		case <-ctx.Done():
			e.logger.Info("Engine loop stopped")
			return nil
		case <-timer.C:
		}
	}
}

// cycle reads the track once and publishes it if the display string differs
// from previous. It returns the new previous value, which only moves after
// every sink succeeded.
func (e *Engine) cycle(ctx context.Context, previous string) (string, error) {
	info := e.reader.Read(ctx)
	if ctx.Err() != nil {
		// Reads interrupted by shutdown return partial data
		return previous, nil
	}

	display := info.DisplayString()
	if display == previous {
		return previous, nil
	}

	e.logger.Debug("Track changed",
		zap.String("track", info.Name),
		zap.String("artist", info.Artist),
		zap.String("album", info.Album))

	for _, s := range e.sinks {
		if err := s.Publish(ctx, info, display); err != nil {
			return previous, fmt.Errorf("%s sink: %w", s.Name(), err)
		}
	}
	return display, nil
}

// Stop cancels the poll loop and waits for the current cycle to finish
func (e *Engine) Stop(ctx context.Context) error {
	e.logger.Info("Engine stopping...")

	if e.cancel == nil {
		return nil
	}
	e.cancel()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
