package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/genricoloni/tracktext/internal/config"
	"github.com/genricoloni/tracktext/internal/domain"
	"github.com/genricoloni/tracktext/internal/engine"
	"github.com/genricoloni/tracktext/internal/executor"
	"github.com/genricoloni/tracktext/internal/fetcher"
	"github.com/genricoloni/tracktext/internal/keypress"
	"github.com/genricoloni/tracktext/internal/processor"
	"github.com/genricoloni/tracktext/internal/reader"
	"github.com/genricoloni/tracktext/internal/sink"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// AppOptions is the complete dependency graph of the daemon
var AppOptions = fx.Options(
	fx.Provide(
		zap.NewAtomicLevel,
		newLogger,
		config.NewAppConfig,
		provideConfig,
		newRunner,
		newTrackReader,
		newConsole,
		sink.NewTextFiles,
		fx.Annotate(fetcher.NewHTTPFetcher, fx.As(new(domain.Fetcher))),
		fx.Annotate(processor.NewCoverProcessor, fx.As(new(domain.ImageProcessor))),
		sink.NewArtwork,
		newSinks,
		newEngine,
		keypress.NewWatcher,
	),
	fx.Invoke(applyLogLevel, registerHooks),
)

func main() {
	app := fx.New(
		// Logger configuration
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		AppOptions,
	)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "tracktext: %v\n", err)
		os.Exit(1)
	}

	// Wait for a signal, a key press or a fatal loop error
	exitCode := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		exitCode = sig.ExitCode
	}
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "tracktext: shutdown: %v\n", err)
		exitCode = 1
	}

	stopCancel()
	os.Exit(exitCode)
}

// newLogger creates the production zap logger; its level is adjusted
// once the configuration is loaded.
func newLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	return cfg.Build()
}

// applyLogLevel applies the configured log level to the running logger
func applyLogLevel(level zap.AtomicLevel, cfg *config.AppConfig, logger *zap.Logger) {
	if err := level.UnmarshalText([]byte(cfg.GetLogLevel())); err != nil {
		logger.Warn("Invalid log level, keeping info", zap.String("level", cfg.GetLogLevel()), zap.Error(err))
	}
}

func provideConfig(cfg *config.AppConfig) domain.Config {
	return cfg
}

func newRunner(logger *zap.Logger, cfg domain.Config) executor.Runner {
	return executor.NewOsaScriptRunner(logger, cfg.GetOsaScriptPath())
}

// newTrackReader selects the reader backend for the configured source
func newTrackReader(lc fx.Lifecycle, logger *zap.Logger, cfg domain.Config, runner executor.Runner) domain.TrackReader {
	if cfg.GetSource() == config.SourceMpris {
		r := reader.NewMprisReader(logger, cfg)
		lc.Append(fx.StopHook(r.Close))
		return r
	}
	return reader.NewAppleScriptReader(logger, runner, cfg)
}

func newConsole() *sink.Console {
	return sink.NewConsole(os.Stdout)
}

// newSinks fixes publication order: console first, then text files, then cover art
func newSinks(cfg domain.Config, console *sink.Console, files *sink.TextFiles, art *sink.Artwork) []domain.Sink {
	sinks := []domain.Sink{console, files}
	if cfg.ArtworkEnabled() {
		sinks = append(sinks, art)
	}
	return sinks
}

func newEngine(logger *zap.Logger, cfg domain.Config, r domain.TrackReader, console *sink.Console, sinks []domain.Sink) *engine.Engine {
	return engine.NewEngine(logger, cfg, r, console, sinks)
}

// registerHooks sets up application lifecycle hooks
func registerHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	logger *zap.Logger,
	files *sink.TextFiles,
	eng *engine.Engine,
	watcher *keypress.Watcher,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("tracktext started")

			if err := files.EnsureDir(); err != nil {
				return err
			}

			eng.OnFatal(func(err error) {
				if serr := shutdowner.Shutdown(fx.ExitCode(1)); serr != nil {
					logger.Error("Failed to request shutdown", zap.Error(serr))
				}
			})
			if err := eng.Start(ctx); err != nil {
				return err
			}

			return watcher.Start(ctx, func() {
				if err := shutdowner.Shutdown(); err != nil {
					logger.Error("Failed to request shutdown", zap.Error(err))
				}
			})
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			if err := watcher.Stop(ctx); err != nil {
				logger.Warn("Failed to stop keypress watcher", zap.Error(err))
			}
			return eng.Stop(ctx)
		},
	})
}
