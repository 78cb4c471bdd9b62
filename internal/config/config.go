package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultOutputDir    = "Output"
	defaultPollInterval = 500 * time.Millisecond
	defaultPlayer       = "Spotify"
	defaultOsaScript    = "/usr/bin/osascript"
	defaultArtworkSize  = 300

	envPrefix  = "TRACKTEXT"
	configName = "tracktext"
)

// Reader backends
const (
	SourceAuto        = "auto"
	SourceAppleScript = "applescript"
	SourceMpris       = "mpris"
)

// settings mirrors the configuration keys
type settings struct {
	OutputDir     string        `mapstructure:"output_dir"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	Source        string        `mapstructure:"source"`
	Player        string        `mapstructure:"player"`
	OsaScriptPath string        `mapstructure:"osascript_path"`
	LogLevel      string        `mapstructure:"log_level"`
	Artwork       struct {
		Enabled bool `mapstructure:"enabled"`
		Size    int  `mapstructure:"size"`
	} `mapstructure:"artwork"`
}

// AppConfig holds application configuration
type AppConfig struct {
	logger *zap.Logger
	s      settings
}

// NewAppConfig loads the configuration from defaults, an optional
// tracktext.yaml, an optional .env file and TRACKTEXT_* variables.
// The output directory is resolved against the working directory once here.
func NewAppConfig(logger *zap.Logger) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Failed to load .env file", zap.Error(err))
	}

	v := viper.New()
	v.SetDefault("output_dir", defaultOutputDir)
	v.SetDefault("poll_interval", defaultPollInterval)
	v.SetDefault("source", SourceAuto)
	v.SetDefault("player", defaultPlayer)
	v.SetDefault("osascript_path", defaultOsaScript)
	v.SetDefault("log_level", "info")
	v.SetDefault("artwork.enabled", false)
	v.SetDefault("artwork.size", defaultArtworkSize)

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, configName))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file found but had errors
			logger.Warn("Error reading config file, using defaults", zap.Error(err))
		}
	} else {
		logger.Debug("Config file loaded", zap.String("path", v.ConfigFileUsed()))
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	outputDir, err := resolveDir(s.OutputDir)
	if err != nil {
		return nil, err
	}
	s.OutputDir = outputDir

	source, err := resolveSource(s.Source, runtime.GOOS)
	if err != nil {
		return nil, err
	}
	s.Source = source

	if s.PollInterval <= 0 {
		return nil, fmt.Errorf("poll_interval must be positive, got %s", s.PollInterval)
	}
	if s.Artwork.Size <= 0 {
		return nil, fmt.Errorf("artwork.size must be positive, got %d", s.Artwork.Size)
	}

	logger.Info("Configuration loaded",
		zap.String("outputDir", s.OutputDir),
		zap.Duration("pollInterval", s.PollInterval),
		zap.String("source", s.Source),
		zap.String("player", s.Player),
		zap.Bool("artwork", s.Artwork.Enabled))

	return &AppConfig{logger: logger, s: s}, nil
}

// resolveDir expands ~ and environment variables and makes dir absolute
// relative to the current working directory.
func resolveDir(dir string) (string, error) {
	dir = os.ExpandEnv(dir)
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			dir = filepath.Join(home, dir[1:])
		}
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(cwd, dir), nil
}

func resolveSource(source, goos string) (string, error) {
	switch strings.ToLower(source) {
	case SourceAuto, "":
		if goos == "linux" {
			return SourceMpris, nil
		}
		return SourceAppleScript, nil
	case SourceAppleScript:
		return SourceAppleScript, nil
	case SourceMpris:
		return SourceMpris, nil
	default:
		return "", fmt.Errorf("unknown source %q (want auto, applescript or mpris)", source)
	}
}

// GetOutputDir returns the directory that receives the text files
func (c *AppConfig) GetOutputDir() string {
	return c.s.OutputDir
}

// GetPollInterval returns the delay between two poll cycles
func (c *AppConfig) GetPollInterval() time.Duration {
	return c.s.PollInterval
}

// GetSource returns the resolved reader backend
func (c *AppConfig) GetSource() string {
	return c.s.Source
}

// GetPlayer returns the scripted application name
func (c *AppConfig) GetPlayer() string {
	return c.s.Player
}

// GetOsaScriptPath returns the path of the osascript binary
func (c *AppConfig) GetOsaScriptPath() string {
	return c.s.OsaScriptPath
}

// GetLogLevel returns the configured zap level name
func (c *AppConfig) GetLogLevel() string {
	return c.s.LogLevel
}

// ArtworkEnabled reports whether cover art is written next to the text files
func (c *AppConfig) ArtworkEnabled() bool {
	return c.s.Artwork.Enabled
}

// GetArtworkSize returns the edge length in pixels of the written cover
func (c *AppConfig) GetArtworkSize() int {
	return c.s.Artwork.Size
}
