package reader

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/genricoloni/tracktext/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	mprisPrefix       = "org.mpris.MediaPlayer2."
	mprisObjectPath   = "/org/mpris/MediaPlayer2"
	mprisMetadataProp = "org.mpris.MediaPlayer2.Player.Metadata"
)

// MprisReader reads the current track from the player's MPRIS interface
// on the session bus. One property call is made per cycle.
type MprisReader struct {
	logger  *zap.Logger
	connect func() (DBusClient, error)
	busName string
	artwork bool
	warn    *failureWarning

	mu   sync.Mutex
	conn DBusClient
}

// NewMprisReader creates a reader polling org.mpris.MediaPlayer2.<player>
func NewMprisReader(logger *zap.Logger, cfg domain.Config) *MprisReader {
	return &MprisReader{
		logger: logger,
		connect: func() (DBusClient, error) {
			return NewStdDBusClient()
		},
		busName: mprisPrefix + strings.ToLower(cfg.GetPlayer()),
		artwork: cfg.ArtworkEnabled(),
		warn:    newFailureWarning(logger, 5*time.Second),
	}
}

// Read fetches the Metadata property. Missing or mistyped entries become empty fields.
func (r *MprisReader) Read(ctx context.Context) domain.TrackInfo {
	metadata, err := r.fetchMetadata(ctx)
	if err != nil {
		r.logger.Debug("Metadata query failed", zap.String("player", r.busName), zap.Error(err))
		r.warn.report("Player unavailable on session bus, writing empty fields",
			zap.String("player", r.busName), zap.Error(err))
		metadata = nil
	}

	info := domain.TrackInfo{
		Name:      stringEntry(metadata, "xesam:title").OrEmpty(),
		Artist:    artistEntry(metadata).OrEmpty(),
		Album:     stringEntry(metadata, "xesam:album").OrEmpty(),
		Duration:  durationEntry(metadata).OrEmpty(),
		PlayCount: intEntry(metadata, "xesam:useCount").OrEmpty(),
	}
	if r.artwork {
		info.ArtworkURL = stringEntry(metadata, "mpris:artUrl").OrEmpty()
	}
	return info
}

// Close releases the session bus connection, if any
func (r *MprisReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	return err
}

func (r *MprisReader) fetchMetadata(ctx context.Context) (map[string]dbus.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		conn, err := r.connect()
		if err != nil {
			return nil, fmt.Errorf("session bus connection failed: %w", err)
		}
		r.logger.Info("Connected to session bus", zap.String("player", r.busName))
		r.conn = conn
	}

	variant, err := r.conn.GetProperty(ctx, r.busName, mprisObjectPath, mprisMetadataProp)
	if err != nil {
		if !isRemoteError(err) {
			// Transport failure: reconnect on the next cycle
			if cerr := r.conn.Close(); cerr != nil {
				r.logger.Debug("Failed to close D-Bus connection", zap.Error(cerr))
			}
			r.conn = nil
		}
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	// Some players return an empty or mistyped value when nothing is loaded
	metadata, ok := variant.Value().(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("unexpected metadata type %T", variant.Value())
	}
	return metadata, nil
}

func stringEntry(metadata map[string]dbus.Variant, key string) domain.FieldResult {
	v, ok := metadata[key]
	if !ok {
		return domain.FieldError(fmt.Errorf("%s missing", key))
	}
	s, ok := v.Value().(string)
	if !ok {
		return domain.FieldError(fmt.Errorf("%s has type %T", key, v.Value()))
	}
	return domain.Field(stripLineBreaks(s))
}

// artistEntry returns the first artist; xesam:artist is a list per the
// MPRIS spec but some players send a plain string.
func artistEntry(metadata map[string]dbus.Variant) domain.FieldResult {
	v, ok := metadata["xesam:artist"]
	if !ok {
		return domain.FieldError(fmt.Errorf("xesam:artist missing"))
	}
	switch artists := v.Value().(type) {
	case []string:
		if len(artists) == 0 {
			return domain.FieldError(fmt.Errorf("xesam:artist empty"))
		}
		return domain.Field(stripLineBreaks(artists[0]))
	case string:
		return domain.Field(stripLineBreaks(artists))
	default:
		return domain.FieldError(fmt.Errorf("xesam:artist has type %T", artists))
	}
}

func intEntry(metadata map[string]dbus.Variant, key string) domain.FieldResult {
	v, ok := metadata[key]
	if !ok {
		return domain.FieldError(fmt.Errorf("%s missing", key))
	}
	n, ok := toInt64(v.Value())
	if !ok {
		return domain.FieldError(fmt.Errorf("%s has type %T", key, v.Value()))
	}
	return domain.Field(strconv.FormatInt(n, 10))
}

// durationEntry converts mpris:length (microseconds) to mm:ss
func durationEntry(metadata map[string]dbus.Variant) domain.FieldResult {
	length := intEntry(metadata, "mpris:length")
	if length.Err != nil {
		return length
	}
	us, _ := strconv.ParseInt(length.Value, 10, 64)
	formatted := FormatDuration(strconv.FormatInt(us/1000, 10))
	if formatted == "" {
		return domain.FieldError(fmt.Errorf("mpris:length out of range: %d", us))
	}
	return domain.Field(formatted)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
