package reader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

// DBusClient defines the interface for D-Bus operations.
// This abstraction allows us to mock D-Bus interactions in tests.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/genricoloni/tracktext/internal/reader DBusClient
type DBusClient interface {
	// Close closes the D-Bus connection
	Close() error

	// GetProperty retrieves a property from a D-Bus object
	// player: The bus name (e.g., "org.mpris.MediaPlayer2.spotify")
	// path: The object path (e.g., "/org/mpris/MediaPlayer2")
	// prop: The property name (e.g., "org.mpris.MediaPlayer2.Player.Metadata")
	GetProperty(ctx context.Context, player, path, prop string) (dbus.Variant, error)
}

// StdDBusClient is the real implementation using godbus
type StdDBusClient struct {
	conn *dbus.Conn
}

// NewStdDBusClient opens a private connection to the session bus
func NewStdDBusClient() (*StdDBusClient, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return &StdDBusClient{conn: conn}, nil
}

// Close closes the D-Bus connection
func (c *StdDBusClient) Close() error {
	return c.conn.Close()
}

// GetProperty retrieves a property through org.freedesktop.DBus.Properties.Get
func (c *StdDBusClient) GetProperty(ctx context.Context, player, path, prop string) (dbus.Variant, error) {
	idx := strings.LastIndex(prop, ".")
	if idx < 0 {
		return dbus.Variant{}, fmt.Errorf("invalid property name %q", prop)
	}

	var v dbus.Variant
	obj := c.conn.Object(player, dbus.ObjectPath(path))
	err := obj.CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, prop[:idx], prop[idx+1:]).Store(&v)
	return v, err
}

// isRemoteError reports whether err was returned by the remote peer
// (e.g. the player is not running) rather than by the transport.
func isRemoteError(err error) bool {
	var value dbus.Error
	if errors.As(err, &value) {
		return true
	}
	var ptr *dbus.Error
	return errors.As(err, &ptr)
}
