package domain

import "fmt"

// TrackInfo contains the metadata of the track currently playing.
// A new value is read on every poll cycle.
type TrackInfo struct {
	// Name of the track
	Name string
	// Artist name
	Artist string
	// Album name
	Album string
	// Duration formatted as mm:ss, empty when the player returned nothing usable
	Duration string
	// PlayCount is the raw play count reported by the player
	PlayCount string
	// ArtworkURL is only filled when cover art output is enabled.
	// It is not part of the display string.
	ArtworkURL string
}

// DisplayString returns the line printed to the console on every change.
// It doubles as the change-detection key of the poll loop.
func (t TrackInfo) DisplayString() string {
	return fmt.Sprintf("%s - %s (%s, %s) - %s", t.Name, t.Artist, t.Duration, t.Album, t.PlayCount)
}

// FieldResult is the outcome of a single field query against the player.
type FieldResult struct {
	Value string
	Err   error
}

// Field wraps a successfully read value
func Field(value string) FieldResult {
	return FieldResult{Value: value}
}

// FieldError wraps a failed read
func FieldError(err error) FieldResult {
	return FieldResult{Err: err}
}

// OrEmpty returns the value, or the empty string if the query failed
func (r FieldResult) OrEmpty() string {
	if r.Err != nil {
		return ""
	}
	return r.Value
}
