package reader

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatDuration converts a millisecond count reported by the player into
// mm:ss. Minutes are not wrapped at one hour. Anything that is not a
// non-negative integer yields the empty string.
func FormatDuration(raw string) string {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || ms < 0 {
		return ""
	}
	return formatMillis(ms)
}

func formatMillis(ms int64) string {
	minutes := ms / 60000
	seconds := (ms / 1000) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// stripLineBreaks removes every \n and \r from a raw player response
func stripLineBreaks(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}
