package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/genricoloni/tracktext/internal/domain"
)

var bannerLines = []string{
	"Welcome to tracktext!",
	"This little handy tool writes the song currently playing on Spotify into text files for OBS and other streaming tools.",
	"To exit, press Enter or Ctrl+C. Otherwise enjoy the songs flowing in. :-)",
}

// Console prints the display string of every new track
type Console struct {
	out   io.Writer
	title lipgloss.Style
}

// NewConsole creates a console sink writing to out
func NewConsole(out io.Writer) *Console {
	renderer := lipgloss.NewRenderer(out)
	return &Console{
		out:   out,
		title: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
	}
}

// Name identifies the sink in logs
func (c *Console) Name() string {
	return "console"
}

// Banner prints the three-line welcome text followed by a blank line
func (c *Console) Banner() error {
	if _, err := fmt.Fprintln(c.out, c.title.Render(bannerLines[0])); err != nil {
		return err
	}
	for _, line := range bannerLines[1:] {
		if _, err := fmt.Fprintln(c.out, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(c.out)
	return err
}

// Publish prints the display string on its own line
func (c *Console) Publish(_ context.Context, _ domain.TrackInfo, display string) error {
	_, err := fmt.Fprintln(c.out, display)
	return err
}
