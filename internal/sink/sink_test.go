package sink

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/genricoloni/tracktext/internal/domain"
	"go.uber.org/zap"
)

type testConfig struct {
	outputDir string
}

func (c testConfig) GetOutputDir() string           { return c.outputDir }
func (c testConfig) GetPollInterval() time.Duration { return time.Millisecond }
func (c testConfig) GetSource() string              { return "" }
func (c testConfig) GetPlayer() string              { return "Spotify" }
func (c testConfig) GetOsaScriptPath() string       { return "" }
func (c testConfig) ArtworkEnabled() bool           { return true }
func (c testConfig) GetArtworkSize() int            { return 300 }

var song1 = domain.TrackInfo{
	Name:      "Song1",
	Artist:    "ArtistA",
	Album:     "AlbumX",
	Duration:  "02:05",
	PlayCount: "10",
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(data)
}

func TestConsole_Banner(t *testing.T) {
	var buf bytes.Buffer
	if err := NewConsole(&buf).Banner(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(buf.String(), "\n")
	// three banner lines, the blank line and the trailing split remainder
	if len(lines) != 5 {
		t.Fatalf("expected 3 lines plus a blank line, got %q", buf.String())
	}
	if !strings.Contains(lines[0], "Welcome to tracktext!") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if lines[3] != "" {
		t.Errorf("expected blank line after banner, got %q", lines[3])
	}
}

func TestConsole_Publish(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	if err := c.Publish(context.Background(), song1, song1.DisplayString()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := buf.String(), "Song1 - ArtistA (02:05, AlbumX) - 10\n"; got != want {
		t.Errorf("console output: got %q, want %q", got, want)
	}
}

func TestTextFiles_Publish(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Output")
	s := NewTextFiles(zap.NewNop(), testConfig{outputDir: dir})

	if err := s.EnsureDir(); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := s.Publish(context.Background(), song1, song1.DisplayString()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	expected := map[string]string{
		NameFile:      "Song1\n",
		AlbumFile:     "AlbumX\n",
		ArtistFile:    "ArtistA\n",
		DurationFile:  "02:05\n",
		PlayCountFile: "10\n",
	}
	for name, want := range expected {
		if got := readFile(t, dir, name); got != want {
			t.Errorf("%s: got %q, want %q", name, got, want)
		}
	}
}

func TestTextFiles_Overwrite(t *testing.T) {
	dir := t.TempDir()
	s := NewTextFiles(zap.NewNop(), testConfig{outputDir: dir})

	long := domain.TrackInfo{Name: "A Very Long Track Name", Duration: "10:00"}
	if err := s.Publish(context.Background(), long, long.DisplayString()); err != nil {
		t.Fatal(err)
	}

	// An empty read still rewrites every file
	empty := domain.TrackInfo{}
	if err := s.Publish(context.Background(), empty, empty.DisplayString()); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{NameFile, AlbumFile, ArtistFile, DurationFile, PlayCountFile} {
		if got := readFile(t, dir, name); got != "\n" {
			t.Errorf("%s: expected full overwrite with empty line, got %q", name, got)
		}
	}
}

func TestTextFiles_EnsureDirIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Output")
	s := NewTextFiles(zap.NewNop(), testConfig{outputDir: dir})

	if err := s.EnsureDir(); err != nil {
		t.Fatalf("first EnsureDir: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("output directory was not created: %v", err)
	}
	if err := s.EnsureDir(); err != nil {
		t.Errorf("second EnsureDir should not fail: %v", err)
	}
}

func TestTextFiles_Errors(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewTextFiles(zap.NewNop(), testConfig{outputDir: filepath.Join(blocker, "Output")})

	if err := s.EnsureDir(); err == nil {
		t.Error("EnsureDir should fail when a parent is a regular file")
	}
	if err := s.Publish(context.Background(), song1, song1.DisplayString()); err == nil {
		t.Error("Publish should fail when the output directory is unusable")
	}
}

type fakeFetcher struct {
	calls int
	data  []byte
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

type fakeProcessor struct {
	err error
}

func (p *fakeProcessor) Process(ctx context.Context, data []byte) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return append([]byte("processed:"), data...), nil
}

func TestArtwork_Publish(t *testing.T) {
	dir := t.TempDir()
	fetch := &fakeFetcher{data: []byte("img")}
	a := NewArtwork(zap.NewNop(), testConfig{outputDir: dir}, fetch, &fakeProcessor{})
	ctx := context.Background()

	track := song1
	track.ArtworkURL = "https://i.scdn.co/image/abc"

	if err := a.Publish(ctx, track, track.DisplayString()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := readFile(t, dir, CoverFile); got != "processed:img" {
		t.Errorf("cover content: got %q", got)
	}

	// Same URL on the next track change: no refetch
	track.PlayCount = "11"
	if err := a.Publish(ctx, track, track.DisplayString()); err != nil {
		t.Fatal(err)
	}
	if fetch.calls != 1 {
		t.Errorf("expected 1 fetch, got %d", fetch.calls)
	}

	// No URL: skipped
	if err := a.Publish(ctx, song1, song1.DisplayString()); err != nil {
		t.Fatal(err)
	}
	if fetch.calls != 1 {
		t.Errorf("empty URL should not fetch, got %d calls", fetch.calls)
	}
}

func TestArtwork_FailuresAreSwallowed(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeFetcher
		proc    *fakeProcessor
	}{
		{"Fetch Error", &fakeFetcher{err: errors.New("404")}, &fakeProcessor{}},
		{"Process Error", &fakeFetcher{data: []byte("bad")}, &fakeProcessor{err: errors.New("decode")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			a := NewArtwork(zap.NewNop(), testConfig{outputDir: dir}, tt.fetcher, tt.proc)

			track := song1
			track.ArtworkURL = "https://example.com/cover.jpg"

			if err := a.Publish(context.Background(), track, track.DisplayString()); err != nil {
				t.Errorf("artwork failures must not be returned, got %v", err)
			}
			if _, err := os.Stat(filepath.Join(dir, CoverFile)); !os.IsNotExist(err) {
				t.Error("cover should not be written on failure")
			}
			if a.lastURL != "" {
				t.Error("failed URL should be retried on the next change")
			}
		})
	}
}
