// Package keypress implements the "press a key to exit" behavior of the daemon.
//
// The terminal is left in cooked mode so console and log lines keep their
// line endings; the key is therefore delivered once Enter is pressed.
package keypress

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// Watcher waits for a line on an interactive terminal and then calls onKey.
// On a non-interactive stdin (pipes, /dev/null, service managers) it does nothing.
type Watcher struct {
	logger *zap.Logger
	in     io.Reader
	isTerm func() bool

	mu       sync.Mutex
	stopped  bool
	finished chan struct{}
}

// NewWatcher creates a watcher on the process standard input
func NewWatcher(logger *zap.Logger) *Watcher {
	return &Watcher{
		logger: logger,
		in:     os.Stdin,
		isTerm: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
}

// Start begins waiting for input in a goroutine. It returns immediately.
func (w *Watcher) Start(_ context.Context, onKey func()) error {
	if !w.isTerm() {
		w.logger.Debug("Stdin is not a terminal, keypress exit disabled")
		return nil
	}

	w.mu.Lock()
	w.finished = make(chan struct{})
	w.mu.Unlock()

	go w.wait(onKey)
	return nil
}

func (w *Watcher) wait(onKey func()) {
	defer close(w.finished)

	_, err := bufio.NewReader(w.in).ReadByte()

	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}

	if err != nil {
		w.logger.Debug("Stdin closed, keypress exit disabled", zap.Error(err))
		return
	}
	w.logger.Info("Key pressed, shutting down")
	onKey()
}

// Stop disarms the watcher. A pending read is abandoned.
func (w *Watcher) Stop(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	return nil
}
