package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Runner executes a script body and returns its raw standard output.
//
//go:generate mockgen -destination=mocks/runner_mock.go -package=mocks github.com/genricoloni/tracktext/internal/executor Runner
type Runner interface {
	Run(ctx context.Context, script string) (string, error)
}

// OsaScriptRunner runs AppleScript through the osascript command line bridge
type OsaScriptRunner struct {
	logger *zap.Logger
	binary string
}

// NewOsaScriptRunner creates a runner invoking the given osascript binary
func NewOsaScriptRunner(logger *zap.Logger, binary string) *OsaScriptRunner {
	return &OsaScriptRunner{
		logger: logger,
		binary: binary,
	}
}

// Run writes script to the standard input of osascript, closes it, reads the
// output to completion and waits for the process to exit.
// No timeout is applied; cancelling ctx kills the process.
func (r *OsaScriptRunner) Run(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary, "-l", "AppleScript")
	cmd.Stdin = strings.NewReader(script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("osascript failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	r.logger.Debug("Script executed",
		zap.String("binary", r.binary),
		zap.Int("bytes", stdout.Len()))

	return stdout.String(), nil
}
