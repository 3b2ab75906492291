// Package edf turns binary EDF recordings into ASC exports by running the
// vendor's edf2asc converter.
package edf

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/antonmeskildsen/tracker-tools/internal/fsutil"
	"github.com/antonmeskildsen/tracker-tools/internal/monitoring"
)

// DefaultTool is the converter looked up on PATH when none is configured.
const DefaultTool = "edf2asc"

// ConvertArgs are passed after the input path: overwrite without asking and
// export resolution, velocity, floating point times and input port values.
// The sample line decoder expects all of these columns.
var ConvertArgs = []string{"-y", "-res", "-vel", "-ftime", "-input"}

// CommandRunner runs an external program and returns its combined output.
// Tests substitute a MockRunner.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name and returns stdout and stderr interleaved.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// IsEDF reports whether path names an EDF recording.
func IsEDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".edf")
}

// ASCPath is where edf2asc writes the export of path: next to the input,
// with the extension replaced.
func ASCPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".asc"
}

// Converter runs edf2asc on single recordings.
type Converter struct {
	// Tool is the converter binary, DefaultTool when empty.
	Tool   string
	Runner CommandRunner
	FS     fsutil.FileSystem
}

func (c *Converter) tool() string {
	if c.Tool == "" {
		return DefaultTool
	}
	return c.Tool
}

// Convert runs the converter on path and returns the path of the written
// ASC export. edf2asc exits non-zero on some recoverable warnings, so the
// export is accepted whenever it exists afterwards.
func (c *Converter) Convert(ctx context.Context, path string) (string, error) {
	if !c.FS.Exists(path) {
		return "", fmt.Errorf("edf recording %s does not exist", path)
	}
	out := ASCPath(path)

	args := append([]string{path}, ConvertArgs...)
	monitoring.Logf("converting %s with %s", path, c.tool())
	output, runErr := c.Runner.Run(ctx, c.tool(), args...)
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if line != "" {
			monitoring.Logf("[%s] %s", c.tool(), line)
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !c.FS.Exists(out) {
		if runErr != nil {
			return "", fmt.Errorf("%s %s: %w", c.tool(), path, runErr)
		}
		return "", fmt.Errorf("%s did not write %s", c.tool(), out)
	}
	if runErr != nil {
		monitoring.Logf("%s exited with %v, using %s", c.tool(), runErr, out)
	}
	return out, nil
}

// MockRunner records the commands it is asked to run. OnRun, when set,
// simulates the program's side effects.
type MockRunner struct {
	Calls  []MockCall
	Output []byte
	Err    error
	OnRun  func(name string, args []string) error
}

// MockCall is one recorded invocation.
type MockCall struct {
	Name string
	Args []string
}

// Run records the call, applies OnRun and returns the configured result.
func (m *MockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.Calls = append(m.Calls, MockCall{Name: name, Args: args})
	if m.OnRun != nil {
		if err := m.OnRun(name, args); err != nil {
			return m.Output, err
		}
	}
	return m.Output, m.Err
}
