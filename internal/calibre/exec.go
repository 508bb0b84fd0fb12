// Package calibre wraps the Calibre command line suite: book metadata,
// conversion and email delivery.
package calibre

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Tool identifies one of the Calibre command line applications.
type Tool int

const (
	ToolMeta Tool = iota
	ToolConvert
	ToolSMTP
)

func (t Tool) binary() string {
	switch t {
	case ToolMeta:
		return "ebook-meta"
	case ToolConvert:
		return "ebook-convert"
	case ToolSMTP:
		return "calibre-smtp"
	}
	return ""
}

// Exec runs a Calibre tool and returns its exit code and combined output
// lines. Implementations never interpret the output.
type Exec interface {
	Run(ctx context.Context, tool Tool, args []string) (exitCode int, output []string, err error)
}

// CLIExec launches Calibre binaries from a configured home directory.
type CLIExec struct {
	homeDir string
	logger  *slog.Logger
}

// NewCLIExec creates an executor. An empty homeDir resolves binaries via PATH.
func NewCLIExec(homeDir string, logger *slog.Logger) *CLIExec {
	return &CLIExec{homeDir: homeDir, logger: logger}
}

// Run executes the tool and captures stdout and stderr line by line.
// A non-zero exit code is not an error here; callers decide what it means.
func (e *CLIExec) Run(ctx context.Context, tool Tool, args []string) (int, []string, error) {
	name := tool.binary()
	if name == "" {
		return 0, nil, fmt.Errorf("unknown calibre tool %d", tool)
	}
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	path := name
	if e.homeDir != "" {
		path = filepath.Join(e.homeDir, name)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = os.TempDir()

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	e.logger.Debug("running calibre cli", "path", path, "args", args)

	err := cmd.Run()

	var lines []string
	scanner := bufio.NewScanner(&buf)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			e.logger.Debug("calibre cli exited with error code", "exit_code", exitErr.ExitCode(), "output", lines)
			return exitErr.ExitCode(), lines, nil
		}
		return 0, lines, fmt.Errorf("run %s: %w", name, err)
	}

	e.logger.Debug("calibre cli finished", "exit_code", 0, "output", lines)
	return 0, lines, nil
}
