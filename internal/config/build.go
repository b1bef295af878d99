package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/google/shlex"

	"github.com/rancher/pages-deploy-action/internal/redact"
)

// DefaultBuildCommand renders a Jekyll site.
const DefaultBuildCommand = "jekyll build"

// ParseCommand splits a shell-style command line into argv.
func ParseCommand(command string) ([]string, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("build command %q must be valid: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("build command is empty")
	}
	return argv, nil
}

// CommandBuild returns a BuildFunc that runs argv with "--destination <dest>"
// appended in the current working directory. Output streams to stdout and
// stderr, which default to the process streams.
func CommandBuild(argv []string, logger *slog.Logger, stdout, stderr io.Writer) BuildFunc {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return func(ctx context.Context, dest string) error {
		if len(argv) == 0 {
			return fmt.Errorf("build command is empty")
		}

		args := append(append([]string{}, argv[1:]...), "--destination", dest)
		if logger != nil {
			logger.Info("building site", "command", redact.Args(argv[0], args...))
		}

		cmd := exec.CommandContext(ctx, argv[0], args...)
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("run %s: %w", argv[0], err)
		}
		return nil
	}
}
