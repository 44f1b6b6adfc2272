package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Runner executes a rendered command line inside dir.
type Runner interface {
	// Run blocks until the command exits and returns its exit status. An
	// error means the command could not be run at all; a nonzero status is
	// not an error.
	Run(ctx context.Context, dir, commandLine string, stdout, stderr io.Writer) (int, error)
}

// ShellRunner runs command lines through a POSIX shell so that redirection
// tokens such as "<file" are honoured.
type ShellRunner struct {
	// Shell defaults to "sh".
	Shell string
}

// Run implements Runner.
func (r ShellRunner) Run(ctx context.Context, dir, commandLine string, stdout, stderr io.Writer) (int, error) {
	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", commandLine)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return exitErr.ExitCode(), nil
	}
	if ctx.Err() != nil {
		return -1, fmt.Errorf("command interrupted: %w", ctx.Err())
	}
	return -1, fmt.Errorf("failed to run command: %w", err)
}
