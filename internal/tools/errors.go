package tools

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLengthMismatch is returned when a sequence and its structure or
	// constraint string differ in length.
	ErrLengthMismatch = errors.New("sequence and structure are not the same length")

	// ErrEmptyInput is returned when a sequence or constraint is empty.
	ErrEmptyInput = errors.New("empty input")
)

// ToolError reports a tool that ran but exited with a nonzero status.
type ToolError struct {
	Tool       string
	ExitStatus int
	Stderr     string
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	msg := fmt.Sprintf("tool %q exited with status %d", e.Tool, e.ExitStatus)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}
