package application

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownFormat is returned when the output-format parameter holds a
	// value that has no file extension.
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrUnsupportedInput is returned when an adapter receives an input shape
	// it has no strategy for.
	ErrUnsupportedInput = errors.New("unsupported input")

	// ErrOutputMissing is returned when a result path declared as written
	// cannot be opened after the run.
	ErrOutputMissing = errors.New("declared output is missing")
)

// OutputError lists the result paths that were declared written but could not
// be opened. It is returned together with a Result that still needs Cleanup.
type OutputError struct {
	Missing map[string]error
}

// Error implements the error interface.
func (e *OutputError) Error() string {
	keys := sortedKeys(e.Missing)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, e.Missing[k]))
	}
	return fmt.Sprintf("%s: %s", ErrOutputMissing, strings.Join(parts, "; "))
}

// Is matches ErrOutputMissing.
func (e *OutputError) Is(target error) bool {
	return target == ErrOutputMissing
}
