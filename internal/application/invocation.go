package application

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/toolwrap/internal/param"
)

// Invocation is one prepared call: the rendered command line, the staged
// inputs and the predicted result paths.
type Invocation struct {
	Tool        string
	CommandLine string
	WorkingDir  string

	// Input is the data the call was prepared with.
	Input Input

	// InputPath is the file the input token refers to: the Path itself or
	// the staged temporary file. Empty for Text input.
	InputPath string

	// InputFilename is the staged temporary input file, if any.
	InputFilename string

	// CompanionPath is the companion token emitted by a Companion adapter.
	CompanionPath string

	// Parameters is the application's collection at preparation time. It
	// must not be mutated while the invocation is in use.
	Parameters *param.Parameters

	Paths map[string]ResultPath

	names NameSource
	temps []string
}

// Records returns the input as records, the way result resolvers scan it. A
// Path is read from disk. Text is an opaque command-line token, often a file
// name, so it has no records and is rejected with ErrUnsupportedInput.
func (inv *Invocation) Records() ([]string, error) {
	switch v := inv.Input.(type) {
	case Lines:
		return []string(v), nil
	case Path:
		records, err := ReadLines(inv.resolve(string(v)))
		if err != nil {
			return nil, fmt.Errorf("failed to read input records: %w", err)
		}
		return records, nil
	case Text:
		return nil, fmt.Errorf("%w: text %q carries no records to scan", ErrUnsupportedInput, string(v))
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedInput, inv.Input)
	}
}

// TempFiles returns the files staged for this invocation.
func (inv *Invocation) TempFiles() []string {
	return append([]string(nil), inv.temps...)
}

// Release removes the staged files. It is safe to call more than once.
func (inv *Invocation) Release() error {
	var errs []error
	for _, path := range inv.temps {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	inv.temps = nil
	return errors.Join(errs...)
}

// resolve makes p absolute against the working directory, where the tool runs.
func (inv *Invocation) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(inv.WorkingDir, p)
}
