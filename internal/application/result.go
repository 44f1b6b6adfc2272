package application

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Result is the outcome of one Call.
type Result struct {
	// Stdout is the captured standard output, rewound to the start. Nil when
	// stdout was suppressed.
	Stdout *os.File

	// Stderr is the captured standard error, rewound to the start. Nil when
	// stderr was suppressed.
	Stderr *os.File

	ExitStatus int

	// Paths holds every predicted result path, written or not.
	Paths map[string]ResultPath

	// Files holds an open handle for every path declared written.
	Files map[string]*os.File

	inv      *Invocation
	captures []*os.File
	released bool
}

// File returns the open handle for key.
func (r *Result) File(key string) (*os.File, error) {
	if f, ok := r.Files[key]; ok {
		return f, nil
	}
	if p, ok := r.Paths[key]; ok && !p.IsWritten {
		return nil, fmt.Errorf("result %q at %s is declared but not written", key, p.Path)
	}
	return nil, fmt.Errorf("no result named %q", key)
}

// ReadFile returns the full contents of the output under key.
func (r *Result) ReadFile(key string) ([]byte, error) {
	f, err := r.File(key)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}

// StdoutString returns the captured stdout, or "" when it was suppressed.
func (r *Result) StdoutString() (string, error) {
	return readCapture(r.Stdout)
}

// StderrString returns the captured stderr, or "" when it was suppressed.
func (r *Result) StderrString() (string, error) {
	return readCapture(r.Stderr)
}

// Invocation returns the prepared invocation behind the result.
func (r *Result) Invocation() *Invocation { return r.inv }

// Cleanup closes every handle and removes the captured streams, the staged
// inputs and the opened output files. It is safe to call more than once.
func (r *Result) Cleanup() error {
	if r.released {
		return nil
	}
	r.released = true

	var errs []error
	for _, f := range r.captures {
		errs = append(errs, closeAndRemove(f))
	}
	for _, key := range sortedKeys(r.Files) {
		errs = append(errs, closeAndRemove(r.Files[key]))
	}
	if r.inv != nil {
		errs = append(errs, r.inv.Release())
	}
	return errors.Join(errs...)
}

// Keep closes every handle and releases the captured streams and staged
// inputs, but leaves the output files on disk.
func (r *Result) Keep() error {
	if r.released {
		return nil
	}
	r.released = true

	var errs []error
	for _, f := range r.captures {
		errs = append(errs, closeAndRemove(f))
	}
	for _, key := range sortedKeys(r.Files) {
		errs = append(errs, r.Files[key].Close())
	}
	if r.inv != nil {
		errs = append(errs, r.inv.Release())
	}
	return errors.Join(errs...)
}

func (r *Result) openOutputs() error {
	missing := make(map[string]error)
	for _, key := range sortedKeys(r.Paths) {
		p := r.Paths[key]
		if !p.IsWritten {
			continue
		}
		f, err := os.Open(p.Path)
		if err != nil {
			missing[key] = err
			continue
		}
		r.Files[key] = f
	}
	if len(missing) > 0 {
		return &OutputError{Missing: missing}
	}
	return nil
}

func readCapture(f *os.File) (string, error) {
	if f == nil {
		return "", nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	b, err := io.ReadAll(f)
	return string(b), err
}

func closeAndRemove(f *os.File) error {
	var errs []error
	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		errs = append(errs, err)
	}
	if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
