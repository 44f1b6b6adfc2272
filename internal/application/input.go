// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the input shapes an application accepts and the adapters
// that turn them into command-line tokens.
package application

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/toolwrap/internal/ctxlog"
)

// Input is the data an application is called on. The concrete shapes are
// Path, Lines and Text.
type Input interface {
	inputShape() string
}

// Path is the name of an existing input file.
type Path string

// Lines is an ordered sequence of records, written one per line to a
// temporary file before the call.
type Lines []string

// Text is a literal token passed through to the command line unchanged.
type Text string

func (Path) inputShape() string  { return "path" }
func (Lines) inputShape() string { return "lines" }
func (Text) inputShape() string  { return "text" }

// InputAdapter produces the trailing command-line token for in. Adapters may
// stage files through inv and must record the file the token refers to in
// inv.InputPath.
type InputAdapter interface {
	Adapt(ctx context.Context, inv *Invocation, in Input) (string, error)
}

// InputAdapterFunc adapts a plain function to InputAdapter.
type InputAdapterFunc func(ctx context.Context, inv *Invocation, in Input) (string, error)

// Adapt implements InputAdapter.
func (f InputAdapterFunc) Adapt(ctx context.Context, inv *Invocation, in Input) (string, error) {
	return f(ctx, inv, in)
}

// Selector dispatches on the input shape: a Path becomes a quoted path, Lines
// are staged to a temporary file which is then used as a path, and Text is
// passed through verbatim.
type Selector struct{}

// Adapt implements InputAdapter.
func (Selector) Adapt(ctx context.Context, inv *Invocation, in Input) (string, error) {
	switch v := in.(type) {
	case Path:
		inv.InputPath = string(v)
		return Quote(string(v)), nil
	case Lines:
		path, err := inv.StageLines(ctx, v)
		if err != nil {
			return "", err
		}
		inv.InputPath = path
		return Quote(path), nil
	case Text:
		return string(v), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedInput, in)
	}
}

// Redirect makes the tool read its input from stdin by prefixing the token
// with a shell input redirection.
type Redirect struct {
	Next InputAdapter
}

// Adapt implements InputAdapter.
func (r Redirect) Adapt(ctx context.Context, inv *Invocation, in Input) (string, error) {
	token, err := next(r.Next).Adapt(ctx, inv, in)
	if err != nil || token == "" {
		return token, err
	}
	return "<" + token, nil
}

// Companion emits a companion file token, the input path plus Suffix, ahead
// of the main token. COVE tools expect "name.cm name".
type Companion struct {
	Suffix string
	Next   InputAdapter
}

// Adapt implements InputAdapter.
func (c Companion) Adapt(ctx context.Context, inv *Invocation, in Input) (string, error) {
	token, err := next(c.Next).Adapt(ctx, inv, in)
	if err != nil {
		return "", err
	}

	base := inv.InputPath
	if text, ok := in.(Text); ok && base == "" {
		base = string(text)
	}
	if base == "" {
		return token, nil
	}
	inv.CompanionPath = base + c.Suffix
	return strings.Join([]string{Quote(inv.CompanionPath), token}, " "), nil
}

func next(a InputAdapter) InputAdapter {
	if a == nil {
		return Selector{}
	}
	return a
}

// Quote single-quotes s for sh.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// WriteLines writes records to path, one per line. Trailing newlines inside a
// record are stripped and every record, including the last, ends with "\n".
func WriteLines(path string, records []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, rec := range records {
		if _, err := w.WriteString(strings.Trim(rec, "\n") + "\n"); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadLines reads path back as records without their line terminators.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		records = append(records, scanner.Text())
	}
	return records, scanner.Err()
}

// StageLines writes records to a fresh temporary file in the working
// directory and registers it for release. The file name is also recorded as
// the invocation's InputFilename.
func (inv *Invocation) StageLines(ctx context.Context, records []string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	path := filepath.Join(inv.WorkingDir, "tmp"+inv.names.NewName()+".txt")
	if err := WriteLines(path, records); err != nil {
		return "", fmt.Errorf("failed to stage input lines: %w", err)
	}
	inv.temps = append(inv.temps, path)
	inv.InputFilename = path

	logger.Debug("Staged input lines.", "path", path, "records", len(records))
	return path, nil
}
