// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines how an application predicts the files an external tool
// writes.
//
// Why predict instead of discovering?
//
// Tools such as RNAfold and RNAplot name their output files after the
// sequence names found in the input, falling back to fixed names for unnamed
// sequences. Predicting the names from the input lets the wrapper hand the
// caller a stable logical key (e.g. "seq1_ss") without listing the working
// directory, which may contain files from earlier runs. The prediction is a
// heuristic: if a tool truncates or deduplicates names the declared path will
// be wrong and opening it will fail with ErrOutputMissing.
package application

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/specialistvlad/toolwrap/internal/ctxlog"
	"github.com/specialistvlad/toolwrap/internal/param"
)

// ResultPath is a file the wrapper expects the tool to write. IsWritten is
// false when the key is known but the file is not expected to exist, e.g. a
// dot plot when the partition function is off.
type ResultPath struct {
	Path      string
	IsWritten bool
}

// ResultResolver predicts the result paths of an invocation.
type ResultResolver interface {
	ResolvePaths(ctx context.Context, inv *Invocation) (map[string]ResultPath, error)
}

// NoResults declares no files; the tool only writes to stdout.
type NoResults struct{}

// ResolvePaths implements ResultResolver.
func (NoResults) ResolvePaths(context.Context, *Invocation) (map[string]ResultPath, error) {
	return map[string]ResultPath{}, nil
}

// Artifact describes one output file written per named record and, for the
// unnamed records, once under a default name.
type Artifact struct {
	// Suffix is appended to a record name: "<name><Suffix><ext>", with key
	// "<name><Suffix>".
	Suffix string

	// DefaultName is the file stem used for unnamed records.
	DefaultName string

	// DefaultKey is the result key of the unnamed file.
	DefaultKey string

	// When names a parameter that must be on for the file to be written.
	// Empty means always written.
	When string
}

// ExtensionSelector picks the output extension from a format parameter.
type ExtensionSelector struct {
	// Parameter is the format-selector flag or synonym. Empty means the
	// default extension always applies.
	Parameter string

	// Formats maps a format keyword to an extension such as ".svg".
	Formats map[string]string

	// Default applies when the selector parameter is off.
	Default string
}

// Extension returns the extension for the current parameter values.
func (s ExtensionSelector) Extension(ps *param.Parameters) (string, error) {
	if s.Parameter == "" {
		return s.Default, nil
	}
	p, err := ps.Get(s.Parameter)
	if err != nil {
		return "", err
	}
	if !p.IsOn() || !p.HasValue() {
		return s.Default, nil
	}
	format, err := p.ValueString()
	if err != nil {
		return "", err
	}
	ext, ok := s.Formats[format]
	if !ok {
		return "", fmt.Errorf("%w: %s %q (known: %s)", ErrUnknownFormat, p.ID(), format, strings.Join(sortedKeys(s.Formats), ", "))
	}
	return ext, nil
}

// NamedRecordResolver predicts outputs from name-marked records: a record
// starting with Marker names the record after it.
type NamedRecordResolver struct {
	Marker string

	// PairDivisor is the number of anonymous records forming one logical
	// sequence. RNAplot reads a sequence and a structure line per entry and
	// uses 2; zero is treated as 1.
	PairDivisor int

	Artifacts []Artifact
	Extension ExtensionSelector
}

// ResolvePaths implements ResultResolver.
func (r NamedRecordResolver) ResolvePaths(ctx context.Context, inv *Invocation) (map[string]ResultPath, error) {
	logger := ctxlog.FromContext(ctx)

	ext, err := r.Extension.Extension(inv.Parameters)
	if err != nil {
		return nil, err
	}

	records, err := inv.Records()
	if err != nil {
		return nil, err
	}

	written := make([]bool, len(r.Artifacts))
	for i, a := range r.Artifacts {
		if written[i], err = isOnOrAlways(inv.Parameters, a.When); err != nil {
			return nil, err
		}
	}

	marker := r.Marker
	if marker == "" {
		marker = ">"
	}

	result := make(map[string]ResultPath)
	named, anonymous := 0, 0
	for _, rec := range records {
		if strings.TrimSpace(rec) == "" {
			continue
		}
		if !strings.HasPrefix(rec, marker) {
			anonymous++
			continue
		}
		named++
		name := strings.TrimSpace(strings.TrimPrefix(rec, marker))
		for i, a := range r.Artifacts {
			result[name+a.Suffix] = ResultPath{
				Path:      filepath.Join(inv.WorkingDir, name+a.Suffix+ext),
				IsWritten: written[i],
			}
		}
	}

	divisor := r.PairDivisor
	if divisor <= 0 {
		divisor = 1
	}
	if anonymous/divisor-named > 0 {
		for i, a := range r.Artifacts {
			result[a.DefaultKey] = ResultPath{
				Path:      filepath.Join(inv.WorkingDir, a.DefaultName+ext),
				IsWritten: written[i],
			}
		}
	}

	logger.Debug("Predicted result paths from records.", "named", named, "anonymous", anonymous, "divisor", divisor, "paths", len(result))
	return result, nil
}

// CompanionResolver declares the companion file built next to the input, as
// covet does when it saves a trained model to "<input>.cm".
type CompanionResolver struct {
	// Key is the result key of the companion file, e.g. "cm".
	Key    string
	Suffix string

	// InputKey, when set, also exposes the staged temporary input file.
	InputKey string
}

// ResolvePaths implements ResultResolver.
func (r CompanionResolver) ResolvePaths(_ context.Context, inv *Invocation) (map[string]ResultPath, error) {
	result := make(map[string]ResultPath)

	base := inv.InputPath
	if base == "" {
		if text, ok := inv.Input.(Text); ok {
			base = string(text)
		}
	}
	if base != "" {
		result[r.Key] = ResultPath{Path: inv.resolve(base + r.Suffix), IsWritten: true}
	}
	if r.InputKey != "" && inv.InputFilename != "" {
		result[r.InputKey] = ResultPath{Path: inv.InputFilename, IsWritten: true}
	}
	return result, nil
}

func isOnOrAlways(ps *param.Parameters, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	return ps.IsOn(key)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
