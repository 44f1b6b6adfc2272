// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Application, the invocable wrapper around one
// external command.
//
// Why split Definition and Application?
//
// A Definition is immutable configuration, typically built once from a tool
// catalog and shared. An Application is constructed per logical invocation
// from a Definition and owns a private clone of the parameters, so callers
// can turn switches on and off without affecting other instances.
package application

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/toolwrap/internal/ctxlog"
	"github.com/specialistvlad/toolwrap/internal/param"
)

// Definition is the immutable description of a tool.
type Definition struct {
	// Name identifies the tool in logs and catalogs.
	Name string

	// Command is the executable placed first on the command line.
	Command string

	// Parameters is the template catalog; every Application clones it.
	Parameters *param.Parameters

	// Input defaults to Selector.
	Input InputAdapter

	// Results defaults to NoResults.
	Results ResultResolver

	SuppressStderr bool
	SuppressStdout bool
}

// Application is a configured, invocable instance of a Definition.
type Application struct {
	Name       string
	Command    string
	Parameters *param.Parameters
	WorkingDir string

	Input   InputAdapter
	Results ResultResolver

	SuppressStderr bool
	SuppressStdout bool

	Names  NameSource
	Runner Runner
}

// Option configures an Application at construction.
type Option func(*Application) error

// WithWorkingDir sets the directory the tool runs in and where temporary
// files are staged. It defaults to the process working directory.
func WithWorkingDir(dir string) Option {
	return func(a *Application) error {
		a.WorkingDir = dir
		return nil
	}
}

// WithNameSource replaces the random temporary-name source.
func WithNameSource(src NameSource) Option {
	return func(a *Application) error {
		a.Names = src
		return nil
	}
}

// WithRunner replaces the shell runner.
func WithRunner(r Runner) Option {
	return func(a *Application) error {
		a.Runner = r
		return nil
	}
}

// WithSuppressStderr overrides the definition's stderr policy.
func WithSuppressStderr(suppress bool) Option {
	return func(a *Application) error {
		a.SuppressStderr = suppress
		return nil
	}
}

// WithSuppressStdout discards the tool's stdout instead of capturing it.
func WithSuppressStdout(suppress bool) Option {
	return func(a *Application) error {
		a.SuppressStdout = suppress
		return nil
	}
}

// WithInputAdapter replaces the definition's input strategy.
func WithInputAdapter(in InputAdapter) Option {
	return func(a *Application) error {
		a.Input = in
		return nil
	}
}

// WithResultResolver replaces the definition's result-path strategy.
func WithResultResolver(r ResultResolver) Option {
	return func(a *Application) error {
		a.Results = r
		return nil
	}
}

// WithParams applies parameter settings, as Parameters.Apply does.
func WithParams(settings map[string]any) Option {
	return func(a *Application) error {
		return a.Parameters.Apply(settings)
	}
}

// New creates an Application from def. The parameters are cloned before any
// option runs.
func New(def Definition, opts ...Option) (*Application, error) {
	if def.Command == "" {
		return nil, fmt.Errorf("tool %q: command is required", def.Name)
	}

	params := def.Parameters
	if params == nil {
		params, _ = param.NewParameters(nil, nil)
	}

	a := &Application{
		Name:           def.Name,
		Command:        def.Command,
		Parameters:     params.Clone(),
		Input:          def.Input,
		Results:        def.Results,
		SuppressStderr: def.SuppressStderr,
		SuppressStdout: def.SuppressStdout,
		Names:          UUIDNames{},
		Runner:         ShellRunner{},
	}
	if a.Name == "" {
		a.Name = def.Command
	}
	if a.Input == nil {
		a.Input = Selector{}
	}
	if a.Results == nil {
		a.Results = NoResults{}
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("tool %q: %w", a.Name, err)
		}
	}

	if a.WorkingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", a.Name, err)
		}
		a.WorkingDir = wd
	}
	wd, err := filepath.Abs(a.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("tool %q: invalid working directory: %w", a.Name, err)
	}
	a.WorkingDir = wd

	return a, nil
}

// BaseCommand renders the command name followed by every parameter that is
// on, without the input token.
func (a *Application) BaseCommand() (string, error) {
	params, err := a.Parameters.Render()
	if err != nil {
		return "", err
	}
	return joinTokens(a.Command, params), nil
}

// Prepare renders the full command line for in, stages any temporary input
// files and predicts the result paths. The returned Invocation must be
// released by the caller when it is not passed on to Call.
func (a *Application) Prepare(ctx context.Context, in Input) (*Invocation, error) {
	return a.prepare(ctxlog.With(ctx, "tool", a.Name), in)
}

func (a *Application) prepare(ctx context.Context, in Input) (*Invocation, error) {
	logger := ctxlog.FromContext(ctx)

	if err := os.MkdirAll(a.WorkingDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create working directory %s: %w", a.WorkingDir, err)
	}

	base, err := a.BaseCommand()
	if err != nil {
		return nil, err
	}

	inv := &Invocation{
		Tool:       a.Name,
		WorkingDir: a.WorkingDir,
		Input:      in,
		Parameters: a.Parameters,
		names:      a.Names,
	}

	token, err := a.Input.Adapt(ctx, inv, in)
	if err != nil {
		inv.Release()
		return nil, fmt.Errorf("tool %q: %w", a.Name, err)
	}
	inv.CommandLine = joinTokens(base, token)

	paths, err := a.Results.ResolvePaths(ctx, inv)
	if err != nil {
		inv.Release()
		return nil, fmt.Errorf("tool %q: %w", a.Name, err)
	}
	inv.Paths = paths

	logger.Debug("Invocation prepared.", "command_line", inv.CommandLine, "working_dir", inv.WorkingDir, "result_paths", len(paths))
	return inv, nil
}

// Call runs the tool once on in and returns its Result. A nonzero exit status
// is not an error. When some declared outputs cannot be opened, Call returns
// both the Result and an *OutputError; the Result must still be cleaned up.
func (a *Application) Call(ctx context.Context, in Input) (*Result, error) {
	ctx = ctxlog.With(ctx, "tool", a.Name)
	logger := ctxlog.FromContext(ctx)

	inv, err := a.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Paths: inv.Paths,
		Files: make(map[string]*os.File),
		inv:   inv,
	}

	var stdout, stderr io.Writer = io.Discard, io.Discard
	if !a.SuppressStdout {
		if res.Stdout, err = a.createCapture(inv, ".out"); err != nil {
			res.Cleanup()
			return nil, err
		}
		res.captures = append(res.captures, res.Stdout)
		stdout = res.Stdout
	}
	if !a.SuppressStderr {
		if res.Stderr, err = a.createCapture(inv, ".err"); err != nil {
			res.Cleanup()
			return nil, err
		}
		res.captures = append(res.captures, res.Stderr)
		stderr = res.Stderr
	}

	logger.Debug("Running command.", "command_line", inv.CommandLine)
	res.ExitStatus, err = a.Runner.Run(ctx, inv.WorkingDir, inv.CommandLine, stdout, stderr)
	if err != nil {
		res.Cleanup()
		return nil, fmt.Errorf("tool %q: %w", a.Name, err)
	}

	for _, f := range res.captures {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			res.Cleanup()
			return nil, fmt.Errorf("tool %q: failed to rewind captured output: %w", a.Name, err)
		}
	}

	if err := res.openOutputs(); err != nil {
		logger.Warn("Declared outputs could not be opened.", "error", err, "exit_status", res.ExitStatus)
		return res, err
	}

	logger.Info("Command finished.", "exit_status", res.ExitStatus, "outputs", len(res.Files))
	return res, nil
}

func (a *Application) createCapture(inv *Invocation, ext string) (*os.File, error) {
	path := filepath.Join(inv.WorkingDir, "tmp"+a.Names.NewName()+ext)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	return f, nil
}

func joinTokens(tokens ...string) string {
	var out []string
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, " ")
}
