package tools

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/specialistvlad/toolwrap/internal/application"
	"github.com/specialistvlad/toolwrap/internal/catalog"
	"github.com/specialistvlad/toolwrap/internal/ctxlog"
)

// New builds an application for the catalog tool named name.
func New(cat *catalog.Catalog, name string, opts ...application.Option) (*application.Application, error) {
	def, err := cat.Definition(name)
	if err != nil {
		return nil, err
	}
	return application.New(def, opts...)
}

// PlotFromSeqAndStruct draws structure on seq with RNAplot and returns the
// plot file contents. An empty seqName is replaced by a generated name short
// enough to survive RNAplot's 12-character limit. The helper runs in the
// system temporary directory unless opts choose another.
func PlotFromSeqAndStruct(ctx context.Context, cat *catalog.Catalog, seq, structure, seqName string, params map[string]any, opts ...application.Option) ([]byte, error) {
	if len(seq) != len(structure) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(seq), len(structure))
	}

	app, err := New(cat, "RNAplot", helperOptions(params, opts)...)
	if err != nil {
		return nil, err
	}
	if seqName == "" {
		seqName = application.ShortName(app.Names, 9)
	}

	ctxlog.FromContext(ctx).Debug("Plotting structure.", "seq_name", seqName, "length", len(seq))

	var plot []byte
	err = run(ctx, app, application.Lines{">" + seqName, seq, structure}, func(res *application.Result) error {
		var readErr error
		plot, readErr = res.ReadFile(seqName + "_ss")
		return readErr
	})
	return plot, err
}

// ConstrainedFold folds seq with RNAfold subject to constraint and returns the
// raw standard output.
func ConstrainedFold(ctx context.Context, cat *catalog.Catalog, seq, constraint string, params map[string]any, opts ...application.Option) (string, error) {
	switch {
	case seq == "":
		return "", fmt.Errorf("%w: no sequence", ErrEmptyInput)
	case constraint == "":
		return "", fmt.Errorf("%w: no constraint string", ErrEmptyInput)
	case len(seq) != len(constraint):
		return "", fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(seq), len(constraint))
	}

	app, err := New(cat, "RNAfold", helperOptions(params, opts)...)
	if err != nil {
		return "", err
	}
	if err := app.Parameters.Apply(map[string]any{"-C": true}); err != nil {
		return "", err
	}

	var stdout string
	err = run(ctx, app, application.Lines{seq, constraint}, func(res *application.Result) error {
		var readErr error
		stdout, readErr = res.StdoutString()
		return readErr
	})
	return stdout, err
}

// helperOptions places the helper defaults ahead of the caller's options so
// that callers can override them. Stderr is captured to explain failures.
func helperOptions(params map[string]any, opts []application.Option) []application.Option {
	all := []application.Option{
		application.WithWorkingDir(os.TempDir()),
		application.WithSuppressStderr(false),
	}
	all = append(all, opts...)
	if len(params) > 0 {
		all = append(all, application.WithParams(params))
	}
	return all
}

// run calls app, turns a nonzero exit status into a *ToolError and always
// cleans up the result.
func run(ctx context.Context, app *application.Application, in application.Input, read func(*application.Result) error) (err error) {
	res, callErr := app.Call(ctx, in)
	if res == nil {
		return callErr
	}
	defer func() {
		if cleanupErr := res.Cleanup(); cleanupErr != nil {
			err = errors.Join(err, cleanupErr)
		}
	}()

	if res.ExitStatus != 0 {
		stderr, _ := res.StderrString()
		return &ToolError{Tool: app.Name, ExitStatus: res.ExitStatus, Stderr: stderr}
	}
	if callErr != nil {
		return callErr
	}
	return read(res)
}
