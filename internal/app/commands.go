package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/specialistvlad/toolwrap/internal/application"
	"github.com/specialistvlad/toolwrap/internal/ctxlog"
	"github.com/specialistvlad/toolwrap/internal/param"
	"github.com/zclconf/go-cty/cty"
)

// ErrConflictingInput is returned when a request names both an input file
// and literal records.
var ErrConflictingInput = errors.New("an input file and --record cannot be combined")

// Request describes one render or run of a catalog tool.
type Request struct {
	Tool string

	// Params holds "KEY" or "KEY=VALUE" settings. KEY is a flag or synonym.
	Params []string

	// Off lists parameters to switch off, e.g. defaults the caller does not
	// want on the command line.
	Off []string

	// Records are input lines staged to a temporary file.
	Records []string

	// File is an existing input file.
	File string

	// WorkingDir overrides Config.WorkingDir.
	WorkingDir string

	// Keep leaves the output files on disk after a run.
	Keep bool
}

// List prints every tool with its description.
func (a *App) List(ctx context.Context) error {
	ctxlog.FromContext(a.Context(ctx)).Debug("Listing tools.", "count", a.catalog.Len())

	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	for _, name := range a.catalog.Names() {
		tool, err := a.catalog.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, tool.Description)
	}
	return tw.Flush()
}

// Describe prints a tool's command, help and parameter table.
func (a *App) Describe(ctx context.Context, name string) error {
	tool, err := a.catalog.Get(name)
	if err != nil {
		return err
	}
	def, err := tool.Definition()
	if err != nil {
		return err
	}
	ctxlog.FromContext(a.Context(ctx)).Debug("Describing tool.", "tool", name, "source", tool.Source)

	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Tool:\t%s\n", tool.Name)
	fmt.Fprintf(tw, "Command:\t%s\n", tool.Command)
	if tool.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", tool.Description)
	}
	if tool.Help != "" {
		fmt.Fprintf(tw, "Help:\t%s\n", tool.Help)
	}
	fmt.Fprintf(tw, "Source:\t%s\n", tool.Source)
	fmt.Fprintf(tw, "Input:\t%s\n", describeInput(tool.RedirectInput, tool.CompanionSuffix))
	fmt.Fprintf(tw, "Results:\t%s\n", describeResults(string(tool.Results.Kind)))
	if err := tw.Flush(); err != nil {
		return err
	}

	ps := def.Parameters
	if ps.Len() > 0 {
		fmt.Fprintln(a.outW, "\nParameters:")
		tw = tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  FLAG\tKIND\tTYPE\tSTATE\tVALUE\tDESCRIPTION")
		for _, flag := range ps.Flags() {
			p, err := ps.Get(flag)
			if err != nil {
				return err
			}
			state := "off"
			if p.IsOn() {
				state = "on"
			}
			value := ""
			if p.HasValue() {
				if value, err = p.ValueString(); err != nil {
					return err
				}
			}
			typ := "-"
			if p.Type != cty.NilType {
				typ = p.Type.FriendlyName()
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n", flag, p.Kind, typ, state, value, p.Description)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if synonyms := ps.Synonyms(); len(synonyms) > 0 {
		fmt.Fprintln(a.outW, "\nSynonyms:")
		for _, alias := range sortedKeys(synonyms) {
			fmt.Fprintf(a.outW, "  %s -> %s\n", alias, synonyms[alias])
		}
	}
	return nil
}

// Render prints the command line req would run, without running it. Staged
// input files are released before Render returns.
func (a *App) Render(ctx context.Context, req Request) (string, error) {
	ctx = a.Context(ctx)

	tool, err := a.newApplication(req)
	if err != nil {
		return "", err
	}
	in, err := req.input()
	if err != nil {
		return "", err
	}

	inv, err := tool.Prepare(ctx, in)
	if err != nil {
		return "", err
	}
	if err := inv.Release(); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to release staged input.", "error", err)
	}

	fmt.Fprintln(a.outW, inv.CommandLine)
	return inv.CommandLine, nil
}

// Run executes req and prints the captured stdout followed by the exit status
// and the result-path table. It returns the tool's exit status. Missing
// declared outputs are reported after the table as an *application.OutputError.
func (a *App) Run(ctx context.Context, req Request) (int, error) {
	ctx = a.Context(ctx)
	logger := ctxlog.FromContext(ctx)

	tool, err := a.newApplication(req)
	if err != nil {
		return -1, err
	}
	in, err := req.input()
	if err != nil {
		return -1, err
	}

	res, err := tool.Call(ctx, in)
	if res == nil {
		return -1, err
	}
	outputErr := err

	defer func() {
		release := res.Cleanup
		if req.Keep {
			release = res.Keep
		}
		if err := release(); err != nil {
			logger.Warn("Failed to release run artifacts.", "error", err)
		}
	}()

	stdout, err := res.StdoutString()
	if err != nil {
		return res.ExitStatus, fmt.Errorf("failed to read captured stdout: %w", err)
	}
	stderr, err := res.StderrString()
	if err != nil {
		return res.ExitStatus, fmt.Errorf("failed to read captured stderr: %w", err)
	}

	fmt.Fprint(a.outW, stdout)
	fmt.Fprint(a.errW, stderr)
	fmt.Fprintf(a.outW, "exit status: %d\n", res.ExitStatus)

	if len(res.Paths) > 0 {
		tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tWRITTEN\tOPEN\tPATH")
		for _, key := range sortedKeys(res.Paths) {
			p := res.Paths[key]
			_, open := res.Files[key]
			fmt.Fprintf(tw, "%s\t%t\t%t\t%s\n", key, p.IsWritten, open, p.Path)
		}
		if err := tw.Flush(); err != nil {
			return res.ExitStatus, err
		}
	}

	return res.ExitStatus, outputErr
}

func (a *App) newApplication(req Request) (*application.Application, error) {
	def, err := a.catalog.Definition(req.Tool)
	if err != nil {
		return nil, err
	}

	wd := req.WorkingDir
	if wd == "" {
		wd = a.config.WorkingDir
	}
	var opts []application.Option
	if wd != "" {
		opts = append(opts, application.WithWorkingDir(wd))
	}

	tool, err := application.New(def, opts...)
	if err != nil {
		return nil, err
	}

	settings, err := parseSettings(tool.Parameters, req.Params)
	if err != nil {
		return nil, err
	}
	if err := tool.Parameters.Apply(settings); err != nil {
		return nil, err
	}
	if err := tool.Parameters.Off(req.Off...); err != nil {
		return nil, err
	}
	return tool, nil
}

func (r Request) input() (application.Input, error) {
	switch {
	case r.File != "" && len(r.Records) > 0:
		return nil, ErrConflictingInput
	case r.File != "":
		// The tool runs in the working directory, not the caller's.
		abs, err := filepath.Abs(r.File)
		if err != nil {
			return nil, err
		}
		return application.Path(abs), nil
	case len(r.Records) > 0:
		return application.Lines(r.Records), nil
	default:
		return nil, nil
	}
}

// parseSettings turns "KEY" and "KEY=VALUE" pairs into Parameters.Apply
// settings. A bare key switches a parameter on without a value; values of
// flags must be booleans. A mixed parameter set to "true" or "false" is
// switched like a flag, so "-d=1" still carries the value 1.
func parseSettings(ps *param.Parameters, specs []string) (map[string]any, error) {
	settings := make(map[string]any, len(specs))
	for _, spec := range specs {
		key, value, hasValue := strings.Cut(spec, "=")
		p, err := ps.Get(key)
		if err != nil {
			return nil, err
		}
		switch {
		case !hasValue:
			settings[key] = nil
		case p.Kind == param.KindFlag:
			on, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("parameter %s is a flag: value %q is not a boolean", p.ID(), value)
			}
			settings[key] = on
		case p.Kind == param.KindMixed && (strings.EqualFold(value, "true") || strings.EqualFold(value, "false")):
			settings[key] = strings.EqualFold(value, "true")
		default:
			settings[key] = value
		}
	}
	return settings, nil
}

func describeInput(redirect bool, companionSuffix string) string {
	s := "path argument"
	if redirect {
		s = "stdin redirection"
	}
	if companionSuffix != "" {
		s += fmt.Sprintf(", preceded by the %q companion file", companionSuffix)
	}
	return s
}

func describeResults(kind string) string {
	if kind == "" {
		return "stdout only"
	}
	return kind
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
