package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/specialistvlad/toolwrap/internal/app"
	"github.com/specialistvlad/toolwrap/internal/application"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// globalOptions are the flags shared by every command.
type globalOptions struct {
	catalogs  []string
	logLevel  string
	logFormat string
}

// invocationOptions are the flags of the render and run commands.
type invocationOptions struct {
	params     []string
	off        []string
	records    []string
	workingDir string
	keep       bool
}

// Execute runs the toolwrap command line on args. Command output goes to outW
// and logs to errW. A tool's nonzero exit status is returned as an
// *ExitError carrying that status.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd := NewRootCommand(outW, errW)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "toolwrap",
		Short: "Run external bioinformatics tools from declarative HCL catalogs",
		Long: `toolwrap turns catalog-declared command-line tools (Vienna RNA, COVE or
your own) into reproducible invocations: it renders parameters, stages input
records into temporary files, runs the tool and collects the files it writes.

Examples:
  toolwrap list
  toolwrap describe RNAfold
  toolwrap render RNAfold --param Temperature=25 --record GGGAAACCC
  toolwrap run RNAplot --param=-o=svg --record ">hairpin" --record GGGAAACCC --record "(((...)))" --keep`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})

	root.PersistentFlags().StringArrayVar(&opts.catalogs, "catalog", nil, "Additional catalog file or directory of .hcl files (repeatable).")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")

	root.AddCommand(
		newListCommand(opts, outW, errW),
		newDescribeCommand(opts, outW, errW),
		newRenderCommand(opts, outW, errW),
		newRunCommand(opts, outW, errW),
	)
	return root
}

func newListCommand(opts *globalOptions, outW, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tools in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts, "", outW, errW)
			if err != nil {
				return err
			}
			return a.List(cmd.Context())
		},
	}
}

func newDescribeCommand(opts *globalOptions, outW, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "describe TOOL",
		Short: "Show a tool's command, parameters and synonyms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, "", outW, errW)
			if err != nil {
				return err
			}
			return a.Describe(cmd.Context(), args[0])
		},
	}
}

func newRenderCommand(opts *globalOptions, outW, errW io.Writer) *cobra.Command {
	inv := &invocationOptions{}
	cmd := &cobra.Command{
		Use:   "render TOOL [FILE]",
		Short: "Print the command line a run would execute",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, inv.workingDir, outW, errW)
			if err != nil {
				return err
			}
			_, err = a.Render(cmd.Context(), inv.request(args))
			return err
		},
	}
	inv.bind(cmd, false)
	return cmd
}

func newRunCommand(opts *globalOptions, outW, errW io.Writer) *cobra.Command {
	inv := &invocationOptions{}
	cmd := &cobra.Command{
		Use:   "run TOOL [FILE]",
		Short: "Run a tool and report its output files",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, inv.workingDir, outW, errW)
			if err != nil {
				return err
			}

			req := inv.request(args)
			status, err := a.Run(cmd.Context(), req)
			var outputErr *application.OutputError
			switch {
			case err != nil && !errors.As(err, &outputErr):
				return err
			case status != 0:
				return &ExitError{Code: status, Message: fmt.Sprintf("%s exited with status %d", req.Tool, status)}
			default:
				return err
			}
		},
	}
	inv.bind(cmd, true)
	return cmd
}

func (o *invocationOptions) bind(cmd *cobra.Command, run bool) {
	flags := cmd.Flags()
	flags.StringArrayVar(&o.params, "param", nil, "Turn a parameter on: KEY or KEY=VALUE, KEY being a flag or synonym (repeatable).")
	flags.StringArrayVar(&o.off, "off", nil, "Turn a parameter off (repeatable).")
	flags.StringArrayVar(&o.records, "record", nil, "Input record, staged with the others into a temporary file (repeatable).")
	flags.StringVar(&o.workingDir, "workdir", "", "Directory the tool runs in (default: current directory).")
	if run {
		flags.BoolVar(&o.keep, "keep", false, "Leave the output files on disk.")
	}
}

func (o *invocationOptions) request(args []string) app.Request {
	req := app.Request{
		Tool:       args[0],
		Params:     o.params,
		Off:        o.off,
		Records:    o.records,
		WorkingDir: o.workingDir,
		Keep:       o.keep,
	}
	if len(args) > 1 {
		req.File = args[1]
	}
	return req
}

func newApp(opts *globalOptions, workingDir string, outW, errW io.Writer) (*app.App, error) {
	cfg, err := app.NewConfig(app.Config{
		CatalogPaths: opts.catalogs,
		WorkingDir:   workingDir,
		LogLevel:     opts.logLevel,
		LogFormat:    opts.logFormat,
	})
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("CLI configuration validated.", "catalogs", len(cfg.CatalogPaths), "log_level", cfg.LogLevel)
	return app.NewApp(outW, errW, cfg)
}
