package application

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/toolwrap/internal/param"
	"github.com/specialistvlad/toolwrap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(ctx context.Context, dir, commandLine string, stdout, stderr io.Writer) (int, error)

func (f runnerFunc) Run(ctx context.Context, dir, commandLine string, stdout, stderr io.Writer) (int, error) {
	return f(ctx, dir, commandLine, stdout, stderr)
}

func foldDefinition(t *testing.T, command string) Definition {
	t.Helper()

	temp := param.NewValued("-", "T", " ")
	require.NoError(t, temp.Set(37))
	dangles := param.NewMixed("-", "d", "")
	require.NoError(t, dangles.Set(1))

	ps, err := param.NewParameters([]*param.Parameter{
		param.NewMixed("-", "p", ""),
		param.NewFlag("-", "noLP"),
		param.NewValued("-", "o", " "),
		temp,
		dangles,
	}, map[string]string{"Temperature": "-T"})
	require.NoError(t, err)

	return Definition{
		Name:       "RNAfold",
		Command:    command,
		Parameters: ps,
		Input:      Redirect{},
		Results: NamedRecordResolver{
			Marker:    ">",
			Artifacts: []Artifact{{Suffix: "_ss", DefaultName: "rna", DefaultKey: "SS"}},
			Extension: ExtensionSelector{
				Parameter: "-o",
				Formats:   map[string]string{"ps": ".ps"},
				Default:   ".ps",
			},
		},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("command is required", func(t *testing.T) {
		t.Parallel()
		_, err := New(Definition{Name: "broken"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "command is required")
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		a, err := New(Definition{Command: "cat"}, WithWorkingDir("relative"))
		require.NoError(t, err)
		assert.Equal(t, "cat", a.Name)
		assert.IsType(t, Selector{}, a.Input)
		assert.IsType(t, NoResults{}, a.Results)
		assert.IsType(t, UUIDNames{}, a.Names)
		assert.True(t, filepath.IsAbs(a.WorkingDir))
		assert.Equal(t, 0, a.Parameters.Len())
	})

	t.Run("parameter options are validated", func(t *testing.T) {
		t.Parallel()
		_, err := New(foldDefinition(t, "RNAfold"), WithParams(map[string]any{"-X": true}))
		require.ErrorIs(t, err, param.ErrUnknownParameter)
	})
}

func TestApplication_PrivateParameters(t *testing.T) {
	t.Parallel()

	def := foldDefinition(t, "RNAfold")
	first, err := New(def, WithParams(map[string]any{"Temperature": 50, "-noLP": true}))
	require.NoError(t, err)
	second, err := New(def)
	require.NoError(t, err)

	firstCmd, err := first.BaseCommand()
	require.NoError(t, err)
	secondCmd, err := second.BaseCommand()
	require.NoError(t, err)
	templateCmd, err := def.Parameters.Render()
	require.NoError(t, err)

	assert.Equal(t, "RNAfold -T 50 -d1 -noLP", firstCmd)
	assert.Equal(t, "RNAfold -T 37 -d1", secondCmd)
	assert.Equal(t, "-T 37 -d1", templateCmd)
}

func TestApplication_Prepare(t *testing.T) {
	t.Parallel()
	ctx, logs := testutil.NewContext(t)

	wd := filepath.Join(t.TempDir(), "work")
	a, err := New(foldDefinition(t, "RNAfold"), WithWorkingDir(wd), WithNameSource(&CounterNames{}))
	require.NoError(t, err)

	inv, err := a.Prepare(ctx, Lines{">seq1", "ACGU"})
	require.NoError(t, err)
	t.Cleanup(func() { inv.Release() })

	staged := filepath.Join(wd, "tmp000000001.txt")
	assert.Equal(t, "RNAfold -T 37 -d1 <'"+staged+"'", inv.CommandLine)
	assert.Equal(t, staged, inv.InputFilename)
	assert.Equal(t, []string{staged}, inv.TempFiles())
	assert.Equal(t, ResultPath{Path: filepath.Join(wd, "seq1_ss.ps"), IsWritten: true}, inv.Paths["seq1_ss"])
	testutil.AssertLogged(t, logs, "Invocation prepared.", "tool=RNAfold")

	require.NoError(t, inv.Release())
	require.NoError(t, inv.Release())
	assert.NoFileExists(t, staged)
}

func TestApplication_PrepareFailureReleasesStagedInput(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewContext(t)

	wd := t.TempDir()
	a, err := New(foldDefinition(t, "RNAfold"),
		WithWorkingDir(wd),
		WithNameSource(&CounterNames{}),
		WithParams(map[string]any{"-o": "png"}),
	)
	require.NoError(t, err)

	_, err = a.Prepare(ctx, Lines{">seq1", "ACGU"})
	require.ErrorIs(t, err, ErrUnknownFormat)
	assert.Empty(t, testutil.DirEntries(t, wd))
}

func TestApplication_Call(t *testing.T) {
	t.Parallel()
	ctx, logs := testutil.NewContext(t)

	tool := testutil.FakeTool(t, t.TempDir(), "RNAfold", testutil.NamedPlotScript)
	wd := t.TempDir()
	a, err := New(foldDefinition(t, tool), WithWorkingDir(wd), WithNameSource(&CounterNames{}))
	require.NoError(t, err)

	res, err := a.Call(ctx, Lines{">seq1", "ACGU"})
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitStatus)
	stdout, err := res.StdoutString()
	require.NoError(t, err)
	assert.Equal(t, ">seq1\nACGU\n", stdout)

	plot, err := res.ReadFile("seq1_ss")
	require.NoError(t, err)
	assert.Equal(t, "plot seq1\n", string(plot))

	_, err = res.File("SS")
	require.Error(t, err)
	testutil.AssertLogged(t, logs, "Command finished.", "exit_status=0")

	require.NoError(t, res.Cleanup())
	require.NoError(t, res.Cleanup())
	assert.Empty(t, testutil.DirEntries(t, wd))
}

func TestApplication_CallAnonymousInput(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewContext(t)

	tool := testutil.FakeTool(t, t.TempDir(), "RNAfold", testutil.NamedPlotScript)
	wd := t.TempDir()
	a, err := New(foldDefinition(t, tool), WithWorkingDir(wd))
	require.NoError(t, err)

	res, err := a.Call(ctx, Lines{"GGGAAACCC"})
	require.NoError(t, err)
	t.Cleanup(func() { res.Cleanup() })

	plot, err := res.ReadFile("SS")
	require.NoError(t, err)
	assert.Equal(t, "plot\n", string(plot))
}

func TestApplication_CallExitStatusAndStderr(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewContext(t)

	tool := testutil.FakeTool(t, t.TempDir(), "failing", `echo "bad input" >&2
exit 3`)

	t.Run("captured", func(t *testing.T) {
		t.Parallel()
		a, err := New(Definition{Command: tool}, WithWorkingDir(t.TempDir()))
		require.NoError(t, err)

		res, err := a.Call(ctx, Text("x"))
		require.NoError(t, err)
		t.Cleanup(func() { res.Cleanup() })

		assert.Equal(t, 3, res.ExitStatus)
		stderr, err := res.StderrString()
		require.NoError(t, err)
		assert.Equal(t, "bad input\n", stderr)
	})

	t.Run("suppressed", func(t *testing.T) {
		t.Parallel()
		wd := t.TempDir()
		a, err := New(Definition{Command: tool, SuppressStderr: true}, WithWorkingDir(wd))
		require.NoError(t, err)

		res, err := a.Call(ctx, Text("x"))
		require.NoError(t, err)
		t.Cleanup(func() { res.Cleanup() })

		assert.Equal(t, 3, res.ExitStatus)
		assert.Nil(t, res.Stderr)
		stderr, err := res.StderrString()
		require.NoError(t, err)
		assert.Empty(t, stderr)
		assert.Len(t, testutil.DirEntries(t, wd), 1, "only the stdout capture is on disk")
	})
}

func TestApplication_CallMissingOutput(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewContext(t)

	tool := testutil.FakeTool(t, t.TempDir(), "RNAfold", "cat > /dev/null")
	wd := t.TempDir()
	a, err := New(foldDefinition(t, tool), WithWorkingDir(wd))
	require.NoError(t, err)

	res, err := a.Call(ctx, Lines{">seq1", "ACGU"})
	require.ErrorIs(t, err, ErrOutputMissing)
	require.NotNil(t, res)

	var outErr *OutputError
	require.True(t, errors.As(err, &outErr))
	assert.Contains(t, outErr.Missing, "seq1_ss")
	assert.Equal(t, 0, res.ExitStatus)

	require.NoError(t, res.Cleanup())
	assert.Empty(t, testutil.DirEntries(t, wd))
}

func TestApplication_CallRunnerFailure(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewContext(t)

	boom := errors.New("no such shell")
	var gotDir, gotLine string
	runner := runnerFunc(func(_ context.Context, dir, commandLine string, _, _ io.Writer) (int, error) {
		gotDir, gotLine = dir, commandLine
		return -1, boom
	})

	wd := t.TempDir()
	a, err := New(foldDefinition(t, "RNAfold"), WithWorkingDir(wd), WithRunner(runner), WithNameSource(&CounterNames{}))
	require.NoError(t, err)

	res, err := a.Call(ctx, Lines{"ACGU"})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, res)
	assert.Equal(t, wd, gotDir)
	assert.Equal(t, "RNAfold -T 37 -d1 <'"+filepath.Join(wd, "tmp000000001.txt")+"'", gotLine)
	assert.Empty(t, testutil.DirEntries(t, wd))
}

func TestResult_Keep(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewContext(t)

	tool := testutil.FakeTool(t, t.TempDir(), "RNAfold", testutil.NamedPlotScript)
	wd := t.TempDir()
	a, err := New(foldDefinition(t, tool), WithWorkingDir(wd))
	require.NoError(t, err)

	res, err := a.Call(ctx, Lines{">kept", "ACGU"})
	require.NoError(t, err)
	require.NoError(t, res.Keep())

	assert.Equal(t, []string{"kept_ss.ps"}, testutil.DirEntries(t, wd))
	b, err := os.ReadFile(filepath.Join(wd, "kept_ss.ps"))
	require.NoError(t, err)
	assert.Equal(t, "plot kept\n", string(b))
}
