package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/toolwrap/internal/application"
	"github.com/specialistvlad/toolwrap/internal/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func parseSource(t *testing.T, src string) ([]*Tool, hcl.Diagnostics) {
	t.Helper()
	file, diags := hclparse.NewParser().ParseHCL([]byte(src), "test.hcl")
	require.False(t, diags.HasErrors(), "source must be valid HCL: %s", diags.Error())
	return ParseFile(context.Background(), file, "test.hcl")
}

func TestParseFile_Tool(t *testing.T) {
	t.Parallel()

	tools, diags := parseSource(t, `
tool "plotter" {
  command         = "RNAplot"
  description     = "Draw structures."
  help            = "man RNAplot"
  redirect_input  = true
  suppress_stderr = true
  synonyms        = { Format = "-o" }

  parameter "-o" {
    kind        = "valued"
    default     = "svg"
    description = "Output format."
  }

  parameter "--pre" {
    kind   = "valued"
    prefix = "--"
  }

  parameter "-d" {
    kind      = "mixed"
    delimiter = ""
    default   = true
  }

  results "named_records" {
    pair_divisor     = 2
    format_parameter = "Format"
    formats          = { svg = ".svg", ps = ".ps" }

    artifact "_ss" {
      default_name = "rna"
      default_key  = "SS"
      when         = "-d"
    }
  }
}
`)
	require.False(t, diags.HasErrors(), diags.Error())
	require.Len(t, tools, 1)

	tool := tools[0]
	assert.Equal(t, "plotter", tool.Name)
	assert.Equal(t, "RNAplot", tool.Command)
	assert.Equal(t, "Draw structures.", tool.Description)
	assert.Equal(t, "man RNAplot", tool.Help)
	assert.True(t, tool.RedirectInput)
	assert.True(t, tool.SuppressStderr)
	assert.False(t, tool.SuppressStdout)
	assert.Equal(t, map[string]string{"Format": "-o"}, tool.Synonyms)
	assert.Equal(t, "test.hcl", tool.Source)

	require.Len(t, tool.Parameters, 3)
	o := tool.Parameters[0]
	assert.Equal(t, "-o", o.Flag)
	assert.Equal(t, param.KindValued, o.Kind)
	assert.Equal(t, "-", o.Prefix)
	assert.Equal(t, "o", o.Name)
	assert.Equal(t, " ", o.Delimiter)
	assert.True(t, o.Default.RawEquals(cty.StringVal("svg")))

	pre := tool.Parameters[1]
	assert.Equal(t, "--", pre.Prefix)
	assert.Equal(t, "pre", pre.Name)
	assert.True(t, pre.Default.IsNull())

	require.Equal(t, ResultsNamedRecords, tool.Results.Kind)
	require.NotNil(t, tool.Results.NamedRecords)
	r := tool.Results.NamedRecords
	assert.Equal(t, ">", r.Marker)
	assert.Equal(t, 2, r.PairDivisor)
	assert.Equal(t, "Format", r.Extension.Parameter)
	assert.Equal(t, ".ps", r.Extension.Default, "an omitted default_extension means PostScript")
	assert.Equal(t, map[string]string{"svg": ".svg", "ps": ".ps"}, r.Extension.Formats)
	assert.Equal(t, []application.Artifact{{Suffix: "_ss", DefaultName: "rna", DefaultKey: "SS", When: "-d"}}, r.Artifacts)

	def, err := tool.Definition()
	require.NoError(t, err)
	rendered, err := def.Parameters.Render()
	require.NoError(t, err)
	assert.Equal(t, "-d -o svg", rendered)
	assert.Equal(t, application.Redirect{Next: application.Selector{}}, def.Input)
}

func TestParseFile_Defaults(t *testing.T) {
	t.Parallel()

	tools, diags := parseSource(t, `
tool "cat" {
  command = "cat"
}
`)
	require.False(t, diags.HasErrors(), diags.Error())
	require.Len(t, tools, 1)

	tool := tools[0]
	assert.Equal(t, ResultsNone, tool.Results.Kind)
	assert.Equal(t, application.NoResults{}, tool.Results.Resolver())
	assert.Empty(t, tool.Parameters)

	def, err := tool.Definition()
	require.NoError(t, err)
	assert.Equal(t, "cat", def.Command)
	assert.Equal(t, application.Selector{}, def.Input)
}

func TestParseFile_DefaultExtension(t *testing.T) {
	t.Parallel()

	tools, diags := parseSource(t, `
tool "plot" {
  command = "RNAplot"
  parameter "-o" { kind = "valued" }
  results "named_records" {
    format_parameter = "-o"
    formats          = { svg = ".svg" }
    artifact "_ss" { default_name = "rna" }
  }
}

tool "bare" {
  command = "bare"
  results "named_records" {
    default_extension = ""
    artifact "_out" { default_name = "rna" }
  }
}
`)
	require.False(t, diags.HasErrors(), diags.Error())
	require.Len(t, tools, 2)

	byName := map[string]*Tool{}
	for _, tool := range tools {
		byName[tool.Name] = tool
	}

	def, err := byName["plot"].Definition()
	require.NoError(t, err)
	paths, err := def.Results.ResolvePaths(context.Background(), &application.Invocation{
		Parameters: def.Parameters,
		Input:      application.Lines{">hairpin", "GGGAAACCC"},
	})
	require.NoError(t, err)
	require.Contains(t, paths, "hairpin_ss")
	assert.Equal(t, "hairpin_ss.ps", filepath.Base(paths["hairpin_ss"].Path), "the format parameter is off")

	assert.Empty(t, byName["bare"].Results.NamedRecords.Extension.Default, "an explicit empty extension is kept")
}

func TestParseFile_TypedParameter(t *testing.T) {
	t.Parallel()

	tools, diags := parseSource(t, `
tool "fold" {
  command = "RNAfold"
  parameter "-T" {
    kind    = "valued"
    type    = number
    default = "37"
  }
}
`)
	require.False(t, diags.HasErrors(), diags.Error())
	require.Len(t, tools, 1)

	spec := tools[0].Parameters[0]
	assert.True(t, spec.Type.Equals(cty.Number))

	p, err := spec.Build()
	require.NoError(t, err)
	assert.True(t, p.Value().Equals(cty.NumberIntVal(37)).True(), "the default must be converted to the declared type")

	err = p.Set("hot")
	require.ErrorIs(t, err, param.ErrTypeMismatch)
}

func TestParseFile_Companion(t *testing.T) {
	t.Parallel()

	tools, diags := parseSource(t, `
tool "covet" {
  command          = "covet"
  companion_suffix = ".cm"

  results "companion" {
    key       = "cm"
    input_key = "_input_filename"
  }
}
`)
	require.False(t, diags.HasErrors(), diags.Error())
	require.Len(t, tools, 1)

	assert.Equal(t, &application.CompanionResolver{Key: "cm", Suffix: ".cm", InputKey: "_input_filename"}, tools[0].Results.Companion)

	def, err := tools[0].Definition()
	require.NoError(t, err)
	assert.Equal(t, application.Companion{Suffix: ".cm", Next: application.Selector{}}, def.Input)
}

func TestParseFile_Diagnostics(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		src     string
		summary string
	}{
		{
			name:    "missing command",
			src:     `tool "x" {}`,
			summary: "Missing 'command' attribute",
		},
		{
			name: "duplicate tool",
			src: `
tool "x" { command = "x" }
tool "x" { command = "y" }
`,
			summary: "Duplicate tool definition",
		},
		{
			name: "duplicate parameter",
			src: `
tool "x" {
  command = "x"
  parameter "-a" { kind = "flag" }
  parameter "-a" { kind = "flag" }
}
`,
			summary: "Duplicate parameter definition",
		},
		{
			name: "unknown kind",
			src: `
tool "x" {
  command = "x"
  parameter "-a" { kind = "switch" }
}
`,
			summary: "Invalid parameter kind",
		},
		{
			name: "inconsistent flag",
			src: `
tool "x" {
  command = "x"
  parameter "-a" {
    kind = "flag"
    name = "b"
  }
}
`,
			summary: "Inconsistent parameter flag",
		},
		{
			name: "flag default must be bool",
			src: `
tool "x" {
  command = "x"
  parameter "-a" {
    kind    = "flag"
    default = "yes"
  }
}
`,
			summary: "Invalid default value",
		},
		{
			name: "list default",
			src: `
tool "x" {
  command = "x"
  parameter "-a" {
    kind    = "valued"
    default = [1, 2]
  }
}
`,
			summary: "Invalid default value",
		},
		{
			name: "default of the wrong type",
			src: `
tool "x" {
  command = "x"
  parameter "-T" {
    kind    = "valued"
    type    = number
    default = "warm"
  }
}
`,
			summary: "Invalid default value",
		},
		{
			name: "collection type",
			src: `
tool "x" {
  command = "x"
  parameter "-T" {
    kind = "valued"
    type = list
  }
}
`,
			summary: "Unsupported type",
		},
		{
			name: "quoted type",
			src: `
tool "x" {
  command = "x"
  parameter "-T" {
    kind = "valued"
    type = "number"
  }
}
`,
			summary: "Invalid type specification",
		},
		{
			name: "typed flag",
			src: `
tool "x" {
  command = "x"
  parameter "-a" {
    kind = "flag"
    type = bool
  }
}
`,
			summary: "Invalid type specification",
		},
		{
			name: "synonym to missing flag",
			src: `
tool "x" {
  command  = "x"
  synonyms = { Temp = "-T" }
}
`,
			summary: "Reference to undeclared parameter",
		},
		{
			name: "unknown results kind",
			src: `
tool "x" {
  command = "x"
  results "stdout" {}
}
`,
			summary: "Unsupported results kind",
		},
		{
			name: "duplicate results",
			src: `
tool "x" {
  command = "x"
  companion_suffix = ".cm"
  results "companion" { key = "cm" }
  results "companion" { key = "cm" }
}
`,
			summary: "Duplicate results block",
		},
		{
			name: "when names a missing flag",
			src: `
tool "x" {
  command = "x"
  results "named_records" {
    artifact "_dp" {
      default_name = "dot"
      when         = "-p"
    }
  }
}
`,
			summary: "Reference to undeclared parameter",
		},
		{
			name: "format parameter names a missing flag",
			src: `
tool "x" {
  command = "x"
  results "named_records" {
    format_parameter = "-o"
    formats          = { ps = ".ps" }
    artifact "_ss" { default_name = "rna" }
  }
}
`,
			summary: "Reference to undeclared parameter",
		},
		{
			name: "format parameter without formats",
			src: `
tool "x" {
  command = "x"
  parameter "-o" { kind = "valued" }
  results "named_records" {
    format_parameter = "-o"
    artifact "_ss" { default_name = "rna" }
  }
}
`,
			summary: "Missing 'formats' attribute",
		},
		{
			name: "named records without artifacts",
			src: `
tool "x" {
  command = "x"
  results "named_records" {}
}
`,
			summary: "Missing artifact block",
		},
		{
			name: "invalid pair divisor",
			src: `
tool "x" {
  command = "x"
  results "named_records" {
    pair_divisor = 0
    artifact "_ss" { default_name = "rna" }
  }
}
`,
			summary: "Invalid pair divisor",
		},
		{
			name: "mismatched companion suffix",
			src: `
tool "x" {
  command          = "x"
  companion_suffix = ".cm"
  results "companion" {
    key    = "cm"
    suffix = ".model"
  }
}
`,
			summary: "Mismatched companion suffix",
		},
		{
			name: "companion without suffix",
			src: `
tool "x" {
  command = "x"
  results "companion" { key = "cm" }
}
`,
			summary: "Missing companion suffix",
		},
		{
			name: "unknown top-level attribute",
			src: `
tool "x" {
  command = "x"
  timeout = 5
}
`,
			summary: "Unsupported argument",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tools, diags := parseSource(t, tc.src)
			require.True(t, diags.HasErrors(), "expected diagnostics")
			assert.Nil(t, tools)

			var summaries []string
			for _, d := range diags {
				summaries = append(summaries, d.Summary)
			}
			assert.Contains(t, summaries, tc.summary)
		})
	}
}

func TestParseFile_NilFile(t *testing.T) {
	t.Parallel()
	_, diags := ParseFile(context.Background(), nil, "missing.hcl")
	require.True(t, diags.HasErrors())
	assert.Equal(t, "HCL file is nil", diags[0].Summary)
}
