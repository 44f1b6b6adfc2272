package catalog

import (
	"fmt"

	"github.com/specialistvlad/toolwrap/internal/application"
	"github.com/specialistvlad/toolwrap/internal/param"
	"github.com/zclconf/go-cty/cty"
)

// Tool is the decoded form of one `tool` block.
type Tool struct {
	Name        string
	Command     string
	Description string
	Help        string

	RedirectInput  bool
	SuppressStderr bool
	SuppressStdout bool

	// CompanionSuffix, when set, places "<input><suffix>" ahead of the input
	// token, as the COVE tools expect.
	CompanionSuffix string

	Synonyms   map[string]string
	Parameters []ParameterSpec
	Results    Results

	// Source is the file the tool was declared in.
	Source string
}

// ParameterSpec is one `parameter` block.
type ParameterSpec struct {
	Flag        string
	Kind        param.Kind
	Prefix      string
	Name        string
	Delimiter   string
	Description string

	// Type is cty.NilType when the block declares no type.
	Type cty.Type

	// Default is cty.NilVal when the block declares no default.
	Default cty.Value
}

// Build creates the parameter with its default applied. A boolean default
// switches a flag or mixed parameter on or off; any other default is stored
// as the value and turns the parameter on.
func (s ParameterSpec) Build() (*param.Parameter, error) {
	var p *param.Parameter
	switch s.Kind {
	case param.KindFlag:
		p = param.NewFlag(s.Prefix, s.Name)
	case param.KindValued:
		p = param.NewValued(s.Prefix, s.Name, s.Delimiter)
	case param.KindMixed:
		p = param.NewMixed(s.Prefix, s.Name, s.Delimiter)
	default:
		return nil, fmt.Errorf("parameter %s: unsupported kind %s", s.Flag, s.Kind)
	}
	p.Description = s.Description
	p.Type = s.Type

	def := s.Default
	if def.IsNull() {
		return p, nil
	}

	if def.Type().Equals(cty.Bool) && s.Kind != param.KindValued {
		if def.True() {
			p.On()
		}
		return p, nil
	}
	if s.Kind == param.KindFlag {
		return nil, fmt.Errorf("parameter %s: a flag default must be a bool, got %s", s.Flag, def.Type().FriendlyName())
	}
	if err := p.SetValue(def); err != nil {
		return nil, err
	}
	return p, nil
}

// ResultsKind names the strategy a `results` block selects.
type ResultsKind string

const (
	ResultsNone         ResultsKind = ""
	ResultsNamedRecords ResultsKind = "named_records"
	ResultsCompanion    ResultsKind = "companion"
)

// Results holds the decoded `results` block. At most one of NamedRecords and
// Companion is set, matching Kind.
type Results struct {
	Kind         ResultsKind
	NamedRecords *application.NamedRecordResolver
	Companion    *application.CompanionResolver
}

// Resolver returns the result-path strategy for the block.
func (r Results) Resolver() application.ResultResolver {
	switch {
	case r.NamedRecords != nil:
		return *r.NamedRecords
	case r.Companion != nil:
		return *r.Companion
	default:
		return application.NoResults{}
	}
}

// Definition translates the tool into an immutable application definition.
// Each call builds a fresh parameter template.
func (t *Tool) Definition() (application.Definition, error) {
	params := make([]*param.Parameter, 0, len(t.Parameters))
	for _, spec := range t.Parameters {
		p, err := spec.Build()
		if err != nil {
			return application.Definition{}, fmt.Errorf("tool %q: %w", t.Name, err)
		}
		params = append(params, p)
	}

	ps, err := param.NewParameters(params, t.Synonyms)
	if err != nil {
		return application.Definition{}, fmt.Errorf("tool %q: %w", t.Name, err)
	}

	var in application.InputAdapter = application.Selector{}
	if t.RedirectInput {
		in = application.Redirect{Next: in}
	}
	if t.CompanionSuffix != "" {
		in = application.Companion{Suffix: t.CompanionSuffix, Next: in}
	}

	return application.Definition{
		Name:           t.Name,
		Command:        t.Command,
		Parameters:     ps,
		Input:          in,
		Results:        t.Results.Resolver(),
		SuppressStderr: t.SuppressStderr,
		SuppressStdout: t.SuppressStdout,
	}, nil
}
