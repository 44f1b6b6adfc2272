// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file decodes `tool` blocks from HCL.
//
// Why validate references at parse time?
//
// A synonym, a `when` clause or a `format_parameter` naming a flag that does
// not exist would otherwise only surface when the tool is first invoked,
// usually deep inside a pipeline. Checking every reference while the ranges
// of the offending attributes are still at hand lets the diagnostics point at
// the exact line of the catalog file.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/toolwrap/internal/application"
	"github.com/specialistvlad/toolwrap/internal/ctxlog"
	"github.com/specialistvlad/toolwrap/internal/param"
	"github.com/zclconf/go-cty/cty"
)

// catalogRootSchema defines the top-level structure of a catalog file.
type catalogRootSchema struct {
	Tools []*hclTool `hcl:"tool,block"`
}

// hclTool represents a single 'tool' block for decoding purposes.
type hclTool struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

var toolBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		// `command` is required, but we check for its existence manually
		// to provide a better error message.
		{Name: "command"},
		{Name: "description"},
		{Name: "help"},
		{Name: "redirect_input"},
		{Name: "suppress_stderr"},
		{Name: "suppress_stdout"},
		{Name: "synonyms"},
		{Name: "companion_suffix"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "parameter", LabelNames: []string{"flag"}},
		{Type: "results", LabelNames: []string{"kind"}},
	},
}

var parameterBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "kind", Required: true},
		{Name: "prefix"},
		{Name: "name"},
		{Name: "delimiter"},
		{Name: "type"},
		{Name: "default"},
		{Name: "description"},
	},
}

var namedRecordsBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "marker"},
		{Name: "pair_divisor"},
		{Name: "default_extension"},
		{Name: "format_parameter"},
		{Name: "formats"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "artifact", LabelNames: []string{"suffix"}},
	},
}

var artifactBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "default_name", Required: true},
		{Name: "default_key"},
		{Name: "when"},
	},
}

var companionBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "key", Required: true},
		{Name: "suffix"},
		{Name: "input_key"},
	},
}

// paramRef is an attribute that names a parameter by flag or synonym.
type paramRef struct {
	attr string
	key  string
	rng  hcl.Range
}

// ParseFile decodes every 'tool' block of an HCL file.
func ParseFile(ctx context.Context, file *hcl.File, filename string) ([]*Tool, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing tool definitions from file", "file_path", filename)

	var allDiags hcl.Diagnostics
	if file == nil {
		allDiags = append(allDiags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "HCL file is nil",
		})
		return nil, allDiags
	}

	schema := &catalogRootSchema{}
	diags := gohcl.DecodeBody(file.Body, nil, schema)
	allDiags = append(allDiags, diags...)
	if diags.HasErrors() {
		return nil, allDiags
	}

	tools := make([]*Tool, 0, len(schema.Tools))
	seen := make(map[string]bool)
	for _, block := range schema.Tools {
		if seen[block.Name] {
			rng := block.Body.MissingItemRange()
			allDiags = append(allDiags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate tool definition",
				Detail:   fmt.Sprintf("A tool named '%s' has already been defined in this file.", block.Name),
				Subject:  &rng,
			})
			continue
		}
		seen[block.Name] = true

		tool, toolDiags := parseTool(block, filename)
		allDiags = append(allDiags, toolDiags...)
		if toolDiags.HasErrors() {
			continue // Skip this tool but continue parsing others
		}
		tools = append(tools, tool)
	}

	if allDiags.HasErrors() {
		return nil, allDiags
	}

	logger.Debug("Successfully parsed tool definitions", "count", len(tools))
	return tools, allDiags
}

func parseTool(block *hclTool, filename string) (*Tool, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	content, contentDiags := block.Body.Content(toolBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, diags
	}

	tool := &Tool{
		Name:     block.Name,
		Source:   filename,
		Synonyms: make(map[string]string),
	}

	if _, exists := content.Attributes["command"]; !exists {
		missingItemRange := block.Body.MissingItemRange()
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing 'command' attribute",
			Detail:   fmt.Sprintf("The 'command' attribute is required for tool '%s'.", block.Name),
			Subject:  &missingItemRange,
		})
		return nil, diags
	}

	diags = append(diags, decodeAttr(content.Attributes, "command", &tool.Command)...)
	diags = append(diags, decodeAttr(content.Attributes, "description", &tool.Description)...)
	diags = append(diags, decodeAttr(content.Attributes, "help", &tool.Help)...)
	diags = append(diags, decodeAttr(content.Attributes, "redirect_input", &tool.RedirectInput)...)
	diags = append(diags, decodeAttr(content.Attributes, "suppress_stderr", &tool.SuppressStderr)...)
	diags = append(diags, decodeAttr(content.Attributes, "suppress_stdout", &tool.SuppressStdout)...)
	diags = append(diags, decodeAttr(content.Attributes, "synonyms", &tool.Synonyms)...)
	diags = append(diags, decodeAttr(content.Attributes, "companion_suffix", &tool.CompanionSuffix)...)
	if diags.HasErrors() {
		return nil, diags
	}

	var paramDiags hcl.Diagnostics
	tool.Parameters, paramDiags = parseParameters(content.Blocks)
	diags = append(diags, paramDiags...)

	var refs []paramRef
	if attr, ok := content.Attributes["synonyms"]; ok {
		for _, alias := range sortedKeys(tool.Synonyms) {
			refs = append(refs, paramRef{attr: "synonyms", key: tool.Synonyms[alias], rng: attr.Expr.Range()})
		}
	}

	var resultsDiags hcl.Diagnostics
	var resultRefs []paramRef
	tool.Results, resultRefs, resultsDiags = parseResults(content.Blocks, tool.CompanionSuffix)
	diags = append(diags, resultsDiags...)
	refs = append(refs, resultRefs...)

	if diags.HasErrors() {
		return nil, diags
	}

	diags = append(diags, checkReferences(tool, refs)...)
	if diags.HasErrors() {
		return nil, diags
	}
	return tool, diags
}

func parseParameters(blocks hcl.Blocks) ([]ParameterSpec, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	var specs []ParameterSpec
	seen := make(map[string]bool)

	for _, block := range blocks.OfType("parameter") {
		// The schema guarantees us one label.
		flag := block.Labels[0]

		if seen[flag] {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate parameter definition",
				Detail:   fmt.Sprintf("A parameter with flag '%s' has already been defined.", flag),
				Subject:  &block.DefRange,
			})
			continue
		}
		seen[flag] = true

		spec, specDiags := parseParameter(block)
		diags = append(diags, specDiags...)
		if specDiags.HasErrors() {
			continue
		}
		specs = append(specs, spec)
	}

	return specs, diags
}

func parseParameter(block *hcl.Block) (ParameterSpec, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	spec := ParameterSpec{Flag: block.Labels[0], Prefix: "-", Default: cty.NilVal}

	content, contentDiags := block.Body.Content(parameterBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return spec, diags
	}

	var kind string
	diags = append(diags, decodeAttr(content.Attributes, "kind", &kind)...)
	diags = append(diags, decodeAttr(content.Attributes, "prefix", &spec.Prefix)...)
	diags = append(diags, decodeAttr(content.Attributes, "description", &spec.Description)...)
	if diags.HasErrors() {
		return spec, diags
	}

	k, err := param.ParseKind(kind)
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid parameter kind",
			Detail:   fmt.Sprintf("Parameter '%s': %s.", spec.Flag, err),
			Subject:  content.Attributes["kind"].Expr.Range().Ptr(),
		})
		return spec, diags
	}
	spec.Kind = k

	spec.Name = strings.TrimPrefix(spec.Flag, spec.Prefix)
	if attr, ok := content.Attributes["name"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &spec.Name)...)
	}
	if spec.Name == "" || spec.Prefix+spec.Name != spec.Flag {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Inconsistent parameter flag",
			Detail:   fmt.Sprintf("The label '%s' must equal prefix %q followed by name %q.", spec.Flag, spec.Prefix, spec.Name),
			Subject:  &block.DefRange,
		})
		return spec, diags
	}

	if spec.Kind == param.KindValued {
		spec.Delimiter = " "
	}
	diags = append(diags, decodeAttr(content.Attributes, "delimiter", &spec.Delimiter)...)

	if attr, ok := content.Attributes["type"]; ok {
		if spec.Kind == param.KindFlag {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid type specification",
				Detail:   fmt.Sprintf("Parameter '%s' is a flag and carries no value to type.", spec.Flag),
				Subject:  attr.Expr.Range().Ptr(),
			})
			return spec, diags
		}
		ty, typeDiags := parseValueType(attr.Expr)
		diags = append(diags, typeDiags...)
		if typeDiags.HasErrors() {
			return spec, diags
		}
		spec.Type = ty
	}

	if attr, ok := content.Attributes["default"]; ok {
		// A nil eval context is used because defaults must be literal values.
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			return spec, diags
		}
		spec.Default = val

		if _, err := spec.Build(); err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid default value",
				Detail:   err.Error(),
				Subject:  attr.Expr.Range().Ptr(),
			})
		}
	}

	return spec, diags
}

func parseResults(blocks hcl.Blocks, companionSuffix string) (Results, []paramRef, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	resultBlocks := blocks.OfType("results")
	if len(resultBlocks) == 0 {
		return Results{Kind: ResultsNone}, nil, nil
	}
	if len(resultBlocks) > 1 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Duplicate results block",
			Detail:   "A tool may declare at most one 'results' block.",
			Subject:  &resultBlocks[1].DefRange,
		})
		return Results{}, nil, diags
	}

	block := resultBlocks[0]
	switch ResultsKind(block.Labels[0]) {
	case ResultsNamedRecords:
		r, refs, d := parseNamedRecords(block)
		return Results{Kind: ResultsNamedRecords, NamedRecords: r}, refs, d
	case ResultsCompanion:
		r, d := parseCompanion(block, companionSuffix)
		return Results{Kind: ResultsCompanion, Companion: r}, nil, d
	default:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsupported results kind",
			Detail:   fmt.Sprintf("Results kind '%s' is not supported; use '%s' or '%s'.", block.Labels[0], ResultsNamedRecords, ResultsCompanion),
			Subject:  &block.LabelRanges[0],
		})
		return Results{}, nil, diags
	}
}

func parseNamedRecords(block *hcl.Block) (*application.NamedRecordResolver, []paramRef, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	var refs []paramRef

	content, contentDiags := block.Body.Content(namedRecordsBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, nil, diags
	}

	// Vienna tools write PostScript unless told otherwise.
	r := &application.NamedRecordResolver{
		Marker:      ">",
		PairDivisor: 1,
		Extension:   application.ExtensionSelector{Default: ".ps"},
	}
	diags = append(diags, decodeAttr(content.Attributes, "marker", &r.Marker)...)
	diags = append(diags, decodeAttr(content.Attributes, "pair_divisor", &r.PairDivisor)...)
	diags = append(diags, decodeAttr(content.Attributes, "default_extension", &r.Extension.Default)...)
	diags = append(diags, decodeAttr(content.Attributes, "format_parameter", &r.Extension.Parameter)...)
	diags = append(diags, decodeAttr(content.Attributes, "formats", &r.Extension.Formats)...)
	if diags.HasErrors() {
		return nil, nil, diags
	}

	if attr, ok := content.Attributes["pair_divisor"]; ok && r.PairDivisor < 1 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid pair divisor",
			Detail:   "The 'pair_divisor' attribute must be at least 1.",
			Subject:  attr.Expr.Range().Ptr(),
		})
	}

	if attr, ok := content.Attributes["format_parameter"]; ok {
		refs = append(refs, paramRef{attr: "format_parameter", key: r.Extension.Parameter, rng: attr.Expr.Range()})
		if len(r.Extension.Formats) == 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Missing 'formats' attribute",
				Detail:   "A 'format_parameter' requires a 'formats' table mapping format names to extensions.",
				Subject:  attr.Range.Ptr(),
			})
		}
	}

	seen := make(map[string]bool)
	for _, ab := range content.Blocks.OfType("artifact") {
		suffix := ab.Labels[0]
		if seen[suffix] {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate artifact definition",
				Detail:   fmt.Sprintf("An artifact with suffix '%s' has already been defined.", suffix),
				Subject:  &ab.DefRange,
			})
			continue
		}
		seen[suffix] = true

		ac, acDiags := ab.Body.Content(artifactBodySchema)
		diags = append(diags, acDiags...)
		if acDiags.HasErrors() {
			continue
		}

		a := application.Artifact{Suffix: suffix}
		diags = append(diags, decodeAttr(ac.Attributes, "default_name", &a.DefaultName)...)
		diags = append(diags, decodeAttr(ac.Attributes, "default_key", &a.DefaultKey)...)
		diags = append(diags, decodeAttr(ac.Attributes, "when", &a.When)...)
		if a.DefaultKey == "" {
			a.DefaultKey = a.DefaultName
		}
		if attr, ok := ac.Attributes["when"]; ok {
			refs = append(refs, paramRef{attr: "when", key: a.When, rng: attr.Expr.Range()})
		}
		r.Artifacts = append(r.Artifacts, a)
	}

	if len(r.Artifacts) == 0 && !diags.HasErrors() {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing artifact block",
			Detail:   "A 'named_records' results block must declare at least one 'artifact'.",
			Subject:  &block.DefRange,
		})
	}

	return r, refs, diags
}

func parseCompanion(block *hcl.Block, companionSuffix string) (*application.CompanionResolver, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	content, contentDiags := block.Body.Content(companionBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, diags
	}

	r := &application.CompanionResolver{}
	diags = append(diags, decodeAttr(content.Attributes, "key", &r.Key)...)
	diags = append(diags, decodeAttr(content.Attributes, "suffix", &r.Suffix)...)
	diags = append(diags, decodeAttr(content.Attributes, "input_key", &r.InputKey)...)
	if diags.HasErrors() {
		return nil, diags
	}

	switch {
	case r.Suffix == "":
		r.Suffix = companionSuffix
	case companionSuffix != "" && r.Suffix != companionSuffix:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Mismatched companion suffix",
			Detail:   fmt.Sprintf("The results suffix %q differs from the tool's companion_suffix %q.", r.Suffix, companionSuffix),
			Subject:  content.Attributes["suffix"].Expr.Range().Ptr(),
		})
	}
	if r.Suffix == "" {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing companion suffix",
			Detail:   "Set 'suffix' in the results block or 'companion_suffix' on the tool.",
			Subject:  &block.DefRange,
		})
	}

	return r, diags
}

// checkReferences reports every reference to a flag the tool does not declare.
func checkReferences(tool *Tool, refs []paramRef) hcl.Diagnostics {
	var diags hcl.Diagnostics

	flags := make(map[string]bool, len(tool.Parameters))
	for _, spec := range tool.Parameters {
		flags[spec.Flag] = true
	}

	for _, ref := range refs {
		key := ref.key
		if ref.attr != "synonyms" {
			if flag, ok := tool.Synonyms[key]; ok {
				key = flag
			}
		}
		if flags[key] {
			continue
		}
		rng := ref.rng
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Reference to undeclared parameter",
			Detail:   fmt.Sprintf("The '%s' attribute of tool '%s' refers to '%s', which is not a declared parameter.", ref.attr, tool.Name, ref.key),
			Subject:  &rng,
		})
	}

	return diags
}

func decodeAttr(attrs hcl.Attributes, name string, target any) hcl.Diagnostics {
	attr, ok := attrs[name]
	if !ok {
		return nil
	}
	return gohcl.DecodeExpression(attr.Expr, nil, target)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
