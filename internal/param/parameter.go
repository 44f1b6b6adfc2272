// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Parameter and its three rendering rules.
package param

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Kind selects how a Parameter renders on the command line.
type Kind int

const (
	// KindFlag is an on/off switch that never carries a value.
	KindFlag Kind = iota
	// KindValued is a switch that always carries a value when on.
	KindValued
	// KindMixed renders as a flag without a value and as a valued
	// parameter with one (e.g. "-d" alone vs. "-d2").
	KindMixed
)

// String returns the catalog keyword of the kind.
func (k Kind) String() string {
	switch k {
	case KindFlag:
		return "flag"
	case KindValued:
		return "valued"
	case KindMixed:
		return "mixed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a catalog keyword back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "flag":
		return KindFlag, nil
	case "valued":
		return KindValued, nil
	case "mixed":
		return KindMixed, nil
	default:
		return 0, fmt.Errorf("unknown parameter kind %q: must be 'flag', 'valued' or 'mixed'", s)
	}
}

// Parameter is a single named command-line token.
type Parameter struct {
	Kind      Kind
	Prefix    string
	Name      string
	Delimiter string

	// Description is free text shown by tooling; it never renders.
	Description string

	// Type constrains the values SetValue accepts. Values are converted to
	// it, so "25" becomes the number 25. cty.NilType accepts any primitive.
	Type cty.Type

	value cty.Value
	on    bool
}

// NewFlag creates a flag parameter, off by default.
func NewFlag(prefix, name string) *Parameter {
	return &Parameter{Kind: KindFlag, Prefix: prefix, Name: name, value: cty.NilVal}
}

// NewValued creates a valued parameter, off by default.
func NewValued(prefix, name, delimiter string) *Parameter {
	return &Parameter{Kind: KindValued, Prefix: prefix, Name: name, Delimiter: delimiter, value: cty.NilVal}
}

// NewMixed creates a mixed parameter, off by default.
func NewMixed(prefix, name, delimiter string) *Parameter {
	return &Parameter{Kind: KindMixed, Prefix: prefix, Name: name, Delimiter: delimiter, value: cty.NilVal}
}

// ID returns the canonical flag, prefix+name.
func (p *Parameter) ID() string {
	return p.Prefix + p.Name
}

// IsOn reports whether the parameter will render.
func (p *Parameter) IsOn() bool { return p.on }

// IsOff reports whether the parameter is omitted from the command line.
func (p *Parameter) IsOff() bool { return !p.on }

// Value returns the current value, or cty.NilVal when none is set.
func (p *Parameter) Value() cty.Value { return p.value }

// HasValue reports whether a non-null value is set.
func (p *Parameter) HasValue() bool {
	return !p.value.IsNull()
}

// On turns the parameter on, keeping its current value.
func (p *Parameter) On() { p.on = true }

// Off turns the parameter off. The value is kept so that turning the
// parameter back on restores it.
func (p *Parameter) Off() { p.on = false }

// Set stores v and turns the parameter on. Go values are converted to cty
// through their implied type. Setting a value on a flag only turns it on.
func (p *Parameter) Set(v any) error {
	val, err := toCty(v)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", p.ID(), err)
	}
	return p.SetValue(val)
}

// SetValue stores a cty value and turns the parameter on.
func (p *Parameter) SetValue(v cty.Value) error {
	if p.Kind != KindFlag && !v.IsNull() {
		if p.Type != cty.NilType {
			converted, err := convert.Convert(v, p.Type)
			if err != nil {
				return fmt.Errorf("parameter %s: %w: want %s, got %s", p.ID(), ErrTypeMismatch, p.Type.FriendlyName(), v.Type().FriendlyName())
			}
			v = converted
		}
		if _, err := renderValue(v); err != nil {
			return fmt.Errorf("parameter %s: %w", p.ID(), err)
		}
		p.value = v
	}
	p.on = true
	return nil
}

// ClearValue removes the value. A valued parameter that stays on without a
// value fails to render.
func (p *Parameter) ClearValue() { p.value = cty.NilVal }

// Render returns the exact substring for the command line, or "" when the
// parameter is off.
func (p *Parameter) Render() (string, error) {
	if !p.on {
		return "", nil
	}

	switch p.Kind {
	case KindFlag:
		return p.ID(), nil
	case KindValued:
		if !p.HasValue() {
			return "", fmt.Errorf("parameter %s: %w", p.ID(), ErrMissingValue)
		}
	case KindMixed:
		if !p.HasValue() {
			return p.ID(), nil
		}
	default:
		return "", fmt.Errorf("parameter %s: unsupported kind %s", p.ID(), p.Kind)
	}

	s, err := renderValue(p.value)
	if err != nil {
		return "", fmt.Errorf("parameter %s: %w", p.ID(), err)
	}
	return p.ID() + p.Delimiter + s, nil
}

// ValueString renders the value alone, without prefix, name or delimiter.
func (p *Parameter) ValueString() (string, error) {
	if !p.HasValue() {
		return "", fmt.Errorf("parameter %s: %w", p.ID(), ErrMissingValue)
	}
	s, err := renderValue(p.value)
	if err != nil {
		return "", fmt.Errorf("parameter %s: %w", p.ID(), err)
	}
	return s, nil
}

// Clone returns an independent copy. cty values are immutable, so a shallow
// copy is sufficient.
func (p *Parameter) Clone() *Parameter {
	c := *p
	return &c
}

// String implements fmt.Stringer with the rendered form, ignoring errors.
func (p *Parameter) String() string {
	s, _ := p.Render()
	return s
}

func toCty(v any) (cty.Value, error) {
	switch val := v.(type) {
	case nil:
		return cty.NilVal, nil
	case cty.Value:
		return val, nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer value type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}

func renderValue(v cty.Value) (string, error) {
	if !v.IsKnown() || !v.Type().IsPrimitiveType() {
		return "", fmt.Errorf("%w: %s", ErrUnrenderableValue, v.Type().FriendlyName())
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnrenderableValue, err)
	}
	return s.AsString(), nil
}
