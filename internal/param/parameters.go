package param

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Parameters is the set of parameters owned by one application instance,
// keyed by canonical flag, plus a synonym table.
type Parameters struct {
	byFlag   map[string]*Parameter
	synonyms map[string]string
}

// NewParameters builds a collection from params and a synonym table mapping
// alias to canonical flag. Every synonym must point at one of params.
func NewParameters(params []*Parameter, synonyms map[string]string) (*Parameters, error) {
	ps := &Parameters{
		byFlag:   make(map[string]*Parameter, len(params)),
		synonyms: make(map[string]string, len(synonyms)),
	}
	for _, p := range params {
		if _, exists := ps.byFlag[p.ID()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParameter, p.ID())
		}
		ps.byFlag[p.ID()] = p
	}
	for alias, flag := range synonyms {
		if _, ok := ps.byFlag[flag]; !ok {
			return nil, fmt.Errorf("synonym %q points at %q: %w", alias, flag, ErrUnknownParameter)
		}
		ps.synonyms[alias] = flag
	}
	return ps, nil
}

// Get resolves key, checking the synonym table before the canonical flags.
func (ps *Parameters) Get(key string) (*Parameter, error) {
	if flag, ok := ps.synonyms[key]; ok {
		key = flag
	}
	p, ok := ps.byFlag[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, key)
	}
	return p, nil
}

// Canonical resolves key to its canonical flag without returning the
// parameter.
func (ps *Parameters) Canonical(key string) (string, error) {
	p, err := ps.Get(key)
	if err != nil {
		return "", err
	}
	return p.ID(), nil
}

// IsOn reports whether the parameter behind key is on. Unknown keys are
// reported as errors rather than as off.
func (ps *Parameters) IsOn(key string) (bool, error) {
	p, err := ps.Get(key)
	if err != nil {
		return false, err
	}
	return p.IsOn(), nil
}

// Len returns the number of parameters.
func (ps *Parameters) Len() int { return len(ps.byFlag) }

// Flags returns the canonical flags in rendering order.
func (ps *Parameters) Flags() []string {
	flags := make([]string, 0, len(ps.byFlag))
	for flag := range ps.byFlag {
		flags = append(flags, flag)
	}
	sort.Strings(flags)
	return flags
}

// Synonyms returns a copy of the synonym table.
func (ps *Parameters) Synonyms() map[string]string {
	out := make(map[string]string, len(ps.synonyms))
	for k, v := range ps.synonyms {
		out[k] = v
	}
	return out
}

// Apply turns each named parameter on with its value. A nil value turns a
// flag or mixed parameter on without a value and is an error for a valued
// parameter. A boolean switches a flag or mixed parameter: false turns it
// off, true turns it on without a value. Keys may be flags or synonyms.
func (ps *Parameters) Apply(settings map[string]any) error {
	// Sorted so the first reported error is stable.
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		p, err := ps.Get(key)
		if err != nil {
			return err
		}
		v := settings[key]
		switch {
		case v == nil && p.Kind == KindValued:
			return fmt.Errorf("parameter %s: %w", p.ID(), ErrMissingValue)
		case v == nil:
			p.ClearValue()
			p.On()
		case p.Kind == KindFlag:
			if on, ok := boolSetting(v); ok && !on {
				p.Off()
				continue
			}
			p.On()
		case p.Kind == KindMixed:
			on, ok := boolSetting(v)
			if !ok {
				if err := p.Set(v); err != nil {
					return err
				}
				continue
			}
			if on {
				p.ClearValue()
				p.On()
			} else {
				p.Off()
			}
		default:
			if err := p.Set(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Off turns every named parameter off.
func (ps *Parameters) Off(keys ...string) error {
	for _, key := range keys {
		p, err := ps.Get(key)
		if err != nil {
			return err
		}
		p.Off()
	}
	return nil
}

// Render joins every parameter that is on, in canonical flag order.
func (ps *Parameters) Render() (string, error) {
	var parts []string
	for _, flag := range ps.Flags() {
		s, err := ps.byFlag[flag].Render()
		if err != nil {
			return "", err
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}

// Clone returns a deep copy whose parameters can be mutated independently.
func (ps *Parameters) Clone() *Parameters {
	c := &Parameters{
		byFlag:   make(map[string]*Parameter, len(ps.byFlag)),
		synonyms: ps.Synonyms(),
	}
	for flag, p := range ps.byFlag {
		c.byFlag[flag] = p.Clone()
	}
	return c
}

// boolSetting reports whether v is a boolean switch and its state.
func boolSetting(v any) (on, ok bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case cty.Value:
		if b.IsKnown() && !b.IsNull() && b.Type().Equals(cty.Bool) {
			return b.True(), true
		}
	}
	return false, false
}
