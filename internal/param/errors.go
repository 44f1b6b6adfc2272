package param

import "errors"

var (
	// ErrUnknownParameter is returned when a key matches neither a synonym
	// nor a canonical flag.
	ErrUnknownParameter = errors.New("unknown parameter")

	// ErrMissingValue is returned when a valued parameter is on but has no
	// value to render.
	ErrMissingValue = errors.New("parameter is on but has no value")

	// ErrUnrenderableValue is returned when a value cannot be placed on a
	// command line, e.g. a list or an object.
	ErrUnrenderableValue = errors.New("parameter value cannot be rendered")

	// ErrTypeMismatch is returned when a value cannot be converted to the
	// parameter's declared type.
	ErrTypeMismatch = errors.New("parameter value has the wrong type")

	// ErrDuplicateParameter is returned when two parameters share one flag.
	ErrDuplicateParameter = errors.New("duplicate parameter")
)
