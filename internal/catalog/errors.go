package catalog

import "errors"

// ErrUnknownTool is returned when a catalog has no tool of the requested name.
var ErrUnknownTool = errors.New("unknown tool")
