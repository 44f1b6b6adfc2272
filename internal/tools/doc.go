// Package tools offers one-call helpers over the catalog for the common
// Vienna RNA tasks: drawing a structure and folding under a constraint.
package tools
