// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file maps the `type` keyword of a parameter block to a cty type.
package catalog

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// parseValueType converts a bare type keyword such as `number` into the
// cty.Type the parameter's values are converted to.
func parseValueType(expr hcl.Expression) (cty.Type, hcl.Diagnostics) {
	traversal, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() || len(traversal) != 1 {
		return cty.NilType, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid type specification",
			Detail:   "The 'type' attribute must be a bare keyword: string, number or bool.",
			Subject:  expr.Range().Ptr(),
		}}
	}

	switch name := traversal.RootName(); name {
	case "string":
		return cty.String, nil
	case "number":
		return cty.Number, nil
	case "bool":
		return cty.Bool, nil
	default:
		// Collections cannot be rendered as a single command-line token.
		return cty.NilType, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported type",
			Detail:   fmt.Sprintf("The keyword '%s' is not a parameter type. Supported types are: string, number, bool.", name),
			Subject:  expr.Range().Ptr(),
		}}
	}
}
