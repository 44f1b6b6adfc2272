// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package catalog declares external tools in HCL and turns each declaration
// into an application.Definition.
//
// A catalog file holds one or more `tool` blocks:
//
//	tool "RNAfold" {
//	  command         = "RNAfold"
//	  redirect_input  = true
//	  suppress_stderr = true
//	  synonyms        = { Temperature = "-T" }
//
//	  parameter "-T" {
//	    kind      = "valued"
//	    delimiter = " "
//	    default   = 37
//	  }
//
//	  results "named_records" {
//	    artifact "_ss" {
//	      default_name = "rna"
//	      default_key  = "SS"
//	    }
//	  }
//	}
//
// The Vienna RNA and COVE tools ship embedded in the binary; user files
// loaded afterwards replace built-in tools of the same name.
package catalog
