// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package param models the command-line tokens an external tool accepts.
//
// # Core Concepts
//
//   - Parameter: a single switch with a prefix ("-" or "--"), an opaque name,
//     a delimiter placed between the switch and its value, an on/off state and
//     an optional typed value.
//
//   - Kind: the rendering rule of a Parameter. A flag renders as
//     prefix+name, a valued parameter as prefix+name+delimiter+value, and a
//     mixed parameter as either of the two depending on whether a value is set.
//
//   - Parameters: the collection owned by one application instance. It maps
//     canonical flags (prefix+name) to Parameters and carries a synonym table
//     of human-readable aliases such as "Temperature" for "-T".
//
// Values are stored as cty.Value so that catalog defaults decoded from HCL and
// values supplied by Go callers share one representation. Rendering converts
// primitive values to their string form; anything else is rejected.
package param
