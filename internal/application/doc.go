// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package application wraps a single external command-line tool.
//
// An Application owns a command name, a private copy of its parameters, a
// working directory and two pluggable strategies:
//
//   - InputAdapter turns caller data (a Path, a set of Lines or a literal
//     Text) into the token placed at the end of the command line, staging
//     temporary files in the working directory when needed.
//
//   - ResultResolver predicts, from the same input, which files the tool will
//     write and under which logical names the caller finds them.
//
// A call is synchronous: Prepare renders the command line, stages inputs and
// predicts result paths; Call additionally runs the command through a Runner
// and opens the predicted files. A nonzero exit status is reported in the
// Result, never as an error.
//
// # Resources
//
// Nothing is released automatically. The caller owns every Result and must
// call Result.Cleanup, which closes all handles and removes the captured
// streams, the staged inputs and the opened outputs. Temporary names come from
// a NameSource; two invocations sharing a working directory may still collide
// if their name sources overlap, so concurrent calls should use distinct
// working directories.
package application
