// Package app contains the core application logic behind the toolwrap
// commands. It owns the logger, the loaded tool catalog and the operations
// the CLI exposes (list, describe, render and run), decoupled from any
// specific entrypoint.
package app
