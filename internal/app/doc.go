// Package app contains the host application around the resource manager. It
// wires the type registry, job pool, filesystem and metrics into a Manager,
// and implements the two entry points: a one-shot load that prints a state
// report, and a long-running serve mode with a debug HTTP server. It is
// decoupled from any specific entrypoint like a CLI.
package app
