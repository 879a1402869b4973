// Package main hosts the photoflow CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into import
// passes, remote syncs, catalog maintenance, and configuration scaffolding.
// It centralizes configuration resolution and structured logging setup so
// subcommands can focus on user experience instead of wiring.
//
// Sessions that finish in error or canceled states surface as a non-zero
// process exit so cron jobs and scripts can react to partial failures.
package main
