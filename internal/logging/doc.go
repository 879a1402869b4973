// Package logging wraps log/slog with photoflow's console and JSON handlers,
// standardized field names, component loggers, and context-derived attributes.
package logging
