// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no photoflow-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, tags)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result provide display dimensions, duration, frame rate,
// and creation-time extraction.
package ffprobe
