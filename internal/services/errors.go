package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExternalTool marks failures of external binaries (ffmpeg, ffprobe).
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks inputs that can never succeed without operator action.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks missing files, entries, or sessions.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks uniqueness races that the caller is expected to resolve.
	ErrConflict = errors.New("conflict")
	// ErrTransient marks failures worth retrying.
	ErrTransient = errors.New("transient failure")
	// ErrPrecondition marks pass-level failures that abort a whole run.
	ErrPrecondition = errors.New("precondition failed")
	// ErrCanceled marks cooperative cancellation; it is an outcome, not a defect.
	ErrCanceled = errors.New("canceled")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatalToRun reports whether an error must abort the whole pass rather than
// fail a single item.
func IsFatalToRun(err error) bool {
	return errors.Is(err, ErrPrecondition) || errors.Is(err, ErrConfiguration)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
