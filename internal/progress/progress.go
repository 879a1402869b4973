// Package progress reports per-item import progress. The sink is best-effort
// and must never block or fail the pipeline; the terminal implementation
// disables itself when stderr is not a TTY.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

const updateInterval = 50 * time.Millisecond

// Sink receives (current, total) progress tuples with a short human message.
type Sink interface {
	Publish(current, total int, message string)
	Finish(message string)
}

// NopSink discards all progress updates.
type NopSink struct{}

func (NopSink) Publish(int, int, string) {}
func (NopSink) Finish(string)            {}

// Bar renders progress to stderr. All methods are no-ops when the bar is
// disabled or stderr is not a terminal. The underlying bar is created on the
// first Publish, since the item total is only known after discovery; Publish
// is called from every worker goroutine, so the lazy init and all bar writes
// are mutex-guarded.
type Bar struct {
	enabled bool
	out     io.Writer

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewBar creates a terminal progress sink. It is disabled when enabled is
// false or stderr is not a TTY, so piped or cron-driven runs stay quiet.
func NewBar(enabled bool) *Bar {
	return &Bar{
		enabled: enabled && isatty.IsTerminal(os.Stderr.Fd()),
		out:     os.Stderr,
	}
}

// Publish updates the bar position and description. Safe for concurrent use.
func (b *Bar) Publish(current, total int, message string) {
	if !b.enabled || total <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		b.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(b.out),
			progressbar.OptionThrottle(updateInterval),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetWidth(40),
		)
	}
	if message != "" {
		b.bar.Describe(message)
	}
	_ = b.bar.Set(current)
}

// Finish completes the bar and prints a final line.
func (b *Bar) Finish(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	if message != "" {
		fmt.Fprintln(b.out, message)
	}
}
