package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

const barUpdateInterval = 50 * time.Millisecond

// Bar wraps progressbar with enabled/disabled handling for interactive runs.
// All methods are no-ops when disabled. The bar renders on stderr and is
// independent of the NDJSON event stream.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewBar creates a spinner-mode progress bar.
// If enabled=false, returns a Bar where all methods are no-ops.
func NewBar(enabled bool) *Bar {
	if !enabled {
		return &Bar{}
	}
	return &Bar{bar: progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(barUpdateInterval),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(false),
	)}
}

// Describe updates the progress bar description.
func (b *Bar) Describe(s fmt.Stringer) {
	if b.bar != nil {
		b.bar.Describe(s.String())
	}
}

// Finish completes the progress bar and prints a final message.
func (b *Bar) Finish(s fmt.Stringer) {
	if b.bar != nil {
		_ = b.bar.Finish()
		fmt.Fprintln(os.Stderr, "✔ "+s.String())
	}
}
