package cli

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// CaptureProgressReporter renders snapshot capture progress with a
// progress bar. It implements snapshot.ProgressReporter.
type CaptureProgressReporter struct {
	quiet bool

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewCaptureProgressReporter creates a reporter; quiet suppresses all
// non-error output.
func NewCaptureProgressReporter(quiet bool) *CaptureProgressReporter {
	return &CaptureProgressReporter{quiet: quiet}
}

func (c *CaptureProgressReporter) OnDiscoveryComplete(codeFiles, docFiles int) {
	if c.quiet {
		return
	}
	log.Printf("Processing %d code files and %d documentation files\n", codeFiles, docFiles)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bar = progressbar.NewOptions(codeFiles,
		progressbar.OptionSetDescription("Capturing structure"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

func (c *CaptureProgressReporter) OnFileExtracted(path string) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bar != nil {
		c.bar.Add(1)
	}
}

func (c *CaptureProgressReporter) OnCaptureComplete(files, sections int, elapsed time.Duration) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	if c.bar != nil {
		c.bar.Finish()
		c.bar = nil
	}
	c.mu.Unlock()
	fmt.Printf("✓ Snapshot captured: %d files, %d doc sections (took %.1fs)\n",
		files, sections, elapsed.Seconds())
}
