// Package progress reports per-file progress for long CLI operations
// (the `cold list --verify` sweep) using a terminal progress bar.
package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Reporter is the interface for reporting progress over a count of files.
type Reporter interface {
	Start(total int64, description string)
	Update(current int64)
	Finish()
	Error(err error)
	SetDescription(desc string)
}

// CLIProgress renders a terminal progress bar over os.Stderr, falling
// back to plain "N/total" lines when stderr isn't a terminal (cron,
// CI, piped output) since a redrawing bar garbles those logs.
type CLIProgress struct {
	bar        *progressbar.ProgressBar
	isTerminal bool
	total      int64
}

// NewCLIProgress creates a new CLI progress reporter.
func NewCLIProgress() *CLIProgress {
	return &CLIProgress{isTerminal: term.IsTerminal(int(os.Stderr.Fd()))}
}

// Start initializes the progress bar with a file count and description.
func (p *CLIProgress) Start(total int64, description string) {
	p.total = total
	if !p.isTerminal {
		fmt.Fprintf(os.Stderr, "%s: 0/%d\n", description, total)
		return
	}
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update moves the bar to the given file count.
func (p *CLIProgress) Update(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
		return
	}
	if !p.isTerminal && p.total > 0 {
		fmt.Fprintf(os.Stderr, "... %d/%d\n", current, p.total)
	}
}

// Finish completes the progress bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Error prints an error below the bar.
func (p *CLIProgress) Error(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
	}
}

// SetDescription updates the bar's label.
func (p *CLIProgress) SetDescription(desc string) {
	if p.bar != nil {
		p.bar.Describe(desc)
	}
}

// NoOpProgress silences progress reporting (used by `cold list` without --verify).
type NoOpProgress struct{}

// NewNoOpProgress creates a no-op progress reporter.
func NewNoOpProgress() *NoOpProgress { return &NoOpProgress{} }

func (p *NoOpProgress) Start(total int64, description string) {}
func (p *NoOpProgress) Update(current int64)                  {}
func (p *NoOpProgress) Finish()                               {}
func (p *NoOpProgress) Error(err error)                       {}
func (p *NoOpProgress) SetDescription(desc string)            {}
