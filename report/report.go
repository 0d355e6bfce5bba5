// Package report renders user-facing progress and results. The orchestrator
// talks to a Reporter so tests and library callers can capture or silence
// console output.
package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/ytget/mediadl/internal/progress"
	"github.com/ytget/mediadl/types"
)

const (
	barWidth  = 20
	barPrefix = "⬇️  "
)

// Reporter receives every user-visible event of an invocation.
type Reporter interface {
	// Status announces a step (platform detected, mode selected, ...).
	Status(msg string)
	// Info is secondary information such as available variants.
	Info(msg string)
	// Warn reports a non-fatal problem.
	Warn(msg string)
	// Error reports the failure that ends the invocation.
	Error(msg string)
	// Details shows a titled list of metadata fields.
	Details(title string, fields []types.Field)
	// Progress is called for every received chunk of name.
	Progress(name string, downloaded, total int64)
	// Saved is called once name has been written to path.
	Saved(name, path string)
}

// Console writes colored output to a terminal.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	bar     *progressbar.ProgressBar
	barName string
	quiet   bool

	status *color.Color
	info   *color.Color
	warn   *color.Color
	err    *color.Color
}

// NewConsole returns a Console writing to w (os.Stdout when nil).
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{
		out:    w,
		status: color.New(color.FgGreen, color.Bold),
		info:   color.New(color.FgHiBlue),
		warn:   color.New(color.FgYellow),
		err:    color.New(color.FgHiRed),
	}
}

// WithoutColor disables ANSI colors regardless of the terminal.
func (c *Console) WithoutColor() *Console {
	for _, col := range []*color.Color{c.status, c.info, c.warn, c.err} {
		col.DisableColor()
	}
	return c
}

// WithoutProgress suppresses progress redraws.
func (c *Console) WithoutProgress() *Console {
	c.quiet = true
	return c
}

func (c *Console) line(col *color.Color, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endProgress()
	_, _ = col.Fprintln(c.out, msg)
}

// endProgress terminates a pending progress bar line. Callers hold mu.
func (c *Console) endProgress() {
	if c.bar != nil {
		_, _ = fmt.Fprintln(c.out)
		c.bar = nil
		c.barName = ""
	}
}

// newBar starts a bar for total bytes; an unknown total shows a spinner.
func (c *Console) newBar(total int64) *progressbar.ProgressBar {
	if total <= 0 {
		total = -1
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetWidth(barWidth),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetSpinnerChangeInterval(0),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Status implements Reporter.
func (c *Console) Status(msg string) { c.line(c.status, msg) }

// Info implements Reporter.
func (c *Console) Info(msg string) { c.line(c.info, msg) }

// Warn implements Reporter.
func (c *Console) Warn(msg string) { c.line(c.warn, msg) }

// Error implements Reporter.
func (c *Console) Error(msg string) { c.line(c.err, msg) }

// Details implements Reporter.
func (c *Console) Details(title string, fields []types.Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endProgress()
	_, _ = c.info.Fprintf(c.out, "\n📊 %s:\n", title)
	for _, f := range fields {
		_, _ = c.info.Fprintf(c.out, " • %s: %s\n", f.Label, f.Value)
	}
}

// Progress implements Reporter.
func (c *Console) Progress(name string, downloaded, total int64) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bar == nil || c.barName != name {
		c.endProgress()
		c.bar = c.newBar(total)
		c.barName = name
	}
	c.bar.Describe(barPrefix + name + ": " + progress.Counter(downloaded, total))
	_ = c.bar.Set64(downloaded)
}

// Saved implements Reporter.
func (c *Console) Saved(name, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endProgress()
	_, _ = c.status.Fprintf(c.out, "📂 %s: %s\n", name, path)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Status(string)                 {}
func (Nop) Info(string)                   {}
func (Nop) Warn(string)                   {}
func (Nop) Error(string)                  {}
func (Nop) Details(string, []types.Field) {}
func (Nop) Progress(string, int64, int64) {}
func (Nop) Saved(string, string)          {}

var (
	_ Reporter = (*Console)(nil)
	_ Reporter = Nop{}
	_ Reporter = (*Recorder)(nil)
)
