package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
)

func newBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// PhaseProgress shows one progress bar per pipeline phase. Update is safe to
// call from worker goroutines.
type PhaseProgress struct {
	mu      sync.Mutex
	label   string
	bar     *progressbar.ProgressBar
	done    int
	onFirst func()
	started bool
}

// NewPhaseProgress creates an idle progress display.
func NewPhaseProgress() *PhaseProgress {
	return &PhaseProgress{}
}

// OnFirstUpdate registers fn to run once, before the first bar is drawn.
func (p *PhaseProgress) OnFirstUpdate(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onFirst = fn
}

// Update records done of total for the phase called label, starting a new bar
// when the phase changes.
func (p *PhaseProgress) Update(label string, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		p.started = true
		if p.onFirst != nil {
			p.onFirst()
		}
	}

	if p.bar == nil || p.label != label {
		if p.bar != nil {
			_ = p.bar.Finish()
		}
		p.label = label
		p.done = 0
		p.bar = newBar(total, label)
	}
	// callbacks can arrive out of order; never move the bar backwards
	if done > p.done {
		p.done = done
		_ = p.bar.Set(done)
	}
}

// Finish completes the current bar. Safe to call more than once.
func (p *PhaseProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

// Spinner wraps a spinner instance for indeterminate progress display.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a new spinner with the given message.
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = out
	return &Spinner{spinner: s}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	s.spinner.Start()
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	s.spinner.Stop()
}
