package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// LevelBar renders a fixed-width bar for a percentage in [0, 100].
func (p *Printer) LevelBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if width <= 0 {
		width = 20
	}
	filled := width * percent / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case percent < 50:
		bar = p.Colorize(bar, ColorYellow)
	case percent < 100:
		bar = p.Colorize(bar, ColorCyan)
	default:
		bar = p.Colorize(bar, ColorGreen)
	}
	return fmt.Sprintf("[%s] %d%%", bar, percent)
}

// Spinner shows activity while a backend call is in flight.
type Spinner struct {
	frames   []string
	current  int
	prefix   string
	mu       sync.Mutex
	writer   io.Writer
	active   bool
	colorize bool
	interval time.Duration
	done     chan struct{}
}

// NewSpinner creates a spinner on the printer's error stream. It stays silent
// when output is not a terminal or is structured.
func (p *Printer) NewSpinner(prefix string) *Spinner {
	return &Spinner{
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		prefix:   prefix,
		writer:   p.Err,
		colorize: p.Color && !p.Structured(),
		interval: 100 * time.Millisecond,
	}
}

// Start starts the spinner. A stopped spinner can be started again.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.active || !s.colorize {
		s.mu.Unlock()
		return
	}
	s.active = true
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				// A restart replaces done, retiring this goroutine.
				if !s.active || s.done != done {
					s.mu.Unlock()
					return
				}
				frame := ColorCyan + s.frames[s.current] + ColorReset
				fmt.Fprintf(s.writer, "\r%s %s", frame, s.prefix)
				s.current = (s.current + 1) % len(s.frames)
				s.mu.Unlock()
			case <-done:
				return
			}
		}
	}()
}

// Stop stops the spinner and clears its line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	s.active = false
	close(s.done)
	fmt.Fprint(s.writer, "\r"+strings.Repeat(" ", len(s.prefix)+4)+"\r")
}
