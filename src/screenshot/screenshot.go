package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"
)

// Monitor describes one active display as detected at startup.
type Monitor struct {
	Index  int
	Width  int
	Height int
}

// Label is the user-facing dropdown text, numbered from 1.
func (m Monitor) Label() string {
	return fmt.Sprintf("Monitor %d (%dx%d)", m.Index+1, m.Width, m.Height)
}

// InvalidMonitorIndexError is returned when the requested index is outside [0, Count).
type InvalidMonitorIndexError struct {
	Index int
	Count int
}

func (e *InvalidMonitorIndexError) Error() string {
	return fmt.Sprintf("monitor index %d not available: only %d monitor(s) detected", e.Index, e.Count)
}

// Backend is the OS screen-capture surface.
type Backend interface {
	NumDisplays() int
	DisplayBounds(index int) image.Rectangle
	CaptureRect(bounds image.Rectangle) (*image.RGBA, error)
}

type kbinaniBackend struct{}

func (kbinaniBackend) NumDisplays() int { return screenshot.NumActiveDisplays() }

func (kbinaniBackend) DisplayBounds(index int) image.Rectangle {
	return screenshot.GetDisplayBounds(index)
}

func (kbinaniBackend) CaptureRect(bounds image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(bounds)
}

// Capturer captures single monitors through a Backend.
type Capturer struct {
	backend Backend
}

// New returns a Capturer backed by the native display API.
func New() *Capturer {
	return &Capturer{backend: kbinaniBackend{}}
}

// NewWithBackend is used by tests and headless callers.
func NewWithBackend(b Backend) *Capturer {
	return &Capturer{backend: b}
}

// Monitors enumerates active displays in backend order.
func (c *Capturer) Monitors() []Monitor {
	n := c.backend.NumDisplays()
	monitors := make([]Monitor, 0, n)
	for i := 0; i < n; i++ {
		b := c.backend.DisplayBounds(i)
		monitors = append(monitors, Monitor{Index: i, Width: b.Dx(), Height: b.Dy()})
	}
	return monitors
}

// Capture grabs exactly the bounds of monitor index and returns it PNG-encoded.
func (c *Capturer) Capture(index int) ([]byte, error) {
	n := c.backend.NumDisplays()
	if index < 0 || index >= n {
		return nil, &InvalidMonitorIndexError{Index: index, Count: n}
	}

	bounds := c.backend.DisplayBounds(index)
	img, err := c.backend.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture monitor %d: %w", index, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// Labels returns the dropdown labels for monitors, in order.
func Labels(monitors []Monitor) []string {
	labels := make([]string, len(monitors))
	for i, m := range monitors {
		labels[i] = m.Label()
	}
	return labels
}

// ResolveLabel maps a dropdown label back to its zero-based monitor index.
func ResolveLabel(monitors []Monitor, label string) (int, error) {
	for _, m := range monitors {
		if m.Label() == label {
			return m.Index, nil
		}
	}
	return -1, fmt.Errorf("unknown monitor %q", label)
}
