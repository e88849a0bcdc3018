// Package presenter renders answers into the output surface and handles copying.
package presenter

import (
	"log"
	"math"
	"strings"

	"screen-math-llm/src/session"
)

const (
	Placeholder = "[ERROR] No answer returned from AI."
	Processing  = "Processing screenshot..."

	DefaultMinFont = 10
	DefaultMaxFont = 20
)

// Surface is the scrollable output area.
type Surface interface {
	Text() string
	SetText(text string)
	SetFontSize(size float32)
	// Height is the current visible height in toolkit units.
	Height() float32
}

type ClipboardWriter interface {
	Write(text string) error
}

type Presenter struct {
	surface   Surface
	clipboard ClipboardWriter
	minFont   float32
	maxFont   float32
}

// New returns a Presenter; non-positive or inverted font bounds fall back to 10/20.
func New(surface Surface, clipboard ClipboardWriter, minFont, maxFont int) *Presenter {
	if minFont <= 0 || maxFont < minFont {
		minFont, maxFont = DefaultMinFont, DefaultMaxFont
	}
	return &Presenter{
		surface:   surface,
		clipboard: clipboard,
		minFont:   float32(minFont),
		maxFont:   float32(maxFont),
	}
}

// LineCount is the number of newline characters plus one.
func LineCount(text string) int {
	return strings.Count(text, "\n") + 1
}

// FontSize approximates a readable size for lineCount lines in height units,
// clamped to [minFont, maxFont]. It does not measure glyphs.
func FontSize(height float32, lineCount int, minFont, maxFont float32) float32 {
	if lineCount < 1 {
		lineCount = 1
	}
	raw := float32(math.Floor(float64(height) / (float64(lineCount) * 1.5)))
	if raw > maxFont {
		return maxFont
	}
	if raw < minFont {
		return minFont
	}
	return raw
}

func (p *Presenter) ShowProcessing() {
	p.surface.SetText(Processing)
}

// Render shows the answer, or the placeholder at the maximum size when the
// result carries no text.
func (p *Presenter) Render(res session.Result) {
	if !res.OK || res.Text == "" {
		p.surface.SetFontSize(p.maxFont)
		p.surface.SetText(Placeholder)
		return
	}
	size := FontSize(p.surface.Height(), LineCount(res.Text), p.minFont, p.maxFont)
	p.surface.SetFontSize(size)
	p.surface.SetText(res.Text)
}

// Copy replaces the clipboard with the trimmed surface text. Empty text is a
// no-op and reports false.
func (p *Presenter) Copy() (bool, error) {
	text := strings.TrimSpace(p.surface.Text())
	if text == "" {
		return false, nil
	}
	if err := p.clipboard.Write(text); err != nil {
		log.Printf("Clipboard write failed: %v", err)
		return false, err
	}
	log.Printf("Copied %d chars to clipboard", len(text))
	return true, nil
}
