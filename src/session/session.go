package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"screen-math-llm/src/prompt"
)

// Phase is the lifecycle of one capture-and-query invocation.
type Phase int

const (
	Idle Phase = iota
	Capturing
	Querying
	RenderedAnswer
	RenderedError
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Querying:
		return "querying"
	case RenderedAnswer:
		return "rendered-answer"
	case RenderedError:
		return "rendered-error"
	default:
		return "unknown"
	}
}

type CaptureFunc func(monitorIndex int) ([]byte, error)

type QueryFunc func(ctx context.Context, imageData []byte, instruction string) (string, error)

type Options struct {
	Capture CaptureFunc
	Query   QueryFunc
	// OnPhase is called synchronously on the calling goroutine.
	OnPhase func(Phase)
	// DebugDir, when set, receives a copy of every captured PNG.
	DebugDir string
}

type Request struct {
	MonitorIndex int
	Mode         prompt.Mode
}

// Result is the outcome of a completed invocation. OK is false when the
// model produced no usable text; the caller shows a placeholder instead.
type Result struct {
	Text string
	OK   bool
}

// Execute captures the requested monitor and queries the model once.
// Capture failures abort and are returned. Query failures are soft: they
// yield Result{OK: false} and a nil error.
func Execute(ctx context.Context, opts Options, req Request) (Result, error) {
	if opts.Capture == nil {
		return Result{}, errors.New("Capture is required")
	}
	if opts.Query == nil {
		return Result{}, errors.New("Query is required")
	}
	phase := opts.OnPhase
	if phase == nil {
		phase = func(Phase) {}
	}

	phase(Capturing)
	imageData, err := opts.Capture(req.MonitorIndex)
	if err != nil {
		log.Printf("Capture of monitor %d failed: %v", req.MonitorIndex, err)
		return Result{}, err
	}
	log.Printf("Captured monitor %d (%d bytes)", req.MonitorIndex, len(imageData))

	if opts.DebugDir != "" {
		saveDebugImage(opts.DebugDir, req.MonitorIndex, imageData)
	}

	phase(Querying)
	text, err := opts.Query(ctx, imageData, prompt.Instruction(req.Mode))
	if err != nil {
		log.Printf("No answer for monitor %d (%s): %v", req.MonitorIndex, req.Mode, err)
		return Result{}, nil
	}
	if text == "" {
		log.Printf("Model returned empty text for monitor %d", req.MonitorIndex)
		return Result{}, nil
	}

	return Result{Text: text, OK: true}, nil
}

func saveDebugImage(dir string, monitorIndex int, data []byte) {
	name := filepath.Join(dir, fmt.Sprintf("debug_monitor%d_%s.png", monitorIndex, time.Now().Format("20060102-150405")))
	if err := os.WriteFile(name, data, 0600); err != nil {
		log.Printf("Warning: Could not save debug image: %v", err)
		return
	}
	log.Printf("DEBUG: Saved captured monitor to %s (size: %d bytes)", name, len(data))
}
