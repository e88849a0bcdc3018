package eventloop

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"screen-math-llm/src/llm"
	"screen-math-llm/src/presenter"
	"screen-math-llm/src/prompt"
	"screen-math-llm/src/screenshot"
	"screen-math-llm/src/session"
)

var fixedPNG = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type fakeSurface struct {
	text string
	font float32
}

func (f *fakeSurface) Text() string          { return f.text }
func (f *fakeSurface) SetText(text string)   { f.text = text }
func (f *fakeSurface) SetFontSize(s float32) { f.font = s }
func (f *fakeSurface) Height() float32       { return 300 }

type fakeClipboard struct{ content string }

func (f *fakeClipboard) Write(text string) error { f.content = text; return nil }

type fakeDialogs struct {
	titles []string
	errs   []error
}

func (f *fakeDialogs) ShowError(title string, err error) {
	f.titles = append(f.titles, title)
	f.errs = append(f.errs, err)
}

// harness plays the UI goroutine: posted funcs queue up until drained.
type harness struct {
	loop    *Loop
	surface *fakeSurface
	clip    *fakeClipboard
	dialogs *fakeDialogs
	posted  chan func()
	phases  []session.Phase
	busy    []bool
}

var monitors = []screenshot.Monitor{{Index: 0, Width: 1920, Height: 1080}}

func newHarness(t *testing.T, capture session.CaptureFunc, query session.QueryFunc) *harness {
	t.Helper()
	h := &harness{
		surface: &fakeSurface{},
		clip:    &fakeClipboard{},
		dialogs: &fakeDialogs{},
		posted:  make(chan func(), 16),
	}
	h.loop = New(Options{
		Monitors:  monitors,
		Capture:   capture,
		Query:     query,
		Presenter: presenter.New(h.surface, h.clip, 10, 20),
		Dialogs:   h.dialogs,
		Post:      func(f func()) { h.posted <- f },
		OnBusy:    func(b bool) { h.busy = append(h.busy, b) },
		OnPhase:   func(p session.Phase) { h.phases = append(h.phases, p) },
	})
	t.Cleanup(h.loop.Close)
	return h
}

// drain runs posted funcs until the loop is idle again.
func (h *harness) drain(t *testing.T) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for h.loop.Busy() {
		select {
		case f := <-h.posted:
			f()
		case <-timeout:
			t.Fatal("loop did not return to idle")
		}
	}
}

func fixedCapture(int) ([]byte, error) { return fixedPNG, nil }

func TestEndToEndDirectAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":" 42 "}]}}]}`)
	}))
	defer srv.Close()
	client, err := llm.New(llm.Config{APIKey: "k", Model: "m", Endpoint: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	h := newHarness(t, fixedCapture, client.Query)
	if !h.loop.Trigger(context.Background(), monitors[0].Label(), prompt.DirectAnswer.String()) {
		t.Fatal("Trigger refused")
	}
	h.drain(t)

	if h.surface.text != "42" {
		t.Errorf("Expected displayed output %q, got %q", "42", h.surface.text)
	}
	want := []session.Phase{session.Capturing, session.Querying, session.RenderedAnswer, session.Idle}
	if len(h.phases) != len(want) {
		t.Fatalf("Phases = %v, want %v", h.phases, want)
	}
	for i := range want {
		if h.phases[i] != want[i] {
			t.Fatalf("Phases = %v, want %v", h.phases, want)
		}
	}
	if len(h.busy) != 2 || !h.busy[0] || h.busy[1] {
		t.Errorf("Expected busy true then false, got %v", h.busy)
	}

	h.loop.Copy()
	if h.clip.content != "42" {
		t.Errorf("Expected clipboard %q, got %q", "42", h.clip.content)
	}
}

func TestSoftFailureShowsPlaceholder(t *testing.T) {
	h := newHarness(t, fixedCapture, func(context.Context, []byte, string) (string, error) {
		return "", &llm.QueryError{Kind: llm.KindStatus, StatusCode: 500}
	})
	h.loop.Trigger(context.Background(), monitors[0].Label(), prompt.StepByStep.String())
	h.drain(t)

	if h.surface.text != presenter.Placeholder {
		t.Errorf("Expected placeholder, got %q", h.surface.text)
	}
	if len(h.dialogs.errs) != 0 {
		t.Errorf("Soft failures must not open a dialog: %v", h.dialogs.errs)
	}
	if h.loop.Phase() != session.Idle {
		t.Errorf("Expected idle, got %s", h.loop.Phase())
	}
}

func TestCaptureErrorOpensDialog(t *testing.T) {
	h := newHarness(t, func(idx int) ([]byte, error) {
		return nil, &screenshot.InvalidMonitorIndexError{Index: idx, Count: 0}
	}, func(context.Context, []byte, string) (string, error) {
		t.Error("query must not run")
		return "", nil
	})
	h.surface.text = "previous answer"

	h.loop.Trigger(context.Background(), monitors[0].Label(), prompt.DirectAnswer.String())
	h.drain(t)

	if len(h.dialogs.titles) != 1 || h.dialogs.titles[0] != "Invalid monitor" {
		t.Fatalf("Expected one invalid monitor dialog, got %v", h.dialogs.titles)
	}
	var invalid *screenshot.InvalidMonitorIndexError
	if !errors.As(h.dialogs.errs[0], &invalid) {
		t.Errorf("Expected InvalidMonitorIndexError, got %v", h.dialogs.errs[0])
	}
	if h.surface.text != "previous answer" {
		t.Errorf("Surface must be untouched on capture error, got %q", h.surface.text)
	}
}

func TestUnexpectedErrorOpensDialog(t *testing.T) {
	h := newHarness(t, func(int) ([]byte, error) {
		return nil, errors.New("permission denied")
	}, func(context.Context, []byte, string) (string, error) { return "", nil })
	h.loop.Trigger(context.Background(), monitors[0].Label(), prompt.DirectAnswer.String())
	h.drain(t)

	if len(h.dialogs.titles) != 1 || h.dialogs.titles[0] != "Error" {
		t.Fatalf("Expected generic error dialog, got %v", h.dialogs.titles)
	}
}

func TestTriggerRefusedWhileBusy(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, func(int) ([]byte, error) {
		<-release
		return fixedPNG, nil
	}, func(context.Context, []byte, string) (string, error) { return "1", nil })

	label := monitors[0].Label()
	if !h.loop.Trigger(context.Background(), label, "Direct Answer") {
		t.Fatal("first trigger refused")
	}
	if h.loop.Trigger(context.Background(), label, "Direct Answer") {
		t.Fatal("second trigger must be refused while busy")
	}
	close(release)
	h.drain(t)

	if h.surface.text != "1" {
		t.Errorf("Expected first answer rendered, got %q", h.surface.text)
	}
}

func TestTriggerUnknownSelection(t *testing.T) {
	h := newHarness(t, fixedCapture, nil)
	if h.loop.Trigger(context.Background(), "Monitor 9 (1x1)", "Direct Answer") {
		t.Error("Expected refusal for unknown monitor")
	}
	if h.loop.Trigger(context.Background(), monitors[0].Label(), "Essay") {
		t.Error("Expected refusal for unknown mode")
	}
	if len(h.dialogs.errs) != 2 {
		t.Errorf("Expected two dialogs, got %d", len(h.dialogs.errs))
	}
	if h.loop.Busy() {
		t.Error("Loop must stay idle")
	}
}
