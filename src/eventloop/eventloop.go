package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"

	"screen-math-llm/src/hotkey"
	"screen-math-llm/src/presenter"
	"screen-math-llm/src/prompt"
	"screen-math-llm/src/screenshot"
	"screen-math-llm/src/session"
	"screen-math-llm/src/worker"
)

// Dialogs shows blocking, user-dismissed messages.
type Dialogs interface {
	ShowError(title string, err error)
}

type Options struct {
	Monitors  []screenshot.Monitor
	Capture   session.CaptureFunc
	Query     session.QueryFunc
	Presenter *presenter.Presenter
	Dialogs   Dialogs
	// Post runs f on the UI goroutine (fyne.Do in the GUI).
	Post     func(f func())
	DebugDir string
	OnBusy   func(busy bool)
	OnPhase  func(p session.Phase)
}

// Loop owns the application state. Every method except the worker job runs
// on the UI goroutine, so busy and phase need no locking.
type Loop struct {
	opts  Options
	pool  *worker.Pool
	busy  bool
	phase session.Phase
}

func New(opts Options) *Loop {
	if opts.Post == nil {
		opts.Post = func(f func()) { f() }
	}
	return &Loop{opts: opts, pool: worker.New()}
}

func (l *Loop) Busy() bool { return l.busy }

func (l *Loop) Phase() session.Phase { return l.phase }

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if l.opts.OnBusy != nil {
		l.opts.OnBusy(b)
	}
}

func (l *Loop) setPhase(p session.Phase) {
	l.phase = p
	log.Printf("Phase: %s", p)
	if l.opts.OnPhase != nil {
		l.opts.OnPhase(p)
	}
}

// Trigger starts one capture-and-query for the selected dropdown labels.
// It returns false when the request was refused (busy or bad selection).
func (l *Loop) Trigger(ctx context.Context, monitorLabel, modeLabel string) bool {
	if l.busy {
		log.Printf("Trigger: busy, skipping")
		return false
	}

	index, err := screenshot.ResolveLabel(l.opts.Monitors, monitorLabel)
	if err != nil {
		l.showError("Error", err)
		return false
	}
	mode, err := prompt.ParseMode(modeLabel)
	if err != nil {
		l.showError("Error", err)
		return false
	}

	return l.start(ctx, session.Request{MonitorIndex: index, Mode: mode})
}

func (l *Loop) start(ctx context.Context, req session.Request) bool {
	l.setBusy(true)
	opts := session.Options{
		Capture:  l.opts.Capture,
		Query:    l.opts.Query,
		DebugDir: l.opts.DebugDir,
		OnPhase: func(p session.Phase) {
			l.opts.Post(func() { l.onPhase(p) })
		},
	}

	submitted := l.pool.Submit(ctx, func(ctx context.Context) {
		res, err := session.Execute(ctx, opts, req)
		l.opts.Post(func() { l.handleResult(res, err) })
	})
	if !submitted {
		log.Printf("Trigger: worker busy, request dropped")
		l.setBusy(false)
		return false
	}
	return true
}

func (l *Loop) onPhase(p session.Phase) {
	l.setPhase(p)
	if p == session.Querying {
		l.opts.Presenter.ShowProcessing()
	}
}

func (l *Loop) handleResult(res session.Result, err error) {
	defer func() {
		l.setPhase(session.Idle)
		l.setBusy(false)
	}()

	if err != nil {
		l.setPhase(session.RenderedError)
		var invalid *screenshot.InvalidMonitorIndexError
		if errors.As(err, &invalid) {
			l.showError("Invalid monitor", err)
			return
		}
		l.showError("Error", err)
		return
	}

	l.opts.Presenter.Render(res)
	if res.OK {
		l.setPhase(session.RenderedAnswer)
	} else {
		l.setPhase(session.RenderedError)
	}
}

// Copy copies the current output; clipboard failures are shown as a dialog.
func (l *Loop) Copy() {
	if _, err := l.opts.Presenter.Copy(); err != nil {
		l.showError("Clipboard error", fmt.Errorf("could not copy answer: %w", err))
	}
}

// StartHotkey registers a global hotkey that triggers a capture with the
// selections current at the moment it fires.
func (l *Loop) StartHotkey(ctx context.Context, combo string, selection func() (monitorLabel, modeLabel string)) {
	if combo == "" {
		return
	}
	hotkey.Listen(combo, func() {
		l.opts.Post(func() {
			monitor, mode := selection()
			l.Trigger(ctx, monitor, mode)
		})
	})
}

func (l *Loop) showError(title string, err error) {
	log.Printf("%s: %v", title, err)
	if l.opts.Dialogs != nil {
		l.opts.Dialogs.ShowError(title, err)
	}
}

// Close waits for an in-flight request to finish.
func (l *Loop) Close() {
	l.pool.Close()
}
