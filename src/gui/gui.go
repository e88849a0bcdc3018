package gui

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"screen-math-llm/src/presenter"
)

const (
	Title           = "AI Screenshot Helper"
	initialFontSize = 14
)

// Window is the main application window. All methods must be called on the
// fyne goroutine.
type Window struct {
	win           fyne.Window
	monitorSelect *widget.Select
	modeSelect    *widget.Select
	captureBtn    *widget.Button
	copyBtn       *widget.Button
	output        *outputSurface
	onCapture     func()
	onCopy        func()
}

// New builds the window. monitorLabels are detected once at startup; the
// first one and defaultMode are preselected.
func New(a fyne.App, monitorLabels, modeLabels []string, defaultMode string) *Window {
	w := &Window{win: a.NewWindow(Title)}

	header := widget.NewLabelWithStyle(Title, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	w.monitorSelect = widget.NewSelect(monitorLabels, nil)
	if len(monitorLabels) > 0 {
		w.monitorSelect.SetSelected(monitorLabels[0])
	} else {
		w.monitorSelect.PlaceHolder = "No monitors detected"
	}

	w.modeSelect = widget.NewSelect(modeLabels, nil)
	w.modeSelect.SetSelected(defaultMode)

	w.captureBtn = widget.NewButtonWithIcon("Capture & Get Answer", theme.MediaPhotoIcon(), func() {
		if w.onCapture != nil {
			w.onCapture()
		}
	})
	w.captureBtn.Importance = widget.HighImportance

	w.copyBtn = widget.NewButtonWithIcon("Copy Answer", theme.ContentCopyIcon(), func() {
		if w.onCopy != nil {
			w.onCopy()
		}
	})

	w.output = newOutputSurface(a.Settings().Theme(), initialFontSize)

	top := container.NewVBox(
		header,
		container.NewCenter(container.NewHBox(widget.NewLabel("Select monitor:"), w.monitorSelect)),
		container.NewCenter(container.NewHBox(widget.NewLabel("Select answer mode:"), w.modeSelect)),
		container.NewCenter(w.captureBtn),
	)
	bottom := container.NewCenter(w.copyBtn)

	w.win.SetContent(container.NewBorder(top, bottom, nil, nil, w.output.CanvasObject()))
	w.win.Resize(fyne.NewSize(750, 550))
	return w
}

func (w *Window) OnCapture(fn func()) { w.onCapture = fn }

func (w *Window) OnCopy(fn func()) { w.onCopy = fn }

// Selection returns the current monitor and mode labels.
func (w *Window) Selection() (monitorLabel, modeLabel string) {
	return w.monitorSelect.Selected, w.modeSelect.Selected
}

func (w *Window) Surface() presenter.Surface { return w.output }

// SetBusy disables the trigger while a request is in flight.
func (w *Window) SetBusy(busy bool) {
	if busy {
		w.captureBtn.Disable()
	} else {
		w.captureBtn.Enable()
	}
}

// ShowError opens a modal error dialog over the window.
func (w *Window) ShowError(title string, err error) {
	log.Printf("Showing error dialog %q: %v", title, err)
	msg := widget.NewLabel(err.Error())
	msg.Wrapping = fyne.TextWrapWord
	d := dialog.NewCustom(title, "OK", msg, w.win)
	d.Resize(fyne.NewSize(420, 160))
	d.Show()
}

func (w *Window) Window() fyne.Window { return w.win }

func (w *Window) ShowAndRun() {
	log.Printf("GUI ready. Starting main loop...")
	w.win.ShowAndRun()
}
