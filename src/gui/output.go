package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// sizedTheme overrides only the body text size of its parent theme.
type sizedTheme struct {
	fyne.Theme
	textSize float32
}

func (t *sizedTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNameText {
		return t.textSize
	}
	return t.Theme.Size(name)
}

// outputSurface is the read-only, scrollable answer area.
type outputSurface struct {
	label    *widget.Label
	scroll   *container.Scroll
	override *container.ThemeOverride
	base     fyne.Theme
	size     float32
}

func newOutputSurface(base fyne.Theme, size float32) *outputSurface {
	label := widget.NewLabel("")
	label.Wrapping = fyne.TextWrapWord
	scroll := container.NewVScroll(label)
	return &outputSurface{
		label:    label,
		scroll:   scroll,
		override: container.NewThemeOverride(scroll, &sizedTheme{Theme: base, textSize: size}),
		base:     base,
		size:     size,
	}
}

func (o *outputSurface) Text() string { return o.label.Text }

func (o *outputSurface) SetText(text string) {
	o.label.SetText(text)
	o.scroll.ScrollToTop()
}

func (o *outputSurface) SetFontSize(size float32) {
	if size == o.size {
		return
	}
	o.size = size
	o.override.Theme = &sizedTheme{Theme: o.base, textSize: size}
	o.override.Refresh()
}

func (o *outputSurface) FontSize() float32 { return o.size }

func (o *outputSurface) Height() float32 { return o.scroll.Size().Height }

func (o *outputSurface) CanvasObject() fyne.CanvasObject { return o.override }
