package tray

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

const iconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <rect x="1.5" y="2.5" width="13" height="10" rx="1" fill="none" stroke="#0078d4" stroke-width="1.2"/>
  <line x1="6" y1="14.5" x2="10" y2="14.5" stroke="#333333" stroke-width="1"/>
  <line x1="4" y1="7.5" x2="7" y2="7.5" stroke="#333333" stroke-width="1"/>
  <line x1="5.5" y1="6" x2="5.5" y2="9" stroke="#333333" stroke-width="1"/>
  <line x1="9" y1="6.5" x2="12" y2="6.5" stroke="#333333" stroke-width="1"/>
  <line x1="9" y1="8.5" x2="12" y2="8.5" stroke="#333333" stroke-width="1"/>
</svg>`

var Icon = fyne.NewStaticResource("screen-math.svg", []byte(iconSVG))

// Install adds a system tray menu with a capture item. fyne appends its own
// Quit item. Returns false when the driver has no tray support.
func Install(a fyne.App, title string, onCapture func()) bool {
	desk, ok := a.(desktop.App)
	if !ok {
		log.Printf("System tray not supported by this driver")
		return false
	}
	menu := fyne.NewMenu(title,
		fyne.NewMenuItem("Capture & Get Answer", onCapture),
	)
	desk.SetSystemTrayMenu(menu)
	desk.SetSystemTrayIcon(Icon)
	return true
}
