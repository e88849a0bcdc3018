package clipboard

import (
	"errors"
	"sync"

	"golang.design/x/clipboard"
)

var (
	writeMu     sync.Mutex
	initialized bool
)

var ErrNotInitialized = errors.New("clipboard not initialized")

func Init() error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if err := clipboard.Init(); err != nil {
		return err
	}
	initialized = true
	return nil
}

// Write replaces the system clipboard text under a mutex.
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if !initialized {
		return ErrNotInitialized
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// Read returns the current clipboard text.
func Read() (string, error) {
	writeMu.Lock()
	defer writeMu.Unlock()
	if !initialized {
		return "", ErrNotInitialized
	}
	return string(clipboard.Read(clipboard.FmtText)), nil
}

// System adapts the package functions to presenter.ClipboardWriter.
type System struct{}

func (System) Write(text string) error { return Write(text) }
