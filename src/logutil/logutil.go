package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	logFileName  = "screen_math_debug.log"
	LogDirEnvVar = "SCREEN_MATH_LOG_DIR"

	maxSizeBytes = 10 * 1024 * 1024
	maxArchives  = 3
)

// Setup sends the standard logger to a size-rotated file next to the
// executable (or in SCREEN_MATH_LOG_DIR) when enabled, and discards it
// otherwise so stdout stays clean.
func Setup(enableFileLogging bool) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if !enableFileLogging {
		log.SetOutput(io.Discard)
		return
	}
	path := filepath.Join(LogDir(), logFileName)
	w, err := openRotating(path, maxSizeBytes, maxArchives)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(w)
	log.Printf("Logging to %s", path)
}

// LogDir resolves where the debug log lives, the same way config finds .env:
// explicit override first, then the executable's directory.
func LogDir() string {
	if dir := strings.TrimSpace(os.Getenv(LogDirEnvVar)); dir != "" {
		return dir
	}
	if exe, err := os.Executable(); err == nil {
		return filepath.Dir(exe)
	}
	return "."
}

// rotatingWriter appends to path and shifts it to path.1 .. path.N once a
// write would push it past maxSize.
type rotatingWriter struct {
	mu       sync.Mutex
	path     string
	maxSize  int64
	archives int
	f        *os.File
}

func openRotating(path string, maxSize int64, archives int) (*rotatingWriter, error) {
	w := &rotatingWriter{path: path, maxSize: maxSize, archives: archives}
	if st, err := os.Stat(path); err == nil && st.Size() > maxSize {
		w.shift()
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *rotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	w.f = f
	return nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if st, err := w.f.Stat(); err == nil && st.Size() > 0 && st.Size()+int64(len(p)) > w.maxSize {
		_ = w.f.Close()
		w.shift()
		if err := w.open(); err != nil {
			return 0, err
		}
	}
	return w.f.Write(p)
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// shift drops the oldest archive and renames the rest up by one.
func (w *rotatingWriter) shift() {
	_ = os.Remove(w.archive(w.archives))
	for i := w.archives - 1; i >= 1; i-- {
		_ = os.Rename(w.archive(i), w.archive(i+1))
	}
	_ = os.Rename(w.path, w.archive(1))
}

func (w *rotatingWriter) archive(n int) string { return fmt.Sprintf("%s.%d", w.path, n) }

// RedactKey keeps the first and last four characters of a key.
func RedactKey(k string) string {
	if len(k) <= 8 {
		return "********"
	}
	return fmt.Sprintf("%s...%s", k[:4], k[len(k)-4:])
}

// Sanitize makes model output safe for a single log line: truncated to maxLen
// runes, newlines and tabs escaped, other control characters replaced.
func Sanitize(text string, maxLen int) string {
	r := []rune(text)
	truncated := false
	if maxLen > 0 && len(r) > maxLen {
		r = r[:maxLen]
		truncated = true
	}

	var b strings.Builder
	for _, c := range r {
		switch {
		case c == '\n' || c == '\r':
			b.WriteString("\\n")
		case c == '\t':
			b.WriteString("\\t")
		case c < 32 || c == 127:
			b.WriteByte('?')
		default:
			b.WriteRune(c)
		}
	}
	if truncated {
		b.WriteString("...")
	}
	return b.String()
}
