package logutil

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRedactKey(t *testing.T) {
	if got := RedactKey("short"); got != "********" {
		t.Errorf("Expected full mask for short key, got %q", got)
	}
	if got := RedactKey("AIzaSyExampleKey1234"); got != "AIza...1234" {
		t.Errorf("Unexpected redaction: %q", got)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"plain", "x = 42", 100, "x = 42"},
		{"newlines", "step 1\nstep 2\r\n", 100, "step 1\\nstep 2\\n\\n"},
		{"tab and control", "a\tb\x07", 100, "a\\tb?"},
		{"truncated", "abcdef", 3, "abc..."},
		{"unicode", "√16 = 4", 100, "√16 = 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(LogDirEnvVar, dir)
	if got := LogDir(); got != dir {
		t.Errorf("Expected override dir %q, got %q", dir, got)
	}

	t.Setenv(LogDirEnvVar, "")
	exe, err := os.Executable()
	if err != nil {
		t.Skipf("executable path unavailable: %v", err)
	}
	if got := LogDir(); got != filepath.Dir(exe) {
		t.Errorf("Expected executable dir %q, got %q", filepath.Dir(exe), got)
	}
}

func TestSetupWritesToLogDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(LogDirEnvVar, dir)
	t.Cleanup(func() { log.SetOutput(io.Discard) })

	Setup(true)
	log.Printf("hello from test")
	log.SetOutput(io.Discard)

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("Expected message in log file, got %q", data)
	}
}

func TestRotatingWriterKeepsArchives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := openRotating(path, 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	for _, line := range []string{"first-line\n", "second-line\n", "third-line\n", "fourth-line\n"} {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	read := func(p string) string {
		b, err := os.ReadFile(p)
		if err != nil {
			return ""
		}
		return string(b)
	}
	if got := read(path); got != "fourth-line\n" {
		t.Errorf("current = %q", got)
	}
	if got := read(path + ".1"); got != "third-line\n" {
		t.Errorf("archive 1 = %q", got)
	}
	if got := read(path + ".2"); got != "second-line\n" {
		t.Errorf("archive 2 = %q", got)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf("Expected at most 2 archives, stat .3: %v", err)
	}
}
