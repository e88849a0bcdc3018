package main

import (
	"testing"
)

func TestNewRootCmdParsesFlags(t *testing.T) {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--api-key-path", "/tmp/key", "--config", "/tmp/c.yaml", "--mode", "steps", "--model", "gemini-x"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if opts.apiKeyPath != "/tmp/key" {
		t.Fatalf("Expected apiKeyPath=/tmp/key, got %q", opts.apiKeyPath)
	}

	lo := loadOptions(*opts)
	if lo.ConfigFileOverride != "/tmp/c.yaml" || lo.DefaultModeOverride != "steps" || lo.ModelOverride != "gemini-x" {
		t.Errorf("Unexpected load options: %+v", lo)
	}
}

func TestNewRootCmdRejectsUnknownFlag(t *testing.T) {
	cmd := newRootCmd(&mainOptions{})
	if err := cmd.ParseFlags([]string{"--run-once"}); err == nil {
		t.Error("Expected error for unknown flag")
	}
}
