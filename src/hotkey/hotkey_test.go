package hotkey

import (
	"reflect"
	"testing"
)

func TestKeyNameToRawcodes(t *testing.T) {
	tests := []struct {
		keyName  string
		expected []uint16
	}{
		{"ctrl", []uint16{162, 163}},
		{"alt", []uint16{164, 165}},
		{"shift", []uint16{160, 161}},
		{"cmd", []uint16{91, 92}},
		{"a", []uint16{65}},
		{"m", []uint16{77}},
		{"Z", []uint16{90}},
		{"0", []uint16{48}},
		{"9", []uint16{57}},
		{"f1", []uint16{112}},
		{"f12", []uint16{123}},
		{"f24", []uint16{135}},
		{"f25", nil},
		{"space", []uint16{32}},
		{"esc", []uint16{27}},
		{"unknown", nil},
	}

	for _, tt := range tests {
		t.Run(tt.keyName, func(t *testing.T) {
			if got := keyNameToRawcodes(tt.keyName); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("keyNameToRawcodes(%q) = %v, expected %v", tt.keyName, got, tt.expected)
			}
		})
	}
}

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Ctrl+Alt+M", []string{"ctrl", "alt", "m"}},
		{"Alt+F4", []string{"alt", "f4"}},
		{"Ctrl+Win+E", []string{"ctrl", "cmd", "e"}},
		{"Super + Shift + S", []string{"cmd", "shift", "s"}},
		{"Control+Q", []string{"ctrl", "q"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseHotkey(tt.input); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("parseHotkey(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestComboFiresOncePerPress(t *testing.T) {
	c, err := newCombo("Ctrl+Alt+M")
	if err != nil {
		t.Fatal(err)
	}

	if c.keyDown(162) || c.keyDown(165) {
		t.Fatal("combination must not fire before all keys are held")
	}
	if !c.keyDown(77) {
		t.Fatal("expected combination to fire")
	}
	if c.keyDown(77) {
		t.Fatal("combination must reset after firing")
	}

	c.keyUp(77)
	c.keyDown(162)
	c.keyDown(164)
	c.keyUp(164)
	if c.keyDown(77) {
		t.Fatal("released modifier must not count")
	}
}

func TestNewComboRejectsUnknownKeys(t *testing.T) {
	if _, err := newCombo("Ctrl+Hyper"); err == nil {
		t.Error("expected error for unmapped key")
	}
	if _, err := newCombo(""); err == nil {
		t.Error("expected error for empty hotkey")
	}
}
