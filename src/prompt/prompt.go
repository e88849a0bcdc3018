// Package prompt holds the fixed instructions sent alongside each screenshot.
package prompt

import (
	"fmt"
	"strings"
)

// Mode selects the answer format requested from the model.
type Mode int

const (
	DirectAnswer Mode = iota
	StepByStep
)

const (
	directInstruction = "You are shown a screenshot containing a single math question. " +
		"Ignore everything else on the screen. " +
		"Extract the math problem and return only the final answer. " +
		"Do NOT describe the screen, do NOT explain, do NOT include any extra text."

	stepsInstruction = "You are shown a screenshot containing a single math question. " +
		"Ignore everything else on the screen. " +
		"Extract the math problem and provide step-by-step solution. " +
		"Do NOT describe the screen, do NOT add extra commentary, return only the steps and final answer."
)

// String is the dropdown label.
func (m Mode) String() string {
	switch m {
	case DirectAnswer:
		return "Direct Answer"
	case StepByStep:
		return "Step-by-Step"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Modes lists the selectable modes in dropdown order.
func Modes() []Mode { return []Mode{DirectAnswer, StepByStep} }

// Labels returns the dropdown labels in Modes order.
func Labels() []string {
	modes := Modes()
	labels := make([]string, len(modes))
	for i, m := range modes {
		labels[i] = m.String()
	}
	return labels
}

// ParseMode accepts dropdown labels and the short config/CLI forms.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct answer", "direct", "answer":
		return DirectAnswer, nil
	case "step-by-step", "steps", "step", "stepbystep":
		return StepByStep, nil
	default:
		return DirectAnswer, fmt.Errorf("unknown answer mode %q", s)
	}
}

// Instruction returns the instruction text for m. Anything other than
// DirectAnswer gets the step-by-step template.
func Instruction(m Mode) string {
	if m == DirectAnswer {
		return directInstruction
	}
	return stepsInstruction
}
