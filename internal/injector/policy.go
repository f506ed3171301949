package injector

import (
	"fmt"
	"strings"
)

// ConflictPolicy decides what happens when a target file already exists.
type ConflictPolicy int

const (
	// PolicyAbort fails before writing anything.
	PolicyAbort ConflictPolicy = iota
	// PolicyPrompt asks once whether to overwrite every conflicting file.
	PolicyPrompt
	// PolicySkip keeps existing files and writes only the missing ones.
	PolicySkip
	// PolicyOverwrite replaces existing files without asking.
	PolicyOverwrite
)

var policyNames = map[ConflictPolicy]string{
	PolicyAbort:     "abort",
	PolicyPrompt:    "prompt",
	PolicySkip:      "skip",
	PolicyOverwrite: "overwrite",
}

func (p ConflictPolicy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("ConflictPolicy(%d)", int(p))
}

// PolicyNames lists the accepted spellings, for help text and completion.
func PolicyNames() []string {
	return []string{"abort", "prompt", "skip", "overwrite"}
}

// ParsePolicy converts a flag value into a ConflictPolicy.
func ParsePolicy(s string) (ConflictPolicy, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for p, name := range policyNames {
		if name == want {
			return p, nil
		}
	}
	return PolicyAbort, fmt.Errorf("unknown conflict policy %q (valid: %s)", s, strings.Join(PolicyNames(), ", "))
}

// Confirmer asks the user a yes/no question.
type Confirmer func(question string) (bool, error)
