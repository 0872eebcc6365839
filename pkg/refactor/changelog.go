package refactor

import (
	"fmt"
	"strings"
)

// Change is one entry of an engine's change log.
type Change struct {
	// Ordinal is the 1-based position of the entry in the log.
	Ordinal int
	// Kind names the operation, such as "rename_function" or "format".
	Kind        string
	Description string
}

// ChangeLog is the ordered list of changes applied by an Engine.
type ChangeLog []Change

// Len returns the number of changes.
func (l ChangeLog) Len() int { return len(l) }

// Descriptions returns the change descriptions in order.
func (l ChangeLog) Descriptions() []string {
	out := make([]string, len(l))
	for i, c := range l {
		out[i] = c.Description
	}
	return out
}

// String renders the log for humans:
//
//	Made 2 changes:
//	1. Renamed function 'hello' to 'greet'
//	2. Formatted code
func (l ChangeLog) String() string {
	if len(l) == 0 {
		return "No changes made"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Made %d changes:\n", len(l))
	for i, c := range l {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Description)
	}
	return b.String()
}
