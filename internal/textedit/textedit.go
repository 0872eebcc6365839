// Package textedit applies queued byte-range edits to a source text.
package textedit

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aymanbagabas/go-udiff"
)

// ErrInvalidEdit is returned when a queued edit lies outside the text or
// overlaps another edit.
var ErrInvalidEdit = errors.New("invalid edit")

// A Buffer is a queue of edits to apply to an original text.
// Offsets always refer to the original text, regardless of
// how many edits have been queued.
type Buffer struct {
	old string
	q   []udiff.Edit
}

// NewBuffer returns a Buffer that edits text.
func NewBuffer(text string) *Buffer {
	return &Buffer{old: text}
}

// Insert queues an insertion of new at pos.
func (b *Buffer) Insert(pos int, new string) {
	b.Replace(pos, pos, new)
}

// Delete queues a deletion of [start, end).
func (b *Buffer) Delete(start, end int) {
	b.Replace(start, end, "")
}

// Replace queues a replacement of [start, end) with new.
func (b *Buffer) Replace(start, end int, new string) {
	b.q = append(b.q, udiff.Edit{Start: start, End: end, New: new})
}

// Len reports the number of queued edits.
func (b *Buffer) Len() int {
	return len(b.q)
}

// Edits returns a copy of the queued edits in queue order.
func (b *Buffer) Edits() []udiff.Edit {
	return append([]udiff.Edit(nil), b.q...)
}

// Apply returns the original text with all queued edits applied.
// Insertions at the same offset are applied in queue order.
func (b *Buffer) Apply() (string, error) {
	out, err := udiff.Apply(b.old, b.q)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEdit, err)
	}
	return out, nil
}

// Lines maps between byte offsets and 1-based line numbers of a text.
type Lines struct {
	text   string
	starts []int
}

// NewLines indexes the line starts of text.
func NewLines(text string) *Lines {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	// A trailing newline does not open another line.
	if len(starts) > 1 && starts[len(starts)-1] == len(text) {
		starts = starts[:len(starts)-1]
	}
	return &Lines{text: text, starts: starts}
}

// Count returns the number of lines in the text. Empty text has zero lines.
func (l *Lines) Count() int {
	if l.text == "" {
		return 0
	}
	return len(l.starts)
}

// Start returns the byte offset of the first byte of line n.
func (l *Lines) Start(n int) int {
	return l.starts[n-1]
}

// End returns the byte offset just past line n, including its newline.
func (l *Lines) End(n int) int {
	if n < len(l.starts) {
		return l.starts[n]
	}
	return len(l.text)
}

// LineOf returns the 1-based line containing byte offset pos.
func (l *Lines) LineOf(pos int) int {
	return sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > pos })
}

// Indent returns the leading whitespace of the line containing pos.
func (l *Lines) Indent(pos int) string {
	start := l.starts[l.LineOf(pos)-1]
	end := start
	for end < len(l.text) && (l.text[end] == ' ' || l.text[end] == '\t') {
		end++
	}
	return l.text[start:end]
}

// Reindent prefixes every line of text after the first with indent.
// Blank lines are left empty.
func Reindent(text, indent string) string {
	if indent == "" || !strings.Contains(text, "\n") {
		return text
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

// Dedent removes the longest common leading whitespace from all non-blank lines.
func Dedent(text string) string {
	lines := strings.Split(text, "\n")
	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ws := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix = ws
			first = false
			continue
		}
		for !strings.HasPrefix(ws, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	if prefix == "" {
		return text
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}
