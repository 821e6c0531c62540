// Package anchor captures and relocates content-based fingerprints of line
// ranges. An anchor records the exact text of a selection plus one line of
// surrounding context, so the selection can be found again after unrelated
// edits move it.
package anchor

import "strings"

// Anchor is a relocatable fingerprint of a line range in a document.
type Anchor struct {
	Before   string `json:"before"`
	Selected string `json:"selected"`
	After    string `json:"after"`
}

// Range is a 1-based, inclusive line range.
type Range struct {
	StartLine int
	EndLine   int
}

// Capture extracts an anchor for lines [startLine, endLine] of content.
// The pair is normalized so start <= end and both are clamped into the
// document; an empty document is treated as one empty line. Capture never
// fails, but callers must reject the result if Selected trims to empty.
func Capture(content string, startLine, endLine int) Anchor {
	lines := strings.Split(content, "\n")

	if startLine > endLine {
		startLine, endLine = endLine, startLine
	}
	startLine = clamp(startLine, 1, len(lines))
	endLine = clamp(endLine, 1, len(lines))

	var before, after string
	if startLine >= 2 {
		before = lines[startLine-2]
	}
	if endLine < len(lines) {
		after = lines[endLine]
	}

	return Anchor{
		Before:   before,
		Selected: strings.Join(lines[startLine-1:endLine], "\n"),
		After:    after,
	}
}

// Valid reports whether the anchor carries a usable fingerprint.
func (a Anchor) Valid() bool {
	return strings.TrimSpace(a.Selected) != ""
}

// Locate finds the anchored text in content and returns its current line
// range. The second return is false when the anchor is empty or the text no
// longer appears verbatim. The first occurrence wins; the context lines are
// not consulted for disambiguation.
func Locate(a Anchor, content string) (Range, bool) {
	if a.Selected == "" {
		return Range{}, false
	}

	idx := strings.Index(content, a.Selected)
	if idx < 0 {
		return Range{}, false
	}

	start := strings.Count(content[:idx], "\n") + 1
	end := start + strings.Count(a.Selected, "\n")
	return Range{StartLine: start, EndLine: end}, true
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
