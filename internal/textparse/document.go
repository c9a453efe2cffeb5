// Package textparse extracts event fields from free text. Each field is
// resolved by an ordered cascade of independent matchers; the first matcher
// that yields a value wins for that field.
package textparse

import (
	"strings"
	"time"
)

// Line is a trimmed, non-empty line of the input with its byte offsets.
type Line struct {
	Text  string
	Start int
	End   int
}

// Document is the read-only view every matcher works from.
type Document struct {
	Text string
	// Lower is Text with ASCII letters folded to lower case. It has the same
	// byte length as Text, so match offsets found in Lower index Text.
	Lower string
	Lines []Line
	Now   time.Time

	// TitleLine is the index into Lines of the heading line, or -1. It is
	// fixed when the document is built.
	TitleLine int
}

// NewDocument splits text into lines and records the reference time used
// for relative dates.
func NewDocument(text string, now time.Time) *Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	doc := &Document{
		Text:      text,
		Lower:     foldASCII(text),
		Now:       now,
		TitleLine: -1,
	}
	offset := 0
	for _, raw := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			lead := strings.Index(raw, trimmed)
			doc.Lines = append(doc.Lines, Line{
				Text:  trimmed,
				Start: offset + lead,
				End:   offset + lead + len(trimmed),
			})
		}
		offset += len(raw)
	}
	doc.TitleLine = titleLineIndex(doc.Lines)
	return doc
}

// foldASCII lowercases A-Z and leaves every other byte alone.
// strings.ToLower can change the byte length of non-ASCII or invalid
// UTF-8 input.
func foldASCII(s string) string {
	i := strings.IndexFunc(s, func(r rune) bool { return r >= 'A' && r <= 'Z' })
	if i < 0 {
		return s
	}
	b := []byte(s)
	for ; i < len(b); i++ {
		if c := b[i]; c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// lineIndexAt returns the index of the line starting at offset, or -1.
func (d *Document) lineIndexAt(offset int) int {
	for i, ln := range d.Lines {
		if ln.Start == offset {
			return i
		}
	}
	return -1
}

// today returns the reference date at midnight in the reference location.
func (d *Document) today() time.Time {
	y, m, day := d.Now.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Now.Location())
}

func span(start, end int) *[2]int {
	return &[2]int{start, end}
}
