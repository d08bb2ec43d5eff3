// Package flatten reduces an HTML document to plain text while keeping a
// per-character mapping back to offsets in the raw HTML source, so that a
// span found in the plain text can be resolved to the exact bytes it came
// from and marked in place.
package flatten

import (
	stdhtml "html"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Span is a half-open [Start, End) byte range, either in plain-text space
// or in HTML-source space depending on where it was produced.
type Span struct {
	Start int
	End   int
}

// Flatten converts HTML into plain text plus a position map. Entry i of the
// map is the byte offset in markup where plain-text byte i originated.
// len(map) always equals len(plain text) and every entry is a valid index
// into markup.
//
// The walk is pre-order in document order, threading a forward-only cursor
// through the raw source. Text inside script and style elements contributes
// nothing to the output but still advances the cursor past its occurrence
// in the source, so text runs after such a block stay aligned.
// Whitespace-only runs advance the cursor by their raw length. Cost is
// O(len(markup)) per text run in the worst case, so quadratic for
// pathological documents.
func Flatten(markup string) (string, []int) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		// Unparseable input degrades to literal text mapped onto itself.
		posMap := make([]int, len(markup))
		for i := range posMap {
			posMap[i] = i
		}
		return markup, posMap
	}

	var plain strings.Builder
	posMap := make([]int, 0, len(markup))
	cursor := 0

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if excludedContainer(n.Parent) {
				cursor = skipRun(markup, n.Data, cursor)
			} else {
				cursor = appendRun(markup, n.Data, cursor, &plain, &posMap)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return plain.String(), posMap
}

// excludedContainer reports whether a text node's immediate parent is one of
// the non-rendering containers whose content never appears as visible text.
func excludedContainer(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style:
		return true
	}
	return false
}

// skipRun advances the cursor past the raw occurrence of an excluded
// (script/style) text run without emitting anything. Leaving the cursor
// before the run would let later visible text match inside the skipped
// block; that choice is pinned by a regression test.
func skipRun(markup, content string, cursor int) int {
	if content == "" {
		return cursor
	}
	pos, run := scanForward(markup, content, cursor)
	if pos < 0 {
		pos, run = scanForward(markup, strings.TrimSpace(content), cursor)
		if pos < 0 {
			return cursor + len(content)
		}
	}
	return pos + len(run)
}

// appendRun locates one text node's content in the raw source at or after
// cursor, appends it to the plain text with per-byte source offsets, and
// returns the advanced cursor.
func appendRun(markup, content string, cursor int, plain *strings.Builder, posMap *[]int) int {
	if strings.TrimSpace(content) == "" {
		// Whitespace between tags: no visible text, just raw length.
		return cursor + len(content)
	}

	pos, run := scanForward(markup, content, cursor)
	if pos < 0 {
		// Retry with the trimmed form; parsers normalize edge whitespace
		// that the serialized source may not carry.
		run = strings.TrimSpace(content)
		pos, run = scanForward(markup, run, cursor)
		if pos < 0 {
			// Nothing recognizable ahead of the cursor. Map the run to the
			// cursor position, clamped so every entry stays a valid index.
			pos = cursor
			if pos >= len(markup) {
				pos = len(markup) - 1
			}
			if pos < 0 {
				pos = 0
			}
		}
	}

	for i := 0; i < len(run); i++ {
		plain.WriteByte(run[i])
		// The fallback run may be longer than the source left past pos, so
		// every entry is clamped to keep the map valid.
		*posMap = append(*posMap, clamp(pos+i, 0, len(markup)-1))
	}
	return pos + len(run)
}

// textEscaper escapes the characters a serializer always escapes in text
// content. Quotes usually appear literally in source text, so the full
// five-character escape is only a fallback.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// scanForward finds the first offset >= from where an escaped form of
// content begins, or -1. The content itself is returned unchanged so callers
// can substitute the trimmed variant on retry.
func scanForward(markup, content string, from int) (int, string) {
	if from < 0 {
		from = 0
	}
	if from > len(markup) {
		return -1, content
	}
	for _, needle := range []string{
		textEscaper.Replace(content),
		stdhtml.EscapeString(content),
		content,
	} {
		if idx := strings.Index(markup[from:], needle); idx >= 0 {
			return from + idx, content
		}
	}
	return -1, content
}

// Remap converts a plain-text span to HTML-source offsets via the position
// map and returns the literal source slice between them. Both indices are
// clamped into [0, len(posMap)-1] first, so a locator that lands exactly on
// the end of the text cannot index out of range; the price is that a span
// may come back degenerate (End <= Start), which callers must treat as no
// placement.
func Remap(posMap []int, markup string, start, end int) (Span, string, bool) {
	if len(posMap) == 0 {
		return Span{}, "", false
	}
	start = clamp(start, 0, len(posMap)-1)
	end = clamp(end, 0, len(posMap)-1)
	span := Span{Start: posMap[start], End: posMap[end]}
	if span.Start < 0 || span.End > len(markup) || span.End <= span.Start {
		return span, "", false
	}
	return span, markup[span.Start:span.End], true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

const (
	startMarker = `<span data-omnivore-highlight-start="true"></span>`
	endMarker   = `<span data-omnivore-highlight-end="true"></span>`
)

// InjectMarkers returns markup with a zero-width start marker inserted
// before span.Start and a matching end marker at span.End. Bytes inside and
// outside the span are untouched. Degenerate or out-of-range spans return
// the markup unchanged.
//
// Placing several spans into one document must be done strictly one at a
// time, re-running flattening and matching against each result: every
// insertion shifts all later offsets, so offsets computed against an older
// copy of the document are invalid.
func InjectMarkers(markup string, span Span) string {
	if span.Start < 0 || span.End > len(markup) || span.End <= span.Start {
		return markup
	}
	var b strings.Builder
	b.Grow(len(markup) + len(startMarker) + len(endMarker))
	b.WriteString(markup[:span.Start])
	b.WriteString(startMarker)
	b.WriteString(markup[span.Start:span.End])
	b.WriteString(endMarker)
	b.WriteString(markup[span.End:])
	return b.String()
}
