// Package highlight places markdown excerpts back into the HTML document
// they were quoted from. Each excerpt is rendered to plain text with the
// same markdown conventions as stored content, located in the flattened
// document by fuzzy word-window search, remapped to HTML offsets and marked
// with zero-width boundary spans.
package highlight

import (
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"omniport/internal/flatten"
	"omniport/internal/match"
	"omniport/internal/notes"
)

var mdRenderer = goldmark.New()

// Placement is a resolved excerpt location: the HTML-source span, the
// literal source slice it covers, and the similarity of the match (1.0 for
// an exact occurrence).
type Placement struct {
	Span       flatten.Span
	Source     string
	Similarity float64
}

// Result pairs one excerpt record with its placement outcome. A nil
// Placement means the excerpt was not found above the cutoff and the
// document was left unmarked for it.
type Result struct {
	Record    *notes.Record
	Placement *Placement
}

// NormalizeExcerpt renders a markdown excerpt to HTML and strips the markup
// back off, yielding the plain text the excerpt would have inside stored
// content. Formatting the note-taking side introduced (emphasis, soft
// breaks) therefore cannot defeat matching.
func NormalizeExcerpt(markdown string) string {
	var rendered strings.Builder
	if err := mdRenderer.Convert([]byte(markdown), &rendered); err != nil {
		return strings.TrimSpace(markdown)
	}
	return strings.TrimSpace(collectText(rendered.String()))
}

// collectText concatenates the text content of an HTML fragment in document
// order, skipping script and style subtrees.
func collectText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style:
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}

// Locate finds the best span of markup corresponding to the markdown
// excerpt. ok is false when nothing at or above cutoff exists; that is an
// expected outcome, not an error.
func Locate(markup, excerptMarkdown string, cutoff float64) (Placement, bool) {
	pattern := NormalizeExcerpt(excerptMarkdown)
	text, posMap := flatten.Flatten(markup)

	start, end, ratio, ok := match.BestSpan(text, pattern, cutoff)
	if !ok {
		return Placement{}, false
	}
	span, source, ok := flatten.Remap(posMap, markup, start, end)
	if !ok {
		return Placement{}, false
	}
	return Placement{Span: span, Source: source, Similarity: ratio}, true
}

// PlaceAll marks every locatable record in the document, strictly in order.
// Each placement is searched against the output of the previous one,
// because every injected marker shifts all later offsets. Records that
// cannot be placed are reported with a nil Placement and leave the document
// untouched; processing continues.
func PlaceAll(markup string, records []notes.Record, cutoff float64) (string, []Result) {
	results := make([]Result, 0, len(records))
	for i := range records {
		rec := &records[i]
		placement, ok := Locate(markup, rec.Quote, cutoff)
		if !ok {
			results = append(results, Result{Record: rec})
			continue
		}
		markup = flatten.InjectMarkers(markup, placement.Span)
		results = append(results, Result{Record: rec, Placement: &placement})
	}
	return markup, results
}
