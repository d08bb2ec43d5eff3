package flatten

import (
	"strings"

	"golang.org/x/net/html"
)

// Clean standardizes an HTML fragment before it is stored: the content is
// wrapped in html/body, comments are dropped, data-* attributes are
// stripped, and the tree is reserialized. Input that cannot be parsed is
// returned wrapped but otherwise untouched.
func Clean(fragment string) string {
	wrapped := "<html><body>" + fragment + "</body></html>"
	doc, err := html.Parse(strings.NewReader(wrapped))
	if err != nil {
		return wrapped
	}

	scrub(doc)

	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		return wrapped
	}
	return b.String()
}

// scrub removes comment nodes and data-* attributes in place.
func scrub(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			scrub(c)
		}
		c = next
	}
	if n.Type != html.ElementNode || len(n.Attr) == 0 {
		return
	}
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if strings.HasPrefix(a.Key, "data-") {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}
