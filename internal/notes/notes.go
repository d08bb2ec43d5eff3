// Package notes parses the highlight note-file format: blocks separated by
// blank lines, where a block starting with '>' is a quoted excerpt, a block
// starting with '#' is a label for the preceding excerpt, and anything else
// is free-form note text.
package notes

import (
	"os"
	"regexp"
	"strings"
)

// Record is one highlighted quotation with its attached labels and notes,
// in the order they appeared in the note file.
type Record struct {
	Quote  string
	Labels []string
	Notes  string
}

// Document is the parse result for one note file: an optional article-level
// note plus the excerpt records in source order.
type Document struct {
	ArticleNote string
	Highlights  []Record
}

var blockSplitRe = regexp.MustCompile(`\n{2,}`)

// Parse splits the note text into blocks and assembles excerpt records.
//
// A quote block flushes the current record and starts a new one; its quote
// is every line with the leading '>' marker and surrounding whitespace
// stripped, rejoined with newlines. A label block attaches to the current
// record ('#' markers stripped) and is dropped when no record exists yet.
// Any other block is note text: blank-line-joined onto the current record,
// or onto the article-level note when no record has started. Empty input
// parses to an empty Document.
func Parse(content string) Document {
	var doc Document
	var current *Record

	flush := func() {
		if current != nil {
			doc.Highlights = append(doc.Highlights, *current)
			current = nil
		}
	}

	for _, block := range blockSplitRe.Split(strings.TrimSpace(content), -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")

		switch {
		case strings.HasPrefix(lines[0], ">"):
			flush()
			quoted := make([]string, 0, len(lines))
			for _, line := range lines {
				quoted = append(quoted, strings.TrimSpace(strings.TrimLeft(line, "> ")))
			}
			current = &Record{Quote: strings.Join(quoted, "\n")}

		case strings.HasPrefix(lines[0], "#"):
			if current != nil {
				label := strings.TrimSpace(strings.TrimLeft(lines[0], "#"))
				current.Labels = append(current.Labels, label)
			}
			// No record to attach to: the label block is dropped.

		default:
			if current == nil {
				doc.ArticleNote = appendNote(doc.ArticleNote, block)
			} else {
				current.Notes = appendNote(current.Notes, block)
			}
		}
	}
	flush()
	return doc
}

// ParseFile reads and parses a note file. A missing file is not an error:
// it yields an empty Document.
func ParseFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, nil
		}
		return Document{}, err
	}
	return Parse(string(data)), nil
}

func appendNote(existing, block string) string {
	if existing == "" {
		return block
	}
	return existing + "\n\n" + block
}
