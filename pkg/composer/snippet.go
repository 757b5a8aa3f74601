// Package composer turns the selected files and the project tree into the
// single XML document handed to the model.
package composer

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	// TreeKey is the cache key of the synthetic project tree entry. A NUL
	// byte cannot appear in a filesystem path, so it never collides with a
	// selected file.
	TreeKey = "\x00tree"

	// TreeSource is the name the tree entry is shown under in the document
	TreeSource = "project-tree-structure.txt"

	placeholderIndex = 0
)

// Snippet is one rendered document fragment. Text carries a placeholder
// index which Merge rewrites.
type Snippet struct {
	Key    string
	Source string
	Text   string
	Size   int
}

// IsTree reports whether s is the project tree entry
func (s Snippet) IsTree() bool {
	return s.Key == TreeKey
}

// RenderSnippet wraps content into a document fragment. Content is kept
// verbatim and newline terminated; the source is XML escaped.
func RenderSnippet(key, source, content string) Snippet {
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<document index=\"%d\">\n", placeholderIndex)
	b.WriteString("<source>")
	b.WriteString(escapeText(source))
	b.WriteString("</source>\n")
	b.WriteString("<document_content>\n")
	b.WriteString(content)
	b.WriteString("</document_content>\n")
	b.WriteString("</document>")

	return Snippet{
		Key:    key,
		Source: source,
		Text:   b.String(),
		Size:   len(content),
	}
}

// TreeSnippet renders the project tree as the synthetic tree entry
func TreeSnippet(tree string) Snippet {
	return RenderSnippet(TreeKey, TreeSource, tree)
}

func escapeText(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
