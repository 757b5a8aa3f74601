package composer

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	documentsOpen    = "<documents>\n"
	documentsClose   = "</documents>"
	instructionOpen  = "<instruction>\n"
	instructionClose = "</instruction>\n"

	// first real file index; the tree always takes 1
	firstFileIndex = 2
)

var indexAttr = regexp.MustCompile(`index="([^"]*)"`)

// Merge builds the document from the cache and the pending instruction.
// The tree entry, when present, is numbered 1 and comes first; files
// follow numbered from 2 in key order. The result depends only on the
// cache's contents, never on insertion order.
func Merge(cache *Cache, instruction string) string {
	var b strings.Builder
	b.WriteString(documentsOpen)

	if tree, ok := cache.Get(TreeKey); ok {
		b.WriteString(ReindexFragment(tree.Text, 1))
		b.WriteString("\n")
	}

	for i, s := range cache.Files() {
		b.WriteString(ReindexFragment(s.Text, firstFileIndex+i))
		b.WriteString("\n")
	}

	if instruction != "" {
		b.WriteString(instructionOpen)
		b.WriteString(instruction)
		if !strings.HasSuffix(instruction, "\n") {
			b.WriteString("\n")
		}
		b.WriteString(instructionClose)
	}

	b.WriteString(documentsClose)
	return b.String()
}

// ReindexFragment replaces the value of the first index attribute in
// fragment. Fragments without one are returned unchanged.
func ReindexFragment(fragment string, index int) string {
	loc := indexAttr.FindStringSubmatchIndex(fragment)
	if loc == nil {
		return fragment
	}
	return fragment[:loc[2]] + strconv.Itoa(index) + fragment[loc[3]:]
}

// fragmentIndex returns the value of the first index attribute in fragment
func fragmentIndex(fragment string) (int, bool) {
	m := indexAttr.FindStringSubmatch(fragment)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// DocumentIndices lists the index of every fragment in a merged document,
// in document order.
func DocumentIndices(document string) []int {
	var out []int
	for _, line := range strings.Split(document, "\n") {
		if !strings.HasPrefix(line, "<document index=") {
			continue
		}
		if n, ok := fragmentIndex(line); ok {
			out = append(out, n)
		}
	}
	return out
}
