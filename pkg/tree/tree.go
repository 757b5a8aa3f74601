// Package tree renders the ASCII project tree embedded as the first
// document of every generated context.
package tree

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctxpack/ctxpack-cli/pkg/files"
)

const (
	branchMid  = "├── "
	branchLast = "└── "
	indentBar  = "│   "
	indentNone = "    "
)

// Generate walks root under policy and renders it as a tree. The output is
// recomputed from scratch on every call: the root's base name on the first
// line, then one line per kept entry, children sorted by full path. Lines
// are joined with "\n" without a trailing newline.
func Generate(root string, policy *files.IgnorePolicy) (string, error) {
	root = policy.Resolve(root)

	children := make(map[string][]string)
	err := policy.Walk(root, func(path string, d fs.DirEntry) error {
		parent := filepath.Dir(path)
		children[parent] = append(children[parent], path)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to scan project tree: %w", err)
	}

	for _, list := range children {
		sort.Strings(list)
	}

	lines := []string{displayName(root)}
	render(root, "", children, &lines)

	return strings.Join(lines, "\n"), nil
}

func render(dir, prefix string, children map[string][]string, lines *[]string) {
	list := children[dir]
	for i, child := range list {
		last := i == len(list)-1

		branch := branchMid
		if last {
			branch = branchLast
		}
		*lines = append(*lines, prefix+branch+filepath.Base(child))

		if _, ok := children[child]; ok {
			next := prefix + indentBar
			if last {
				next = prefix + indentNone
			}
			render(child, next, children, lines)
		}
	}
}

func displayName(root string) string {
	name := filepath.Base(root)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return root
	}
	return name
}
