package composer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxpack/ctxpack-cli/pkg/files"
	"github.com/ctxpack/ctxpack-cli/pkg/models"
)

func TestRenderSnippet(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		content string
		want    string
		size    int
	}{
		{
			name:    "content without trailing newline",
			source:  "a.txt",
			content: "alpha",
			want:    "<document index=\"0\">\n<source>a.txt</source>\n<document_content>\nalpha\n</document_content>\n</document>",
			size:    6,
		},
		{
			name:    "content with trailing newline",
			source:  "a.txt",
			content: "alpha\n",
			want:    "<document index=\"0\">\n<source>a.txt</source>\n<document_content>\nalpha\n</document_content>\n</document>",
			size:    6,
		},
		{
			name:    "empty content",
			source:  "empty.txt",
			content: "",
			want:    "<document index=\"0\">\n<source>empty.txt</source>\n<document_content>\n</document_content>\n</document>",
			size:    0,
		},
		{
			name:    "source is escaped, content is not",
			source:  "a&b<c>.txt",
			content: "if a < b && c > d {}",
			want:    "<document index=\"0\">\n<source>a&amp;b&lt;c&gt;.txt</source>\n<document_content>\nif a < b && c > d {}\n</document_content>\n</document>",
			size:    21,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := RenderSnippet(tt.source, tt.source, tt.content)
			assert.Equal(t, tt.want, s.Text)
			assert.Equal(t, tt.source, s.Key)
			assert.Equal(t, tt.size, s.Size)
			assert.False(t, s.IsTree())
		})
	}
}

func TestTreeSnippet(t *testing.T) {
	s := TreeSnippet("proj\n└── a.txt")

	assert.True(t, s.IsTree())
	assert.Equal(t, TreeKey, s.Key)
	assert.Contains(t, s.Text, "<source>project-tree-structure.txt</source>")
	assert.Contains(t, s.Text, "proj\n└── a.txt\n</document_content>")
}

func TestMergeDocument(t *testing.T) {
	cache := NewCache()
	cache.Add(RenderSnippet("b.txt", "b.txt", "beta"))
	cache.Add(TreeSnippet("proj\n├── a.txt\n└── b.txt"))
	cache.Add(RenderSnippet("a.txt", "a.txt", "alpha"))

	expected := "<documents>\n" +
		"<document index=\"1\">\n<source>project-tree-structure.txt</source>\n<document_content>\nproj\n├── a.txt\n└── b.txt\n</document_content>\n</document>\n" +
		"<document index=\"2\">\n<source>a.txt</source>\n<document_content>\nalpha\n</document_content>\n</document>\n" +
		"<document index=\"3\">\n<source>b.txt</source>\n<document_content>\nbeta\n</document_content>\n</document>\n" +
		"</documents>"

	assert.Equal(t, expected, Merge(cache, ""))
}

func TestMergeIsIndependentOfInsertionOrder(t *testing.T) {
	snippets := []Snippet{
		TreeSnippet("proj"),
		RenderSnippet("z/last.go", "z/last.go", "package z"),
		RenderSnippet("a.txt", "a.txt", "alpha"),
		RenderSnippet("m/mid.md", "m/mid.md", "# mid"),
		RenderSnippet("/abs/outside.txt", "/abs/outside.txt", "outside"),
	}

	forward := NewCache()
	forward.Add(snippets...)

	backward := NewCache()
	for i := len(snippets) - 1; i >= 0; i-- {
		backward.Add(snippets[i])
	}

	// re-adding an entry must not change numbering either
	backward.Add(snippets[2])

	first := Merge(forward, "")
	second := Merge(backward, "")

	assert.Equal(t, first, second)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, DocumentIndices(first))

	order := []string{"project-tree-structure.txt", "/abs/outside.txt", "a.txt", "m/mid.md", "z/last.go"}
	last := -1
	for _, src := range order {
		pos := strings.Index(first, "<source>"+src+"</source>")
		require.NotEqual(t, -1, pos, src)
		assert.Greater(t, pos, last, src)
		last = pos
	}
}

func TestMergeWithoutTreeStartsFilesAtTwo(t *testing.T) {
	cache := NewCache()
	cache.Add(RenderSnippet("b.txt", "b.txt", "beta"))
	cache.Add(RenderSnippet("a.txt", "a.txt", "alpha"))

	assert.Equal(t, []int{2, 3}, DocumentIndices(Merge(cache, "")))
}

func TestMergeInstruction(t *testing.T) {
	cache := NewCache()
	cache.Add(TreeSnippet("proj"))

	doc := Merge(cache, "Explain X\nAlso Y")
	assert.True(t, strings.HasSuffix(doc, "</document>\n<instruction>\nExplain X\nAlso Y\n</instruction>\n</documents>"))

	assert.NotContains(t, Merge(cache, ""), "<instruction>")
}

func TestMergeEmptyCache(t *testing.T) {
	assert.Equal(t, "<documents>\n</documents>", Merge(NewCache(), ""))
}

func TestReindexFragment(t *testing.T) {
	fragment := RenderSnippet("x.xml", "x.xml", `<item index="9"/>`).Text

	out := ReindexFragment(fragment, 7)

	n, ok := fragmentIndex(out)
	require.True(t, ok)
	assert.Equal(t, 7, n)
	assert.Contains(t, out, `<item index="9"/>`)
	assert.Equal(t, fragment[len(`<document index="0">`):], out[len(`<document index="7">`):])

	assert.Equal(t, "no attribute here", ReindexFragment("no attribute here", 3))

	_, ok = fragmentIndex("no attribute here")
	assert.False(t, ok)
}

func TestCache(t *testing.T) {
	cache := NewCache()
	cache.Add(RenderSnippet("b.txt", "b.txt", "beta"), TreeSnippet("proj"), RenderSnippet("a.txt", "a.txt", "alpha"))

	assert.Equal(t, 3, cache.Len())
	assert.Equal(t, []string{TreeKey, "a.txt", "b.txt"}, cache.Keys())

	cache.Add(RenderSnippet("a.txt", "a.txt", "changed"))
	s, ok := cache.Get("a.txt")
	require.True(t, ok)
	assert.Contains(t, s.Text, "changed")
	assert.Equal(t, 3, cache.Len())

	clone := cache.Clone()
	clone.Remove("a.txt", "missing.txt")
	assert.Equal(t, 2, clone.Len())
	assert.Equal(t, 3, cache.Len(), "clone must not share storage")

	files := cache.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].Key)
	assert.Equal(t, "b.txt", files[1].Key)

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	_, ok = cache.Get(TreeKey)
	assert.False(t, ok)
}

func readFixture(t *testing.T) *files.IgnorePolicy {
	t.Helper()
	root := t.TempDir()
	for name, content := range map[string]string{
		"a.txt":       "alpha",
		"src/main.go": "package main\n",
		"c.txt":       "gamma",
	} {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	policy, err := files.NewIgnorePolicy(root, models.DefaultSettings().Ignore)
	require.NoError(t, err)
	return policy
}

func TestReadSnippets(t *testing.T) {
	policy := readFixture(t)

	for _, workers := range []int{1, 4, 0} {
		snippets, err := ReadSnippets(context.Background(), policy, []string{"src/main.go", "gone.txt", "a.txt", "c.txt"}, workers, nil)
		require.NoError(t, err)
		require.Len(t, snippets, 4)

		keys := make([]string, len(snippets))
		for i, s := range snippets {
			keys[i] = s.Key
		}
		assert.Equal(t, []string{"a.txt", "c.txt", "gone.txt", "src/main.go"}, keys)

		assert.Contains(t, snippets[0].Text, "\nalpha\n</document_content>")
		assert.Equal(t, 0, snippets[2].Size, "unreadable file degrades to empty content")
		assert.Contains(t, snippets[2].Text, "<document_content>\n</document_content>")
		assert.Contains(t, snippets[3].Text, "package main\n</document_content>")
	}
}

func TestReadSnippetsCancelled(t *testing.T) {
	policy := readFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadSnippets(ctx, policy, []string{"a.txt"}, 2, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
