package files

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/ctxpack/ctxpack-cli/pkg/models"
)

const (
	gitDir        = ".git"
	gitIgnoreFile = ".gitignore"
)

// IgnorePolicy decides which filesystem entries exist as far as the
// enumerator and the tree renderer are concerned. Both go through Walk so
// selection and rendering never disagree.
type IgnorePolicy struct {
	Root          string
	Hidden        bool
	GitIgnore     bool
	DependencyDir string

	patterns []string
	exclude  []glob.Glob
}

// NewIgnorePolicy builds a policy rooted at root from settings. Relative
// roots are made absolute.
func NewIgnorePolicy(root string, settings models.IgnoreSettings) (*IgnorePolicy, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	p := &IgnorePolicy{
		Root:          filepath.Clean(absRoot),
		Hidden:        settings.Hidden,
		GitIgnore:     settings.GitIgnore,
		DependencyDir: settings.DependencyDir,
	}

	for _, pattern := range settings.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		p.patterns = append(p.patterns, pattern)
		p.exclude = append(p.exclude, g)
	}

	return p, nil
}

// Patterns returns the exclude globs the policy was built with
func (p *IgnorePolicy) Patterns() []string {
	return append([]string(nil), p.patterns...)
}

// Resolve turns a user supplied path into a clean absolute path, relative
// paths being taken from Root.
func (p *IgnorePolicy) Resolve(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.Root, path)
	}
	return filepath.Clean(path)
}

// Key returns the normalized selection key for an absolute path: the slash
// separated path relative to Root when inside it, the absolute slash path
// otherwise.
func (p *IgnorePolicy) Key(abs string) string {
	if rel, ok := p.relative(abs); ok {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(filepath.Clean(abs))
}

// Abs is the inverse of Key
func (p *IgnorePolicy) Abs(key string) string {
	return p.Resolve(filepath.FromSlash(key))
}

func (p *IgnorePolicy) relative(abs string) (string, bool) {
	rel, err := filepath.Rel(p.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// WalkFunc receives every entry kept by the policy
type WalkFunc func(path string, d fs.DirEntry) error

// Walk visits every non-ignored entry below start in lexical order.
// Ignored directories are pruned along with their contents. start itself
// is not passed to fn. Unreadable subdirectories are skipped.
func (p *IgnorePolicy) Walk(start string, fn WalkFunc) error {
	start = p.Resolve(start)
	matchers := newMatcherCache(p)

	return filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == start {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == start {
			return nil
		}

		if p.skip(path, d.IsDir(), matchers, start) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		return fn(path, d)
	})
}

// Ignored reports whether an explicitly named path, or any directory
// between it and Root, is excluded by the policy.
func (p *IgnorePolicy) Ignored(path string, isDir bool) bool {
	abs := p.Resolve(path)
	matchers := newMatcherCache(p)

	base := p.Root
	if _, ok := p.relative(abs); !ok {
		base = filepath.Dir(abs)
	}

	// check every ancestor below base, then the path itself
	var chain []string
	for dir := filepath.Dir(abs); dir != base && len(dir) > len(base); dir = filepath.Dir(dir) {
		chain = append([]string{dir}, chain...)
	}
	for _, dir := range chain {
		if p.skip(dir, true, matchers, base) {
			return true
		}
	}
	if abs == base {
		return false
	}
	return p.skip(abs, isDir, matchers, base)
}

func (p *IgnorePolicy) skip(path string, isDir bool, matchers *matcherCache, start string) bool {
	name := filepath.Base(path)

	if isDir && name == gitDir {
		return true
	}
	if p.Hidden && strings.HasPrefix(name, ".") {
		return true
	}
	if isDir && p.DependencyDir != "" && name == p.DependencyDir {
		return true
	}
	if p.GitIgnore && matchers.ignored(path, isDir, start) {
		return true
	}
	return p.excluded(path)
}

func (p *IgnorePolicy) excluded(path string) bool {
	if len(p.exclude) == 0 {
		return false
	}
	name := filepath.Base(path)
	target := filepath.ToSlash(path)
	if rel, ok := p.relative(path); ok {
		target = filepath.ToSlash(rel)
	}
	for _, g := range p.exclude {
		if g.Match(target) || g.Match(name) {
			return true
		}
	}
	return false
}

// matcherCache lazily compiles the .gitignore files found on the way down.
// It lives for a single Walk so edits between walks are picked up.
type matcherCache struct {
	policy *IgnorePolicy
	byDir  map[string][]*gitignore.GitIgnore
}

func newMatcherCache(p *IgnorePolicy) *matcherCache {
	return &matcherCache{policy: p, byDir: make(map[string][]*gitignore.GitIgnore)}
}

func (c *matcherCache) load(dir string) []*gitignore.GitIgnore {
	if m, ok := c.byDir[dir]; ok {
		return m
	}

	var loaded []*gitignore.GitIgnore
	if gi, err := gitignore.CompileIgnoreFile(filepath.Join(dir, gitIgnoreFile)); err == nil {
		loaded = append(loaded, gi)
	}
	if dir == c.policy.Root {
		exclude := filepath.Join(dir, gitDir, "info", "exclude")
		if _, err := os.Stat(exclude); err == nil {
			if gi, err := gitignore.CompileIgnoreFile(exclude); err == nil {
				loaded = append(loaded, gi)
			}
		}
	}

	c.byDir[dir] = loaded
	return loaded
}

// ignored applies every .gitignore from the top directory (Root when path
// is inside it, start otherwise) down to path's parent.
func (c *matcherCache) ignored(path string, isDir bool, start string) bool {
	top := start
	if _, ok := c.policy.relative(path); ok {
		top = c.policy.Root
	}

	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		rel, err := filepath.Rel(dir, path)
		if err == nil {
			rel = filepath.ToSlash(rel)
			if isDir {
				rel += "/"
			}
			for _, gi := range c.load(dir) {
				if gi.MatchesPath(rel) {
					return true
				}
			}
		}
		if dir == top || len(dir) <= len(top) || dir == filepath.Dir(dir) {
			break
		}
	}
	return false
}
