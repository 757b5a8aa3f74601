// Package session holds the interactive state: selected files, their
// rendered snippets, the merged document with its token count, the mode
// pair and the pending instruction.
//
// Every operation follows the same discipline. Inputs are snapshotted
// under mu, the expensive work (enumeration, file reads, tree rendering,
// merging, token counting) runs without it, and the results are applied in
// a single critical section. cmdMu keeps operations from interleaving.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ctxpack/ctxpack-cli/pkg/composer"
	"github.com/ctxpack/ctxpack-cli/pkg/files"
	"github.com/ctxpack/ctxpack-cli/pkg/models"
	"github.com/ctxpack/ctxpack-cli/pkg/tree"
	"github.com/ctxpack/ctxpack-cli/pkg/utils"
)

// Options configures a Session
type Options struct {
	Policy    *files.IgnorePolicy
	Tokenizer utils.Tokenizer
	Clipboard utils.Clipboard
	Logger    *slog.Logger

	// Workers bounds concurrent file reads, Sentinel ends multi-line capture
	Workers  int
	Sentinel string
}

// Document is the merged output together with its token count. The two
// are only ever assigned together.
type Document struct {
	Text   string
	Tokens int
}

// FileEntry describes a selected file in a Snapshot
type FileEntry struct {
	Key  string
	Size int
}

// Snapshot is a consistent copy of the session state
type Snapshot struct {
	Selected    []string
	Files       []FileEntry
	CacheKeys   []string
	Document    Document
	Mode        models.Mode
	Editor      models.EditorMode
	Instruction string
	Capture     string
	Excludes    []string
	Encoding    string
}

type Session struct {
	policy    *files.IgnorePolicy
	tokenizer utils.Tokenizer
	clipboard utils.Clipboard
	logger    *slog.Logger
	workers   int
	sentinel  string

	cmdMu sync.Mutex

	mu          sync.Mutex
	selected    map[string]struct{}
	cache       *composer.Cache // replaced on commit, never modified in place
	doc         Document
	mode        models.Mode
	editor      models.EditorMode
	instruction string
	capture     []string
}

// New creates an empty session in manual, single-line mode
func New(opts Options) (*Session, error) {
	if opts.Policy == nil {
		return nil, fmt.Errorf("session requires an ignore policy")
	}
	if opts.Tokenizer == nil {
		return nil, fmt.Errorf("session requires a tokenizer")
	}
	if opts.Clipboard == nil {
		opts.Clipboard = utils.SystemClipboard{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	defaults := models.DefaultSettings()
	if opts.Workers < 1 {
		opts.Workers = defaults.Session.Workers
	}
	if opts.Sentinel == "" {
		opts.Sentinel = defaults.Session.Sentinel
	}

	return &Session{
		policy:    opts.Policy,
		tokenizer: opts.Tokenizer,
		clipboard: opts.Clipboard,
		logger:    opts.Logger,
		workers:   opts.Workers,
		sentinel:  opts.Sentinel,
		selected:  make(map[string]struct{}),
		cache:     composer.NewCache(),
		mode:      models.ModeManual,
		editor:    models.SingleLine,
	}, nil
}

// encodingName returns the encoding of tokenizers that report one
func encodingName(t utils.Tokenizer) string {
	if e, ok := t.(interface{ Encoding() string }); ok {
		return e.Encoding()
	}
	return ""
}

// Root is the directory selections are resolved against
func (s *Session) Root() string {
	return s.policy.Root
}

// Sentinel is the line that commits a multi-line capture
func (s *Session) Sentinel() string {
	return s.sentinel
}

// Modes returns the workflow and editor modes
func (s *Session) Modes() (models.Mode, models.EditorMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode, s.editor
}

// Snapshot copies the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Selected:    sortedKeys(s.selected),
		CacheKeys:   s.cache.Keys(),
		Document:    s.doc,
		Mode:        s.mode,
		Editor:      s.editor,
		Instruction: s.instruction,
		Capture:     strings.Join(s.capture, "\n"),
		Excludes:    s.policy.Patterns(),
		Encoding:    encodingName(s.tokenizer),
	}
	for _, key := range snap.Selected {
		entry := FileEntry{Key: key}
		if sn, ok := s.cache.Get(key); ok {
			entry.Size = sn.Size
		}
		snap.Files = append(snap.Files, entry)
	}
	return snap
}

// Add selects every file the targets resolve to, reads them and rebuilds
// the document. A missing target fails the whole call before anything is
// read. It returns the keys the targets resolved to.
func (s *Session) Add(ctx context.Context, targets ...string) ([]string, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	keys, err := s.resolve(targets)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return keys, nil
	}

	s.mu.Lock()
	selected := cloneSet(s.selected)
	next := s.cache.Clone()
	instruction := s.instruction
	s.mu.Unlock()

	snippets, err := composer.ReadSnippets(ctx, s.policy, keys, s.workers, s.logger)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		selected[k] = struct{}{}
	}
	next.Add(snippets...)
	s.refreshTree(next)

	doc, err := s.rebuild(next, instruction)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.selected = selected
	s.cache = next
	s.doc = doc
	s.mu.Unlock()

	s.logger.Debug("files added", "targets", targets, "resolved", len(keys), "selected", len(selected))
	return keys, nil
}

// Remove deselects the files the targets denote. A target that no longer
// exists on disk still removes matching selected keys; it only fails with
// ErrPathNotFound when nothing matches. It returns the removed keys.
func (s *Session) Remove(ctx context.Context, targets ...string) ([]string, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	selected := cloneSet(s.selected)
	next := s.cache.Clone()
	instruction := s.instruction
	s.mu.Unlock()

	removed := make(map[string]struct{})
	for _, target := range targets {
		matched, err := s.matchSelected(target, selected)
		if err != nil {
			return nil, err
		}
		for _, k := range matched {
			removed[k] = struct{}{}
		}
	}

	keys := sortedKeys(removed)
	if len(keys) == 0 {
		return keys, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, k := range keys {
		delete(selected, k)
	}
	next.Remove(keys...)
	s.refreshTree(next)

	doc, err := s.rebuild(next, instruction)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.selected = selected
	s.cache = next
	s.doc = doc
	s.mu.Unlock()

	s.logger.Debug("files removed", "targets", targets, "removed", len(keys), "selected", len(selected))
	return keys, nil
}

// Reset clears the selection, cache, document and instruction at once
func (s *Session) Reset() {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	s.selected = make(map[string]struct{})
	s.cache = composer.NewCache()
	s.doc = Document{}
	s.instruction = ""
	s.mu.Unlock()

	s.logger.Debug("session reset")
}

// Copy re-reads every selected file, regenerates the tree, rebuilds and
// counts the document, commits it and then writes it to the clipboard. A
// clipboard failure is returned wrapped in ErrClipboard after the commit.
func (s *Session) Copy(ctx context.Context) (Document, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	keys := sortedKeys(s.selected)
	instruction := s.instruction
	s.mu.Unlock()

	snippets, err := composer.ReadSnippets(ctx, s.policy, keys, s.workers, s.logger)
	if err != nil {
		return Document{}, err
	}

	next := composer.NewCache()
	next.Add(snippets...)
	s.refreshTree(next)

	doc, err := s.rebuild(next, instruction)
	if err != nil {
		return Document{}, err
	}

	s.mu.Lock()
	s.cache = next
	s.doc = doc
	s.mu.Unlock()

	if err := s.clipboard.WriteAll(doc.Text); err != nil {
		s.logger.Warn("clipboard write failed", "error", err)
		return doc, fmt.Errorf("%w: %v", ErrClipboard, err)
	}

	s.logger.Debug("document copied", "files", len(keys), "tokens", doc.Tokens)
	return doc, nil
}

// SetMode switches the workflow. It reports whether the mode changed.
func (s *Session) SetMode(mode models.Mode) bool {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == mode {
		return false
	}
	s.mode = mode
	s.editor = models.SingleLine
	s.capture = nil
	return true
}

// Compose starts instruction editing. In manual mode it only switches to
// prompt mode and reports switched. In prompt mode it enters multi-line
// capture seeded with the pending instruction.
func (s *Session) Compose() (switched bool) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == models.ModeManual {
		s.mode = models.ModePrompt
		s.editor = models.SingleLine
		return true
	}

	s.editor = models.MultiLine
	s.capture = nil
	if s.instruction != "" {
		s.capture = strings.Split(s.instruction, "\n")
	}
	return false
}

// AppendInstruction adds a line to the pending instruction, separated by a
// newline when it is not empty, and rebuilds the document.
func (s *Session) AppendInstruction(ctx context.Context, text string) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	instruction := s.instruction
	s.mu.Unlock()

	if instruction != "" {
		instruction += "\n"
	}
	return s.setInstruction(ctx, instruction+text, false)
}

// ClearInstruction drops the pending instruction and rebuilds the document
func (s *Session) ClearInstruction(ctx context.Context) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	return s.setInstruction(ctx, "", false)
}

// CaptureLine feeds one line to the multi-line capture. When the line is
// the sentinel the capture is committed and done is true.
func (s *Session) CaptureLine(ctx context.Context, line string) (done bool, err error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	if s.editor != models.MultiLine {
		s.mu.Unlock()
		return false, ErrNotCapturing
	}
	if strings.TrimSpace(line) != s.sentinel {
		s.capture = append(s.capture, line)
		s.mu.Unlock()
		return false, nil
	}
	text := strings.Join(s.capture, "\n")
	s.mu.Unlock()

	return true, s.setInstruction(ctx, text, true)
}

// CommitCapture replaces the pending instruction with a whole edited
// buffer and leaves multi-line capture. A trailing sentinel line is
// dropped.
func (s *Session) CommitCapture(ctx context.Context, buffer string) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	capturing := s.editor == models.MultiLine
	s.mu.Unlock()
	if !capturing {
		return ErrNotCapturing
	}

	return s.setInstruction(ctx, StripSentinel(buffer, s.sentinel), true)
}

// CancelCapture discards the capture buffer. It reports whether a capture
// was in progress.
func (s *Session) CancelCapture() bool {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editor != models.MultiLine {
		return false
	}
	s.editor = models.SingleLine
	s.capture = nil
	return true
}

// StripSentinel removes trailing blank lines and a final sentinel line
// from buffer.
func StripSentinel(buffer, sentinel string) string {
	lines := strings.Split(strings.ReplaceAll(buffer, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == sentinel {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// setInstruction rebuilds the document around instruction and commits
// both. When endCapture is set the commit also leaves multi-line mode.
// Callers hold cmdMu.
func (s *Session) setInstruction(ctx context.Context, instruction string, endCapture bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	cache := s.cache
	doc := s.doc
	s.mu.Unlock()

	// with nothing collected yet there is no document to rebuild
	if cache.Len() > 0 {
		var err error
		doc, err = s.rebuild(cache, instruction)
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.instruction = instruction
	s.doc = doc
	if endCapture {
		s.editor = models.SingleLine
		s.capture = nil
	}
	s.mu.Unlock()
	return nil
}

// resolve expands targets into selection keys. Any missing target fails
// the whole batch.
func (s *Session) resolve(targets []string) ([]string, error) {
	set := make(map[string]struct{})
	for _, target := range targets {
		keys, err := files.EnumerateKeys(s.policy, target)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			set[k] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

// matchSelected finds the selected keys a remove target denotes: the files
// it enumerates to plus any selected key equal to or below it.
func (s *Session) matchSelected(target string, selected map[string]struct{}) ([]string, error) {
	abs := s.policy.Resolve(target)
	prefix := s.policy.Key(abs)

	var matched []string
	for k := range selected {
		if prefix == "." && !isOutside(k) || k == prefix || strings.HasPrefix(k, prefix+"/") {
			matched = append(matched, k)
		}
	}

	keys, err := files.EnumerateKeys(s.policy, abs)
	switch {
	case err == nil:
		for _, k := range keys {
			if _, ok := selected[k]; ok {
				matched = append(matched, k)
			}
		}
	case len(matched) == 0:
		return nil, err
	}

	return matched, nil
}

// isOutside reports whether key names a file outside the root. Such keys
// are absolute.
func isOutside(key string) bool {
	return filepath.IsAbs(filepath.FromSlash(key)) || strings.HasPrefix(key, "/")
}

// refreshTree renders the project tree into cache. A render failure keeps
// whatever tree entry cache already has, or adds an empty one, so the tree
// is always fragment 1.
func (s *Session) refreshTree(cache *composer.Cache) {
	text, err := tree.Generate(s.policy.Root, s.policy)
	if err != nil {
		s.logger.Error("failed to render project tree", "root", s.policy.Root, "error", err)
		if _, ok := cache.Get(composer.TreeKey); ok {
			return
		}
		text = ""
	}
	cache.Add(composer.TreeSnippet(text))
}

// rebuild merges cache with instruction and counts the result
func (s *Session) rebuild(cache *composer.Cache, instruction string) (Document, error) {
	text := composer.Merge(cache, instruction)
	tokens, err := s.tokenizer.Count(text)
	if err != nil {
		s.logger.Error("token count failed", "error", err)
		if !errors.Is(err, ErrTokenizerUnavailable) {
			err = fmt.Errorf("%w: %v", ErrTokenizerUnavailable, err)
		}
		return Document{}, err
	}
	return Document{Text: text, Tokens: tokens}, nil
}

func cloneSet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
