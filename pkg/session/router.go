package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ctxpack/ctxpack-cli/pkg/models"
)

// Result is what a front end needs after feeding the router a line
type Result struct {
	Notices []models.Notice
	Quit    bool
}

func (r *Result) add(level models.NoticeLevel, format string, args ...interface{}) {
	r.Notices = append(r.Notices, models.Notice{Level: level, Text: fmt.Sprintf(format, args...)})
}

type dispatchKey struct {
	kind Kind
	mode models.Mode
}

type handler func(ctx context.Context, cmd Command) Result

// Router decides what an input line means in the current state and runs
// it against the session. Calls are serialized.
type Router struct {
	session *Session
	logger  *slog.Logger

	mu    sync.Mutex
	table map[dispatchKey]handler
}

// NewRouter wires the dispatch table for s
func NewRouter(s *Session, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Router{session: s, logger: logger}

	manual, prompt := models.ModeManual, models.ModePrompt
	r.table = map[dispatchKey]handler{
		{KindAdd, manual}:              r.add,
		{KindRemove, manual}:           r.remove,
		{KindReset, manual}:            r.reset,
		{KindContext, manual}:          r.context,
		{KindContext, prompt}:          r.context,
		{KindCopy, manual}:             r.copy,
		{KindCopy, prompt}:             r.copy,
		{KindMode, manual}:             r.mode,
		{KindMode, prompt}:             r.mode,
		{KindCompose, manual}:          r.composeFromManual,
		{KindCompose, prompt}:          r.compose,
		{KindViewInstruction, prompt}:  r.viewInstruction,
		{KindClearInstruction, prompt}: r.clearInstruction,
		{KindHelp, manual}:             r.help,
		{KindHelp, prompt}:             r.help,
		{KindQuit, manual}:             r.quit,
		{KindQuit, prompt}:             r.quit,
	}
	return r
}

// Session returns the session the router drives
func (r *Router) Session() *Session {
	return r.session
}

// Allowed reports whether kind may run in mode
func (r *Router) Allowed(kind Kind, mode models.Mode) bool {
	_, ok := r.table[dispatchKey{kind, mode}]
	return ok
}

// HandleLine routes one raw input line. In multi-line capture every line
// goes to the capture buffer. In prompt mode a line without the command
// sigil is appended to the instruction. Anything else is parsed and
// dispatched.
func (r *Router) HandleLine(ctx context.Context, line string) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	line = strings.TrimRight(line, "\r\n")
	mode, editor := r.session.Modes()

	switch {
	case editor == models.MultiLine:
		return r.captureLine(ctx, line)
	case strings.TrimSpace(line) == "":
		return Result{}
	case mode == models.ModePrompt && !strings.HasPrefix(line, Sigil):
		// only an unindented sigil starts a command here
		return r.appendInstruction(ctx, line)
	}

	var res Result
	cmd, err := Parse(line)
	if err != nil {
		switch {
		case !IsCommand(line):
			res.add(models.NoticeWarning, "%q is not a command; use /prompt to write an instruction", strings.TrimSpace(line))
		case errors.Is(err, ErrUnknownCommand):
			res.add(models.NoticeWarning, "%v (type /help for a list of commands)", err)
		default:
			res.add(models.NoticeWarning, "%v", err)
		}
		return res
	}

	return r.dispatch(ctx, cmd, mode)
}

// Submit commits a whole edited instruction buffer, as produced by a
// multi-line editor. A trailing sentinel line is dropped.
func (r *Router) Submit(ctx context.Context, buffer string) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res Result
	if err := r.session.CommitCapture(ctx, buffer); err != nil {
		res.add(errorLevel(err), "%s", describe(err))
		return res
	}
	r.instructionSaved(&res)
	return res
}

// Interrupt cancels a multi-line capture, leaving the instruction as it
// was. Outside capture it asks the front end to quit.
func (r *Router) Interrupt() Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res Result
	if r.session.CancelCapture() {
		res.add(models.NoticeInfo, "Instruction edit cancelled")
		return res
	}
	res.Quit = true
	return res
}

func (r *Router) dispatch(ctx context.Context, cmd Command, mode models.Mode) Result {
	h, ok := r.table[dispatchKey{cmd.Kind, mode}]
	if !ok {
		r.logger.Debug("command rejected", "command", cmd.Name, "mode", mode.String())
		var res Result
		res.add(models.NoticeWarning, "%s is not available in %s mode (switch with /mode)", Sigil+cmd.Name, mode)
		return res
	}

	r.logger.Debug("dispatching command", "command", cmd.Name, "args", cmd.Args, "mode", mode.String())
	return h(ctx, cmd)
}

func (r *Router) captureLine(ctx context.Context, line string) Result {
	var res Result
	done, err := r.session.CaptureLine(ctx, line)
	if err != nil {
		res.add(errorLevel(err), "%s", describe(err))
		return res
	}
	if done {
		r.instructionSaved(&res)
	}
	return res
}

func (r *Router) appendInstruction(ctx context.Context, line string) Result {
	var res Result
	if err := r.session.AppendInstruction(ctx, line); err != nil {
		res.add(errorLevel(err), "%s", describe(err))
	}
	return res
}

func (r *Router) instructionSaved(res *Result) {
	snap := r.session.Snapshot()
	if snap.Instruction == "" {
		res.add(models.NoticeSuccess, "Instruction cleared")
		return
	}
	res.add(models.NoticeSuccess, "Instruction saved (%d lines)", strings.Count(snap.Instruction, "\n")+1)
}

func (r *Router) add(ctx context.Context, cmd Command) Result {
	var res Result
	keys, err := r.session.Add(ctx, cmd.Args...)
	if err != nil {
		res.add(errorLevel(err), "%s", describe(err))
		return res
	}
	if len(keys) == 0 {
		res.add(models.NoticeWarning, "No files matched %s (everything was ignored)", strings.Join(cmd.Args, " "))
		return res
	}

	snap := r.session.Snapshot()
	res.add(models.NoticeSuccess, "Added %s (%d selected, %s)", plural(len(keys), "file"), len(snap.Selected), formatTokens(snap.Document.Tokens))
	return res
}

func (r *Router) remove(ctx context.Context, cmd Command) Result {
	var res Result
	keys, err := r.session.Remove(ctx, cmd.Args...)
	if err != nil {
		res.add(errorLevel(err), "%s", describe(err))
		return res
	}
	if len(keys) == 0 {
		res.add(models.NoticeWarning, "Nothing selected matches %s", strings.Join(cmd.Args, " "))
		return res
	}

	snap := r.session.Snapshot()
	res.add(models.NoticeSuccess, "Removed %s (%d selected, %s)", plural(len(keys), "file"), len(snap.Selected), formatTokens(snap.Document.Tokens))
	return res
}

func (r *Router) reset(ctx context.Context, cmd Command) Result {
	var res Result
	r.session.Reset()
	res.add(models.NoticeSuccess, "Session cleared")
	return res
}

func (r *Router) context(ctx context.Context, cmd Command) Result {
	var res Result
	res.add(models.NoticeInfo, "%s", ContextReport(r.session.Snapshot()))
	return res
}

func (r *Router) copy(ctx context.Context, cmd Command) Result {
	var res Result
	doc, err := r.session.Copy(ctx)
	files := len(r.session.Snapshot().Selected)

	switch {
	case errors.Is(err, ErrClipboard):
		res.add(models.NoticeError, "%s", describe(err))
		res.add(models.NoticeInfo, "Document rebuilt: %s, %s", plural(files, "file"), formatTokens(doc.Tokens))
	case err != nil:
		res.add(errorLevel(err), "%s", describe(err))
	default:
		res.add(models.NoticeSuccess, "Copied %s to clipboard (%s)", plural(files, "file"), formatTokens(doc.Tokens))
	}
	return res
}

func (r *Router) mode(ctx context.Context, cmd Command) Result {
	var res Result
	current, _ := r.session.Modes()

	if len(cmd.Args) == 0 {
		res.add(models.NoticeInfo, "Current mode: %s", current)
		return res
	}

	target, err := models.ParseMode(strings.ToLower(cmd.Args[0]))
	if err != nil {
		res.add(models.NoticeWarning, "%v", err)
		return res
	}

	if !r.session.SetMode(target) {
		res.add(models.NoticeInfo, "Already in %s mode", target)
		return res
	}
	res.add(models.NoticeSuccess, "Switched to %s mode", target)
	if target == models.ModePrompt {
		res.add(models.NoticeInfo, "Type text to add it to the instruction; /prompt edits it as a whole")
	}
	return res
}

func (r *Router) composeFromManual(ctx context.Context, cmd Command) Result {
	var res Result
	r.session.Compose()
	res.add(models.NoticeInfo, "Switched to prompt mode")

	if instruction := r.session.Snapshot().Instruction; instruction != "" {
		res.add(models.NoticeInfo, "Current instruction:\n%s", instruction)
	}
	res.add(models.NoticeInfo, "Type text to add it to the instruction; /prompt again edits it as a whole")
	return res
}

func (r *Router) compose(ctx context.Context, cmd Command) Result {
	var res Result
	r.session.Compose()
	res.add(models.NoticeInfo, "Editing instruction. Finish with a line containing %s, or press Ctrl+C to cancel", r.session.Sentinel())
	return res
}

func (r *Router) viewInstruction(ctx context.Context, cmd Command) Result {
	var res Result
	instruction := r.session.Snapshot().Instruction
	if instruction == "" {
		res.add(models.NoticeInfo, "No instruction set")
		return res
	}
	res.add(models.NoticeInfo, "Current instruction:\n%s", instruction)
	return res
}

func (r *Router) clearInstruction(ctx context.Context, cmd Command) Result {
	var res Result
	if err := r.session.ClearInstruction(ctx); err != nil {
		res.add(errorLevel(err), "%s", describe(err))
		return res
	}
	res.add(models.NoticeSuccess, "Instruction cleared")
	return res
}

func (r *Router) help(ctx context.Context, cmd Command) Result {
	var res Result
	mode, _ := r.session.Modes()
	res.add(models.NoticeInfo, "%s", r.HelpText(mode))
	return res
}

func (r *Router) quit(ctx context.Context, cmd Command) Result {
	return Result{Quit: true}
}

// errorLevel grades a command error. Expected user mistakes are warnings.
func errorLevel(err error) models.NoticeLevel {
	switch {
	case errors.Is(err, ErrNotCapturing), errors.Is(err, ErrUsage):
		return models.NoticeWarning
	default:
		return models.NoticeError
	}
}

func describe(err error) string {
	switch {
	case errors.Is(err, ErrTokenizerUnavailable):
		return fmt.Sprintf("Token count failed, previous document kept: %v", err)
	case errors.Is(err, ErrClipboard):
		return fmt.Sprintf("Failed to copy to clipboard: %v", err)
	case errors.Is(err, context.Canceled):
		return "Command cancelled"
	default:
		return capitalize(err.Error())
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
