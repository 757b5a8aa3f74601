package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/ctxpack/ctxpack-cli/pkg/models"
	"github.com/ctxpack/ctxpack-cli/pkg/session"
	"github.com/ctxpack/ctxpack-cli/pkg/utils"
)

const editorHeight = 8

// entry is one block in the output log
type entry struct {
	style lipgloss.Style
	text  string
}

// App is the interactive front end. It owns one line reader and one
// multi-line editor for the whole session and hands every line to the
// router.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	router *session.Router

	input   *CommandInput
	editor  textarea.Model
	output  viewport.Model
	spinner spinner.Model

	log     []entry
	editing bool
	busy    bool
	width   int
	height  int
}

// resultMsg carries the outcome of a routed line back to the update loop
type resultMsg struct {
	result session.Result
}

// NewApp creates the front end for a router
func NewApp(ctx context.Context, router *session.Router) *App {
	ctx, cancel := context.WithCancel(ctx)

	ta := textarea.New()
	ta.ShowLineNumbers = true
	ta.Prompt = "  "
	ta.CharLimit = 0
	ta.SetWidth(80)
	ta.SetHeight(editorHeight)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorActive))

	a := &App{
		ctx:     ctx,
		cancel:  cancel,
		router:  router,
		input:   NewCommandInput(session.CommandNames()),
		editor:  ta,
		output:  viewport.New(80, 20),
		spinner: s,
	}
	a.appendLog(InfoStyle, fmt.Sprintf("ctxpack in %s. Type /help for commands.", router.Session().Root()))
	return a
}

// Run starts the interactive program and blocks until it exits
func Run(ctx context.Context, router *session.Router, opts ...tea.ProgramOption) error {
	app := NewApp(ctx, router)
	defer app.cancel()

	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(app, opts...).Run()
	return err
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, a.input.Focus())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetSize(msg.Width, msg.Height)
		return a, nil

	case spinner.TickMsg:
		if !a.busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case resultMsg:
		return a, a.apply(msg.result)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyCtrlD:
		if a.busy {
			// a command is still running; abandon it
			a.cancel()
			return a, tea.Quit
		}
		return a, a.apply(a.router.Interrupt())
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		a.output, cmd = a.output.Update(msg)
		return a, cmd
	}

	if a.busy {
		return a, nil
	}

	if a.editing {
		return a.handleEditorKey(msg)
	}

	switch msg.Type {
	case tea.KeyTab:
		if matches := a.input.Complete(); len(matches) > 0 {
			a.appendLog(HintStyle, strings.Join(matches, "  "))
		}
		return a, nil
	case tea.KeyEnter:
		line := a.input.Value()
		a.input.Reset()
		a.appendLog(EchoStyle, a.prompt()+line)
		return a, a.startBusy(a.runLine(line))
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sentinel := a.router.Session().Sentinel()

	switch {
	case msg.Type == tea.KeyCtrlS:
		return a, a.startBusy(a.submit(a.editor.Value()))
	case msg.Type == tea.KeyEnter && lastLine(a.editor.Value()) == sentinel:
		return a, a.startBusy(a.submit(a.editor.Value()))
	}

	var cmd tea.Cmd
	a.editor, cmd = a.editor.Update(msg)
	return a, cmd
}

func (a *App) runLine(line string) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{result: a.router.HandleLine(a.ctx, line)}
	}
}

func (a *App) submit(buffer string) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{result: a.router.Submit(a.ctx, buffer)}
	}
}

func (a *App) startBusy(cmd tea.Cmd) tea.Cmd {
	a.busy = true
	return tea.Batch(a.spinner.Tick, cmd)
}

// apply shows a command's notices and follows the session into or out of
// multi-line editing
func (a *App) apply(res session.Result) tea.Cmd {
	a.busy = false
	for _, n := range res.Notices {
		a.appendLog(NoticeStyle(n.Level), n.Text)
	}
	if res.Quit {
		a.cancel()
		return tea.Quit
	}

	snap := a.router.Session().Snapshot()
	a.input.SetMode(snap.Mode)
	if a.width > 0 {
		a.input.SetWidth(a.width)
	}

	switch {
	case snap.Editor == models.MultiLine && !a.editing:
		a.editing = true
		a.editor.SetValue(snap.Capture)
		a.input.Blur()
		a.layout()
		return a.editor.Focus()
	case snap.Editor == models.SingleLine && a.editing:
		a.editing = false
		a.editor.Reset()
		a.editor.Blur()
		a.layout()
		return a.input.Focus()
	}
	return nil
}

// SetSize resizes every component to the terminal
func (a *App) SetSize(width, height int) {
	a.width = width
	a.height = height
	a.input.SetWidth(width)
	a.editor.SetWidth(width - 2)
	a.layout()
}

func (a *App) layout() {
	inputHeight := 1
	if a.editing {
		inputHeight = editorHeight + 3 // border and hint
	}
	h := a.height - inputHeight - 1
	if h < 1 {
		h = 1
	}
	a.output.Width = a.width
	a.output.Height = h
	a.refreshOutput()
}

func (a *App) appendLog(style lipgloss.Style, text string) {
	a.log = append(a.log, entry{style: style, text: text})
	a.refreshOutput()
}

func (a *App) refreshOutput() {
	width := a.output.Width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	for i, e := range a.log {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(e.style.Render(wordwrap.String(e.text, width)))
	}
	a.output.SetContent(b.String())
	a.output.GotoBottom()
}

func (a *App) prompt() string {
	mode, _ := a.router.Session().Modes()
	return mode.String() + "> "
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Loading..."
	}

	var input string
	if a.editing {
		hint := HintStyle.Render(fmt.Sprintf("Finish with a line containing %s (or Ctrl+S), Ctrl+C cancels", a.router.Session().Sentinel()))
		input = lipgloss.JoinVertical(lipgloss.Left, EditorBorderStyle.Render(a.editor.View()), hint)
	} else {
		input = a.input.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, a.output.View(), input, a.statusBar())
}

func (a *App) statusBar() string {
	snap := a.router.Session().Snapshot()

	left := StatusBarStyle.Render(fmt.Sprintf("[%d] files", len(snap.Selected)))
	badge := TokenBadgeStyle(snap.Document.Tokens).Render(fmt.Sprintf("[%s]", utils.FormatTokenCount(snap.Document.Tokens)))
	right := StatusBarStyle.Render(modeLabel(snap))
	if a.busy {
		right = StatusBarStyle.Render(a.spinner.View() + " working")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, left, badge, right)
}

// StatusLine is the plain text form of the status bar
func StatusLine(snap session.Snapshot) string {
	return fmt.Sprintf("[%d] files | [%s] | %s", len(snap.Selected), utils.FormatTokenCount(snap.Document.Tokens), modeLabel(snap))
}

func modeLabel(snap session.Snapshot) string {
	if snap.Editor == models.MultiLine {
		return snap.Mode.String() + " (editing)"
	}
	return snap.Mode.String()
}

func lastLine(buffer string) string {
	buffer = strings.TrimRight(buffer, "\r\n")
	if i := strings.LastIndex(buffer, "\n"); i >= 0 {
		buffer = buffer[i+1:]
	}
	return strings.TrimSpace(buffer)
}
