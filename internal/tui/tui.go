package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/ide"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/apply"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/document"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/model"
)

// --- Styles ---
var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	pathStyle     = lipgloss.NewStyle()
	faintStyle    = lipgloss.NewStyle().Faint(true)
	addStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	delStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
)

// Backend is what the review screen drives. *ide.App implements it.
type Backend interface {
	Load(ctx context.Context) (model.Parsed, error)
	Proposal() model.ChangeSet
	AcceptAll(ctx context.Context) model.Summary
	AcceptOne(ctx context.Context, index int) (model.ApplyResult, error)
	Reject()
	Commands() []model.CommandProposal
	RunCommand(ctx context.Context, index int) (model.CommandOutput, error)
	Snippets() []model.Snippet
	InsertSnippet(index int) error
}

type keyMap struct {
	Up, Down, Accept, AcceptAll, Reject, Run, Insert, Switch, Quit key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Accept:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "accept")),
	AcceptAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "accept all")),
	Reject:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reject")),
	Run:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "run command")),
	Insert:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "insert snippet")),
	Switch:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next list")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// --- Messages ---
type loadedMsg struct{ parsed model.Parsed }

type summaryMsg struct {
	model.Summary
}

type acceptedMsg struct {
	result model.ApplyResult
	err    error
}

type commandMsg struct {
	output model.CommandOutput
	err    error
}

type insertedMsg struct {
	index int
	err   error
}

type errorMsg struct{ err error }

func (e errorMsg) Error() string { return e.err.Error() }

// --- Model ---
type state int

const (
	stateProcessing state = iota
	stateReview
	stateSummary
	stateError
)

type focus int

const (
	focusChanges focus = iota
	focusCommands
	focusSnippets
)

type Model struct {
	ctx         context.Context
	backend     Backend
	spinner     spinner.Model
	viewport    viewport.Model
	noAnimation bool

	state    state
	focus    focus
	cursor   int
	changes  model.ChangeSet
	commands []model.CommandProposal
	snippets []model.Snippet
	status   string
	busy     bool
	summary  summaryMsg
	err      error
}

// New creates the review screen.
func New(ctx context.Context, backend Backend, noAnimation bool) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:         ctx,
		backend:     backend,
		spinner:     s,
		viewport:    viewport.New(80, 15),
		noAnimation: noAnimation,
		state:       stateProcessing,
	}
}

func (m Model) Init() tea.Cmd {
	if m.noAnimation {
		return m.load
	}
	return tea.Batch(m.spinner.Tick, m.load)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-lipgloss.Height(m.listView())-4, 3)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		if m.state == stateReview && !m.busy {
			return m.handleKey(msg)
		}
		if m.state == stateReview {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case loadedMsg:
		m.refresh()
		if m.empty() {
			m.state = stateSummary
			m.summary = summaryMsg{model.Summary{Message: "Nothing proposed. Nothing to do."}}
			return m, tea.Quit
		}
		m.state = stateReview
		m.focus = m.firstFocus()
		m.showSelection()
		return m, nil

	case acceptedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Failed: %v", msg.err))
		} else {
			m.status = successStyle.Render(fmt.Sprintf("%s %s", msg.result.Outcome, msg.result.Path))
		}
		m.refresh()
		if m.empty() {
			m.state = stateSummary
			m.summary = summaryMsg{model.Summary{Message: "All changes applied."}}
			return m, tea.Quit
		}
		if m.changes.Len() == 0 && m.focus == focusChanges {
			m.focus = m.firstFocus()
			m.cursor = 0
		}
		m.clampCursor()
		m.showSelection()
		return m, nil

	case commandMsg:
		m.busy = false
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Command failed: %v", msg.err))
			return m, nil
		}
		m.status = successStyle.Render(fmt.Sprintf("$ %s exited %d", msg.output.Command, msg.output.ExitCode))
		m.viewport.SetContent(renderOutput(msg.output))
		m.viewport.GotoTop()
		return m, nil

	case insertedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Insert failed: %v", msg.err))
			return m, nil
		}
		m.status = successStyle.Render(fmt.Sprintf("Inserted snippet %d into the active document", msg.index+1))
		return m, nil

	case summaryMsg:
		m.state = stateSummary
		m.summary = msg
		return m, tea.Quit

	case errorMsg:
		m.state = stateError
		m.err = msg
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateProcessing || m.busy {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.showSelection()
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < m.listLen()-1 {
			m.cursor++
			m.showSelection()
		}
	case key.Matches(msg, keys.Switch):
		m.focus = m.nextFocus()
		m.cursor = 0
		m.showSelection()
	case key.Matches(msg, keys.Accept):
		if m.focus != focusChanges || m.changes.Len() == 0 {
			return m, nil
		}
		m.busy = true
		index := m.cursor
		return m, m.withSpinner(func() tea.Msg {
			res, err := m.backend.AcceptOne(m.ctx, index)
			return acceptedMsg{result: res, err: err}
		})
	case key.Matches(msg, keys.AcceptAll):
		m.busy = true
		return m, m.withSpinner(func() tea.Msg {
			summary := m.backend.AcceptAll(m.ctx)
			summary.Message = "Applied proposal."
			return summaryMsg{summary}
		})
	case key.Matches(msg, keys.Reject):
		m.backend.Reject()
		m.state = stateSummary
		m.summary = summaryMsg{model.Summary{Message: "Proposal rejected. No files were changed."}}
		return m, tea.Quit
	case key.Matches(msg, keys.Run):
		if m.focus != focusCommands || len(m.commands) == 0 {
			return m, nil
		}
		m.busy = true
		index := m.cursor
		return m, m.withSpinner(func() tea.Msg {
			out, err := m.backend.RunCommand(m.ctx, index)
			return commandMsg{output: out, err: err}
		})
	case key.Matches(msg, keys.Insert):
		if m.focus != focusSnippets || len(m.snippets) == 0 {
			return m, nil
		}
		m.busy = true
		index := m.cursor
		return m, func() tea.Msg {
			return insertedMsg{index: index, err: m.backend.InsertSnippet(index)}
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) withSpinner(cmd tea.Cmd) tea.Cmd {
	if m.noAnimation {
		return cmd
	}
	return tea.Batch(m.spinner.Tick, cmd)
}

func (m *Model) refresh() {
	m.changes = m.backend.Proposal()
	m.commands = m.backend.Commands()
	m.snippets = m.backend.Snippets()
}

func (m Model) empty() bool {
	return m.changes.Len() == 0 && len(m.commands) == 0 && len(m.snippets) == 0
}

func (m Model) lenOf(f focus) int {
	switch f {
	case focusCommands:
		return len(m.commands)
	case focusSnippets:
		return len(m.snippets)
	default:
		return m.changes.Len()
	}
}

func (m Model) listLen() int {
	return m.lenOf(m.focus)
}

// firstFocus is the first non-empty list.
func (m Model) firstFocus() focus {
	for _, f := range []focus{focusChanges, focusCommands, focusSnippets} {
		if m.lenOf(f) > 0 {
			return f
		}
	}
	return focusChanges
}

// nextFocus cycles to the next non-empty list after the current one.
func (m Model) nextFocus() focus {
	for i := 1; i <= 3; i++ {
		if f := (m.focus + focus(i)) % 3; m.lenOf(f) > 0 {
			return f
		}
	}
	return m.focus
}

func (m *Model) clampCursor() {
	if n := m.listLen(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m *Model) showSelection() {
	switch {
	case m.focus == focusChanges && m.cursor < m.changes.Len():
		m.viewport.SetContent(renderChange(m.changes.Changes[m.cursor]))
	case m.focus == focusCommands && m.cursor < len(m.commands):
		m.viewport.SetContent(faintStyle.Render("Press x to run:") + "\n$ " + m.commands[m.cursor].Text)
	case m.focus == focusSnippets && m.cursor < len(m.snippets):
		m.viewport.SetContent(faintStyle.Render("Press i to insert into the active document:") + "\n" + m.snippets[m.cursor].Content)
	default:
		m.viewport.SetContent("")
	}
	m.viewport.GotoTop()
}

func (m Model) View() string {
	switch m.state {
	case stateProcessing:
		if m.noAnimation {
			return "Loading proposal..."
		}
		return fmt.Sprintf("%s Loading proposal...", m.spinner.View())
	case stateReview:
		return m.renderReview()
	case stateError:
		return errorStyle.Render("Error: ", m.err.Error())
	case stateSummary:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m Model) listView() string {
	var b strings.Builder
	title := func(text string, f focus) {
		if m.focus == f {
			b.WriteString(headerStyle.Render("> " + text))
		} else {
			b.WriteString(faintStyle.Render("  " + text))
		}
		b.WriteString("\n")
	}
	item := func(selected bool, text string) {
		if selected {
			b.WriteString(selectedStyle.Render("  > " + text))
		} else {
			b.WriteString(pathStyle.Render("    " + text))
		}
		b.WriteString("\n")
	}

	title(fmt.Sprintf("Changes (%d)", m.changes.Len()), focusChanges)
	for i, c := range m.changes.Changes {
		item(m.focus == focusChanges && i == m.cursor, fmt.Sprintf("[%s] %s", c.Kind, c.Path))
	}
	if len(m.commands) > 0 {
		title(fmt.Sprintf("Commands (%d)", len(m.commands)), focusCommands)
		for i, c := range m.commands {
			item(m.focus == focusCommands && i == m.cursor, "$ "+c.Text)
		}
	}
	if len(m.snippets) > 0 {
		title(fmt.Sprintf("Snippets (%d)", len(m.snippets)), focusSnippets)
		for i, s := range m.snippets {
			item(m.focus == focusSnippets && i == m.cursor, snippetLabel(s))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) helpView() string {
	bindings := []key.Binding{keys.Up, keys.Down, keys.Accept, keys.AcceptAll, keys.Reject, keys.Run, keys.Insert, keys.Switch, keys.Quit}
	parts := make([]string, len(bindings))
	for i, k := range bindings {
		parts[i] = k.Help().Key + " " + k.Help().Desc
	}
	return faintStyle.Render(strings.Join(parts, " • "))
}

func (m Model) renderReview() string {
	var b strings.Builder
	b.WriteString(m.listView())
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.busy && !m.noAnimation {
		b.WriteString(m.spinner.View() + " ")
	}
	if m.status != "" {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(m.helpView())
	return b.String()
}

func snippetLabel(s model.Snippet) string {
	first, _, _ := strings.Cut(s.Content, "\n")
	if s.Language == "" {
		return first
	}
	return fmt.Sprintf("[%s] %s", s.Language, first)
}

func renderChange(c model.Change) string {
	lang := document.DisplayName(document.LanguageForPath(c.Path))
	switch {
	case c.Kind == model.Create:
		return faintStyle.Render(fmt.Sprintf("new file %s (%s)", c.Path, lang)) + "\n" + c.Content
	case len(c.DiffLines) == 0:
		return faintStyle.Render(fmt.Sprintf("update %s (%s)", c.Path, lang)) + "\n" + c.Content
	case !apply.HasChanges(c.DiffLines):
		return faintStyle.Render(fmt.Sprintf("update %s (%s): no changes, the file already matches", c.Path, lang))
	}
	lines := make([]string, 0, len(c.DiffLines)+1)
	lines = append(lines, faintStyle.Render(fmt.Sprintf("update %s (%s)", c.Path, lang)))
	for _, l := range c.DiffLines {
		switch l.Marker {
		case '+':
			lines = append(lines, addStyle.Render(l.String()))
		case '-':
			lines = append(lines, delStyle.Render(l.String()))
		default:
			lines = append(lines, l.String())
		}
	}
	return strings.Join(lines, "\n")
}

func renderOutput(o model.CommandOutput) string {
	var b strings.Builder
	b.WriteString("$ " + o.Command + "\n")
	b.WriteString(o.Stdout)
	if o.Stderr != "" {
		b.WriteString(errorStyle.Render(o.Stderr))
	}
	return b.String()
}

func (m Model) renderSummary() string {
	var b strings.Builder

	if m.summary.Message != "" {
		b.WriteString(headerStyle.Render(m.summary.Message))
		b.WriteString("\n\n")
	}

	hasContent := false
	section := func(style lipgloss.Style, title string, paths []string) {
		if len(paths) == 0 {
			return
		}
		hasContent = true
		b.WriteString(style.Render(title))
		b.WriteString("\n")
		for _, f := range paths {
			b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(f)))
		}
	}
	section(successStyle, "Created:", m.summary.Created)
	section(successStyle, "Modified:", m.summary.Modified)
	section(faintStyle, "Unchanged:", m.summary.Unchanged)
	section(errorStyle, "Failed:", m.summary.Failed)

	if !hasContent && m.summary.Message == "" {
		b.WriteString(faintStyle.Render("Nothing to do."))
	}

	return b.String()
}

func (m Model) load() tea.Msg {
	parsed, err := m.backend.Load(m.ctx)
	if err != nil {
		var detailed *ide.DetailedError
		if errors.As(err, &detailed) {
			// The TUI will exit, so we can print to stderr here for the stack trace.
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
		}
		return errorMsg{err}
	}
	return loadedMsg{parsed: parsed}
}

// Summary returns the final summary once the program has exited.
func (m Model) Summary() (model.Summary, bool) {
	return m.summary.Summary, m.state == stateSummary
}

// Err returns the error that ended the program, if any.
func (m Model) Err() error {
	return m.err
}
