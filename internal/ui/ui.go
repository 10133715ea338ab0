package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/model"
)

var (
	HeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	PathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	PromptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

var (
	mu  sync.Mutex
	out io.Writer = os.Stderr
)

// SetOutput redirects all messages. It returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

func write(style lipgloss.Style, format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(out, style.Render(fmt.Sprintf(format, a...)))
}

func Header(format string, a ...interface{}) {
	write(HeaderStyle, format, a...)
}

func Info(format string, a ...interface{}) {
	write(InfoStyle, format, a...)
}

func Success(format string, a ...interface{}) {
	write(SuccessStyle, format, a...)
}

func Warning(format string, a ...interface{}) {
	write(WarningStyle, format, a...)
}

func Error(format string, a ...interface{}) {
	write(ErrorStyle, format, a...)
}

func Path(format string, a ...interface{}) {
	write(PathStyle, "  "+format, a...)
}

func Prompt(format string, a ...interface{}) string {
	return PromptStyle.Render(fmt.Sprintf(format, a...))
}

// --- Summaries ---

func printList(style lipgloss.Style, title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	write(style, title, len(paths))
	for _, p := range paths {
		Path("- %s", p)
	}
}

// PrintApplySummary prints the outcome of applying a change set.
func PrintApplySummary(s model.Summary) {
	Header("\n--- Apply Summary ---")
	if s.Message != "" {
		Info("%s", s.Message)
	}
	if len(s.Created) == 0 && len(s.Modified) == 0 && len(s.Unchanged) == 0 && len(s.Failed) == 0 {
		Info("No files were changed.")
		return
	}
	printList(SuccessStyle, "Created %d new file(s):", s.Created)
	printList(SuccessStyle, "Updated %d file(s):", s.Modified)
	printList(InfoStyle, "%d file(s) already up to date:", s.Unchanged)
	printList(ErrorStyle, "Failed to apply %d file(s):", s.Failed)
}

// PrintProposal lists what an assistant reply proposes without applying it.
func PrintProposal(p model.Parsed) {
	Header("--- Proposed changes ---")
	if p.IsEmpty() {
		Info("Nothing proposed.")
		return
	}
	for _, c := range p.Changes {
		Path("[%s] %s (%s)", c.Kind, c.Path, c.Language)
		for _, l := range c.DiffLines {
			if l.Marker == ' ' {
				continue
			}
			Path("    %s", l.String())
		}
	}
	for _, cmd := range p.Commands {
		Path("$ %s", cmd.Text)
	}
	if len(p.Snippets) > 0 {
		Info("%d snippet(s) for the active document.", len(p.Snippets))
	}
}

// PrintCommandOutput prints the captured streams of a command.
func PrintCommandOutput(o model.CommandOutput) {
	Header("$ %s", o.Command)
	if s := strings.TrimRight(o.Stdout, "\n"); s != "" {
		write(lipgloss.NewStyle(), "%s", s)
	}
	if s := strings.TrimRight(o.Stderr, "\n"); s != "" {
		Warning("%s", s)
	}
	if o.ExitCode != 0 {
		Error("exit status %d", o.ExitCode)
	}
}
