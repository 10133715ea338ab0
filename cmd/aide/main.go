package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/cli"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/ide"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/tui"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := cli.ParseFlags()
	if err != nil {
		return flagExit(os.Stderr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := ide.New(cfg, ide.Collaborators{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		return 1
	}
	defer app.Close()

	if cfg.ListModels {
		return listModels(ctx, os.Stdout, app)
	}

	// Non-interactive modes log straight to stderr.
	if cfg.Yes || cfg.DryRun {
		summary, err := app.Run(ctx)
		if err != nil {
			printError(err)
			return 1
		}
		ui.PrintApplySummary(summary)
		if len(summary.Failed) > 0 {
			return 1
		}
		return 0
	}

	// Keep log lines off the review screen.
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "aide")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		ui.SetOutput(f)
	} else {
		ui.SetOutput(io.Discard)
	}

	p := tea.NewProgram(tui.New(ctx, app, cfg.NoAnimation), tea.WithInputTTY(), tea.WithContext(ctx))
	final, err := p.Run()
	ui.SetOutput(os.Stderr)
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		return 1
	}
	m, ok := final.(tui.Model)
	if !ok {
		return 1
	}
	if m.Err() != nil {
		return 1
	}
	if summary, done := m.Summary(); done && len(summary.Failed) > 0 {
		return 1
	}
	return 0
}

// flagExit reports a flag error and returns the exit code for it. Help
// output is not an error.
func flagExit(w io.Writer, err error) int {
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	fmt.Fprintln(w, "Run 'aide --help' for usage.")
	return 1
}

func listModels(ctx context.Context, w io.Writer, app *ide.App) int {
	models, err := app.Models(ctx)
	if err != nil {
		printError(err)
		return 1
	}
	for _, m := range models {
		fmt.Fprintln(w, m)
	}
	return 0
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var detailed *ide.DetailedError
	if errors.As(err, &detailed) {
		fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
	}
}
