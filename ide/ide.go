package ide

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/cli"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/apply"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/chat"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/command"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/document"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/fs"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/nvim"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/parser"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/proposal"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/source"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/ui"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/model"
)

// Collaborators are the external services the App depends on. Nil fields
// get the default implementation.
type Collaborators struct {
	FS       fs.FileSystem
	Executor command.Executor
	Chat     chat.Client
	Parser   parser.Parser
	Source   *source.SourceProvider
	// Surface is optional; with cfg.Nvim set and no Surface, Neovim is used.
	Surface document.Surface
}

// App wires the editor components together.
type App struct {
	cfg      *cli.Config
	resolver *fs.PathResolver
	fs       fs.FileSystem
	store    *document.Store
	binding  *document.Binding
	coord    *apply.Coordinator
	session  *proposal.Session
	runner   *command.Runner
	chat     chat.Client
	parser   parser.Parser
	source   *source.SourceProvider
	closers  []func()

	mu       sync.Mutex
	commands []model.CommandProposal
	snippets []model.Snippet
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}

// New creates a new App instance.
func New(cfg *cli.Config, c Collaborators) (*App, error) {
	resolver, err := fs.NewPathResolver(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	a := &App{
		cfg:      cfg,
		resolver: resolver,
		fs:       c.FS,
		store:    document.NewStore(),
		session:  proposal.New(),
		chat:     c.Chat,
		parser:   c.Parser,
		source:   c.Source,
	}
	if a.fs == nil {
		a.fs = fs.NewOS(resolver)
	}
	if a.parser == nil {
		a.parser = parser.New()
	}
	if a.source == nil {
		a.source = source.New()
	}
	if a.chat == nil {
		a.chat = chat.NewOpenAI(chat.Config{
			BaseURL: cfg.Endpoint,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
		})
	}
	exec := c.Executor
	if exec == nil {
		exec = &command.Local{Dir: resolver.Root(), Timeout: cfg.Timeout}
	}
	a.runner = command.NewRunner(exec)
	a.coord = apply.New(a.fs, a.store)

	surface := c.Surface
	if surface == nil && cfg.Nvim {
		s, err := nvim.New(resolver.Root())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		surface = s
	}
	if surface != nil {
		a.binding = document.Bind(a.store, surface)
	}
	return a, nil
}

// Close releases the collaborators the App started itself.
func (a *App) Close() {
	for _, c := range a.closers {
		c()
	}
	a.closers = nil
}

func (a *App) sync() {
	if a.binding == nil {
		return
	}
	if err := a.binding.Sync(); err != nil {
		ui.Warning("Failed to update editor surface: %v", err)
	}
}

// Active returns the active document, or the placeholder.
func (a *App) Active() model.Document {
	return a.store.Active()
}

// Documents returns the open document paths in open order.
func (a *App) Documents() []string {
	return a.store.Paths()
}

// OpenFile reads path from the workspace and makes it the active document.
// Absolute paths must lie inside the workspace root. A file that is already
// open is activated without rereading it.
func (a *App) OpenFile(ctx context.Context, path string) (model.Document, error) {
	if filepath.IsAbs(path) {
		path = a.resolver.Rel(path)
	}
	clean, err := fs.CleanPath(path)
	if err != nil {
		return model.Document{}, err
	}
	if doc, ok := a.store.Get(clean); ok {
		if err := a.store.Activate(clean); err != nil {
			return model.Document{}, err
		}
		a.sync()
		return doc, nil
	}
	content, err := a.fs.ReadFile(ctx, clean)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to open %s: %w", clean, err)
	}
	doc := a.store.Open(clean, content, "")
	a.sync()
	return doc, nil
}

// CloseFile removes path from the open set.
func (a *App) CloseFile(path string) {
	a.store.Close(path)
	a.sync()
}

// CloseAll removes every open document.
func (a *App) CloseAll() {
	a.store.CloseAll()
	a.sync()
}

// Activate switches the active document.
func (a *App) Activate(path string) error {
	if err := a.store.Activate(path); err != nil {
		return err
	}
	a.sync()
	return nil
}

// Edit replaces an open document's buffer, marking it dirty.
func (a *App) Edit(path, content string) error {
	if err := a.store.Edit(path, content); err != nil {
		return err
	}
	a.sync()
	return nil
}

// Save writes an open document's buffer to disk.
func (a *App) Save(ctx context.Context, path string) model.ApplyResult {
	res := a.coord.Save(ctx, a.store, path)
	a.sync()
	return res
}

// Ask sends message to the assistant with the active document as context and
// stages what the reply proposes.
func (a *App) Ask(ctx context.Context, message string) (model.Parsed, error) {
	var active string
	if doc := a.store.Active(); !doc.ReadOnly {
		active = doc.Content
	}
	reply, err := a.chat.Send(ctx, chat.Request{Message: message, Model: a.cfg.Model, Context: active})
	if err != nil {
		return model.Parsed{}, err
	}
	return a.HandleResponse(ctx, reply.Response)
}

// HandleResponse parses assistant text, stages its file changes as a new
// proposal and keeps its commands and snippets for the user to act on.
func (a *App) HandleResponse(ctx context.Context, text string) (model.Parsed, error) {
	parsed := a.parser.Parse(text)

	changes := make([]model.Change, 0, len(parsed.Changes))
	for _, c := range parsed.Changes {
		if !a.matchesExtension(c.Path) {
			ui.Info("Skipping %s: extension not selected.", c.Path)
			continue
		}
		previewed, err := a.coord.Preview(ctx, c)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return model.Parsed{}, err
			}
			// Staged as proposed; applying it reports the failure.
			ui.Warning("Could not preview %s: %v", c.Path, err)
		}
		changes = append(changes, previewed)
	}
	parsed.Changes = changes

	a.session.Stage(proposal.NewChangeSet(changes))
	a.mu.Lock()
	a.commands = parsed.Commands
	a.snippets = parsed.Snippets
	a.mu.Unlock()
	return parsed, nil
}

func (a *App) matchesExtension(path string) bool {
	if len(a.cfg.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range a.cfg.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// Models lists the models the chat endpoint offers.
func (a *App) Models(ctx context.Context) ([]string, error) {
	return a.chat.Models(ctx)
}

// Proposal returns the pending change set.
func (a *App) Proposal() model.ChangeSet {
	return a.session.Pending()
}

// AcceptAll applies every pending change.
func (a *App) AcceptAll(ctx context.Context) model.Summary {
	report := a.session.ApplyAll(ctx, a.coord)
	a.sync()
	for _, f := range report.Failed() {
		ui.Error("%v", f.Err)
	}
	return model.NewSummary(report)
}

// AcceptOne applies the pending change at index.
func (a *App) AcceptOne(ctx context.Context, index int) (model.ApplyResult, error) {
	res, err := a.session.ApplyOne(ctx, index, a.coord)
	a.sync()
	return res, err
}

// Reject discards the pending proposal.
func (a *App) Reject() {
	a.session.Reject()
}

// Commands returns the commands proposed by the last reply.
func (a *App) Commands() []model.CommandProposal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.CommandProposal(nil), a.commands...)
}

// RunCommand executes the proposed command at index. It returns as soon as
// ctx is done, even if the executor is still running.
func (a *App) RunCommand(ctx context.Context, index int) (model.CommandOutput, error) {
	a.mu.Lock()
	if index < 0 || index >= len(a.commands) {
		a.mu.Unlock()
		return model.CommandOutput{}, fmt.Errorf("command %d: %w", index, proposal.ErrIndexOutOfRange)
	}
	p := a.commands[index]
	a.mu.Unlock()

	select {
	case res := <-a.runner.Go(ctx, p):
		return res.Output, res.Err
	case <-ctx.Done():
		return model.CommandOutput{Command: p.Text}, ctx.Err()
	}
}

// Snippets returns the unqualified code blocks of the last reply.
func (a *App) Snippets() []model.Snippet {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.Snippet(nil), a.snippets...)
}

// InsertSnippet appends the snippet at index to the active document.
func (a *App) InsertSnippet(index int) error {
	a.mu.Lock()
	if index < 0 || index >= len(a.snippets) {
		a.mu.Unlock()
		return fmt.Errorf("snippet %d: %w", index, proposal.ErrIndexOutOfRange)
	}
	s := a.snippets[index]
	a.mu.Unlock()

	if err := a.store.AppendToActive(s.Content); err != nil {
		return err
	}
	a.sync()
	return nil
}

// Load opens the context file, then either asks the assistant or reads a
// reply from the source provider, and stages the result.
func (a *App) Load(ctx context.Context) (parsed model.Parsed, err error) {
	defer recoverPanic(&err)

	if a.cfg.ContextFile != "" {
		if _, err := a.OpenFile(ctx, a.cfg.ContextFile); err != nil {
			return model.Parsed{}, err
		}
	}
	if a.cfg.Prompt != "" {
		return a.Ask(ctx, a.cfg.Prompt)
	}
	content, err := a.source.GetContent()
	if err != nil {
		return model.Parsed{}, err
	}
	if strings.TrimSpace(content) == "" {
		return model.Parsed{}, nil
	}
	return a.HandleResponse(ctx, content)
}

// Run executes the non-interactive flow selected by the flags.
func (a *App) Run(ctx context.Context) (summary model.Summary, err error) {
	defer recoverPanic(&err)

	parsed, err := a.Load(ctx)
	if err != nil {
		return model.Summary{}, err
	}
	if parsed.IsEmpty() {
		return model.Summary{Message: "Nothing proposed. Nothing to do."}, nil
	}

	if a.cfg.DryRun {
		ui.PrintProposal(parsed)
		a.Reject()
		return model.Summary{Message: "Dry run: no files were changed."}, nil
	}
	if !a.cfg.Yes {
		ui.PrintProposal(parsed)
		return model.Summary{Message: "Proposal staged. Use --yes to apply it."}, nil
	}

	summary = a.AcceptAll(ctx)
	if a.cfg.RunCommands {
		for i := range a.Commands() {
			out, err := a.RunCommand(ctx, i)
			if err != nil {
				ui.Error("%v", err)
				continue
			}
			ui.PrintCommandOutput(out)
		}
	}
	return summary, nil
}

func recoverPanic(err *error) {
	if r := recover(); r != nil {
		*err = &DetailedError{
			Err:   fmt.Errorf("internal panic: %v", r),
			Stack: debug.Stack(),
		}
	}
}
