package apply

import (
	"context"
	"errors"
	"fmt"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/document"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/fs"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/model"
)

// Mirror is the in-memory view of files that must follow every write.
// Refresh updates an open buffer; Open adds a buffer for a created file.
type Mirror interface {
	Refresh(path, content string) bool
	Open(path, content, language string) model.Document
}

// Error is a failed apply of one change.
type Error struct {
	Path string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Coordinator is the only component that writes proposed content to the
// filesystem.
type Coordinator struct {
	fs     fs.FileSystem
	mirror Mirror
}

// New creates a Coordinator. mirror may be nil.
func New(fsys fs.FileSystem, mirror Mirror) *Coordinator {
	return &Coordinator{fs: fsys, mirror: mirror}
}

// current returns the content at path and whether the file exists.
func (c *Coordinator) current(ctx context.Context, path string) (string, bool, error) {
	content, err := c.fs.ReadFile(ctx, path)
	switch {
	case err == nil:
		return content, true, nil
	case errors.Is(err, fs.ErrNotFound):
		return "", false, nil
	default:
		return "", false, err
	}
}

// Apply writes one change. The change kind is re-derived from the file's
// existence at this moment; a file whose content already matches is not
// written, but an open buffer that diverges from it is still refreshed.
// A created file is opened in the mirror.
func (c *Coordinator) Apply(ctx context.Context, change model.Change) model.ApplyResult {
	path, err := fs.CleanPath(change.Path)
	if err != nil {
		return model.ApplyResult{Path: change.Path, Err: &Error{Path: change.Path, Op: "resolve", Err: err}}
	}

	existing, exists, err := c.current(ctx, path)
	if err != nil {
		return model.ApplyResult{Path: path, Err: &Error{Path: path, Op: "read", Err: err}}
	}

	outcome := model.OutcomeCreated
	op := "create"
	if exists {
		if existing == change.Content {
			if c.mirror != nil {
				c.mirror.Refresh(path, change.Content)
			}
			return model.ApplyResult{Path: path, Outcome: model.OutcomeUnchanged}
		}
		outcome = model.OutcomeUpdated
		op = "update"
	}

	if err := c.fs.WriteFile(ctx, path, change.Content); err != nil {
		return model.ApplyResult{Path: path, Err: &Error{Path: path, Op: op, Err: err}}
	}
	switch {
	case c.mirror == nil:
	case outcome == model.OutcomeCreated:
		c.mirror.Open(path, change.Content, change.Language)
	default:
		c.mirror.Refresh(path, change.Content)
	}
	return model.ApplyResult{Path: path, Outcome: outcome}
}

// Preview classifies a change for display and, for updates, attaches a diff
// against the current content. Nothing is written.
func (c *Coordinator) Preview(ctx context.Context, change model.Change) (model.Change, error) {
	path, err := fs.CleanPath(change.Path)
	if err != nil {
		return change, &Error{Path: change.Path, Op: "resolve", Err: err}
	}
	existing, exists, err := c.current(ctx, path)
	if err != nil {
		return change, &Error{Path: path, Op: "read", Err: err}
	}

	change.Path = path
	if !exists {
		change.Kind = model.Create
		change.DiffLines = nil
		return change, nil
	}
	change.Kind = model.Update
	change.DiffLines = LineDiff(existing, change.Content)
	return change, nil
}

// Save writes the open buffer for path through the same write path as
// proposed changes.
func (c *Coordinator) Save(ctx context.Context, store *document.Store, path string) model.ApplyResult {
	doc, ok := store.Get(path)
	if !ok {
		return model.ApplyResult{Path: path, Err: &Error{Path: path, Op: "save", Err: document.ErrNotOpen}}
	}
	res := c.Apply(ctx, model.Change{Path: doc.Path, Content: doc.Content, Language: doc.Language})
	if res.Err == nil {
		store.Refresh(doc.Path, doc.Content)
	}
	return res
}
