package model

import (
	"errors"
	"fmt"
)

// Document is the in-memory buffer of one open file.
type Document struct {
	Path     string
	Content  string
	Language string
	IsDirty  bool
	// ReadOnly is only set on the placeholder shown when no file is open.
	ReadOnly bool
}

// ChangeKind classifies a proposed file change.
type ChangeKind int

const (
	Update ChangeKind = iota
	Create
)

func (k ChangeKind) String() string {
	switch k {
	case Create:
		return "create"
	case Update:
		return "update"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// DiffLine is one line of a line-level diff. Marker is '+', '-' or ' '.
type DiffLine struct {
	Marker byte
	Text   string
}

func (l DiffLine) String() string {
	return string(l.Marker) + l.Text
}

// Change is a single proposed file create or update.
type Change struct {
	Kind     ChangeKind
	Path     string
	Content  string
	Language string // empty when unknown
	// DiffLines is only set for updates once a diff against the current
	// content has been computed.
	DiffLines []DiffLine
}

// CommandProposal is one shell command line extracted from assistant text.
type CommandProposal struct {
	Text string
}

// Snippet is a plain fenced block meant for insertion into the active document.
type Snippet struct {
	Language string
	Content  string
}

// ChangeSet is the ordered group of changes from one assistant response.
type ChangeSet struct {
	ID      string
	Changes []Change
}

// Len returns the number of changes in the set.
func (s ChangeSet) Len() int {
	return len(s.Changes)
}

// Parsed is everything extracted from one assistant reply.
type Parsed struct {
	Changes  []Change
	Commands []CommandProposal
	Snippets []Snippet
}

// IsEmpty reports whether nothing was extracted.
func (p Parsed) IsEmpty() bool {
	return len(p.Changes) == 0 && len(p.Commands) == 0 && len(p.Snippets) == 0
}

// Outcome is how the apply step classified a change.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeCreated
	OutcomeUpdated
	OutcomeUnchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "failed"
	}
}

// ApplyResult is the result of applying one change.
type ApplyResult struct {
	Path    string
	Outcome Outcome
	Err     error
}

// Report aggregates the results of applying a change set.
type Report struct {
	Results []ApplyResult
}

// Failed returns the results that carry an error.
func (r Report) Failed() []ApplyResult {
	var failed []ApplyResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Succeeded returns the results without an error.
func (r Report) Succeeded() []ApplyResult {
	var ok []ApplyResult
	for _, res := range r.Results {
		if res.Err == nil {
			ok = append(ok, res)
		}
	}
	return ok
}

// Err joins all per-change errors, or returns nil if every change applied.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

// CommandOutput is the captured result of one command.
type CommandOutput struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
}

// Summary holds the results of an operation for display.
type Summary struct {
	Created   []string
	Modified  []string
	Unchanged []string
	Failed    []string
	Message   string
}

// NewSummary groups a report by outcome.
func NewSummary(r Report) Summary {
	var s Summary
	for _, res := range r.Results {
		switch {
		case res.Err != nil:
			s.Failed = append(s.Failed, res.Path)
		case res.Outcome == OutcomeCreated:
			s.Created = append(s.Created, res.Path)
		case res.Outcome == OutcomeUpdated:
			s.Modified = append(s.Modified, res.Path)
		case res.Outcome == OutcomeUnchanged:
			s.Unchanged = append(s.Unchanged, res.Path)
		}
	}
	return s
}
