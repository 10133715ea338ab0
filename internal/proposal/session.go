package proposal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/model"
)

// ErrIndexOutOfRange is returned by ApplyOne for a position that is not pending.
var ErrIndexOutOfRange = errors.New("change index out of range")

// State is the lifecycle state of a session.
type State int

const (
	Empty State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "empty"
}

// Applier performs one change.
type Applier interface {
	Apply(ctx context.Context, change model.Change) model.ApplyResult
}

// NewChangeSet wraps changes in a set with a fresh identity.
func NewChangeSet(changes []model.Change) model.ChangeSet {
	return model.ChangeSet{
		ID:      uuid.NewString(),
		Changes: append([]model.Change(nil), changes...),
	}
}

type entry struct {
	seq    int
	change model.Change
}

// Session holds the change set the user is currently asked to approve. At
// most one set is pending; staging a new one discards the previous.
type Session struct {
	mu      sync.Mutex
	id      string
	entries []entry
}

// New creates an empty session.
func New() *Session {
	return &Session{}
}

// Stage replaces whatever is pending with set. Applies already running for
// an earlier set finish, but never touch the new one.
func (s *Session) Stage(set model.ChangeSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(set.Changes) == 0 {
		s.clear()
		return
	}
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	s.id = set.ID
	s.entries = make([]entry, len(set.Changes))
	for i, c := range set.Changes {
		s.entries[i] = entry{seq: i, change: c}
	}
}

// Reject discards the pending set. Rejecting an empty session is a no-op.
func (s *Session) Reject() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

func (s *Session) clear() {
	s.id = ""
	s.entries = nil
}

// State reports whether a set is pending.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return Empty
	}
	return Pending
}

// Len returns the number of pending changes.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Pending returns a copy of the remaining changes.
func (s *Session) Pending() model.ChangeSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := model.ChangeSet{ID: s.id}
	for _, e := range s.entries {
		set.Changes = append(set.Changes, e.change)
	}
	return set
}

func (s *Session) snapshot() (string, []entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, append([]entry(nil), s.entries...)
}

func (s *Session) isCurrent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return id != "" && s.id == id
}

// ApplyAll applies the pending changes in order. A failing change does not
// stop the rest; every failure is in the returned report. The session is
// emptied afterwards even if some changes failed, unless a newer set was
// staged in the meantime. Reject stops changes that have not started yet.
func (s *Session) ApplyAll(ctx context.Context, applier Applier) model.Report {
	id, items := s.snapshot()

	var report model.Report
	for _, e := range items {
		if !s.isCurrent(id) {
			break
		}
		report.Results = append(report.Results, applier.Apply(ctx, e.change))
	}

	s.mu.Lock()
	if s.id == id {
		s.clear()
	}
	s.mu.Unlock()
	return report
}

// ApplyOne applies the pending change at index. On success only that change
// leaves the pending set; on failure it stays staged for a retry.
func (s *Session) ApplyOne(ctx context.Context, index int, applier Applier) (model.ApplyResult, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.entries) {
		n := len(s.entries)
		s.mu.Unlock()
		return model.ApplyResult{}, fmt.Errorf("apply change %d of %d: %w", index, n, ErrIndexOutOfRange)
	}
	id, e := s.id, s.entries[index]
	s.mu.Unlock()

	res := applier.Apply(ctx, e.change)
	if res.Err != nil {
		return res, res.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id != id {
		return res, nil
	}
	for i, cur := range s.entries {
		if cur.seq == e.seq {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	if len(s.entries) == 0 {
		s.clear()
	}
	return res, nil
}
