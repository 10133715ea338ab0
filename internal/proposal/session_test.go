package proposal

import (
	"context"
	"errors"
	"testing"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/apply"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/document"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/fs"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/model"
)

func changes(paths ...string) []model.Change {
	out := make([]model.Change, len(paths))
	for i, p := range paths {
		out[i] = model.Change{Kind: model.Update, Path: p, Content: "content of " + p}
	}
	return out
}

func TestStateMachine(t *testing.T) {
	s := New()
	if s.State() != Empty {
		t.Fatalf("new session state = %v", s.State())
	}

	s.Stage(NewChangeSet(changes("a", "b")))
	if s.State() != Pending || s.Len() != 2 {
		t.Fatalf("after Stage: state=%v len=%d", s.State(), s.Len())
	}

	s.Reject()
	if s.State() != Empty {
		t.Fatalf("after Reject: state=%v", s.State())
	}
	s.Reject()
	if s.State() != Empty {
		t.Fatal("second Reject changed state")
	}
}

func TestStageReplacesWithoutMerging(t *testing.T) {
	s := New()
	first := NewChangeSet(changes("a", "b"))
	second := NewChangeSet(changes("c"))
	s.Stage(first)
	s.Stage(second)

	pending := s.Pending()
	if pending.ID != second.ID || pending.Len() != 1 || pending.Changes[0].Path != "c" {
		t.Fatalf("Pending = %+v", pending)
	}

	s.Stage(model.ChangeSet{})
	if s.State() != Empty {
		t.Error("staging an empty set should leave the session empty")
	}
}

func TestRejectLeavesFilesystemUntouched(t *testing.T) {
	mem := fs.NewMemory(map[string]string{"a": "original"})
	s := New()
	s.Stage(NewChangeSet(changes("a", "new")))
	s.Reject()

	report := s.ApplyAll(context.Background(), apply.New(mem, nil))
	if len(report.Results) != 0 {
		t.Fatalf("ApplyAll after Reject applied %d changes", len(report.Results))
	}
	if c, _ := mem.Content("a"); c != "original" {
		t.Errorf("a = %q", c)
	}
	if _, ok := mem.Content("new"); ok {
		t.Error("new was created after reject")
	}
}

func TestApplyAllRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := fs.NewMemory(map[string]string{"p.py": "old"})
	store := document.NewStore()
	store.Open("p.py", "old", "python")
	coord := apply.New(mem, store)

	s := New()
	s.Stage(NewChangeSet([]model.Change{{Kind: model.Update, Path: "p.py", Content: "C"}}))
	report := s.ApplyAll(ctx, coord)
	if err := report.Err(); err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	if got, _ := mem.Content("p.py"); got != "C" {
		t.Errorf("disk = %q, want C", got)
	}
	if doc := store.Active(); doc.Content != "C" || doc.IsDirty {
		t.Errorf("active document = %+v", doc)
	}
	if s.State() != Empty {
		t.Error("session still pending after ApplyAll")
	}

	// Same set again: nothing to write.
	s.Stage(NewChangeSet([]model.Change{{Kind: model.Update, Path: "p.py", Content: "C"}}))
	report = s.ApplyAll(ctx, coord)
	if len(report.Results) != 1 || report.Results[0].Outcome != model.OutcomeUnchanged {
		t.Fatalf("second apply = %+v", report.Results)
	}
	if mem.Writes("p.py") != 1 {
		t.Errorf("writes = %d, want 1", mem.Writes("p.py"))
	}

	// Disk already holds C while the buffer has unsaved edits.
	_ = store.Edit("p.py", "D")
	s.Stage(NewChangeSet([]model.Change{{Kind: model.Update, Path: "p.py", Content: "C"}}))
	report = s.ApplyAll(ctx, coord)
	if report.Results[0].Outcome != model.OutcomeUnchanged || mem.Writes("p.py") != 1 {
		t.Fatalf("third apply = %+v, writes %d", report.Results, mem.Writes("p.py"))
	}
	if doc := store.Active(); doc.Content != "C" || doc.IsDirty {
		t.Errorf("active document after unchanged apply = %+v", doc)
	}
}

func TestApplyAllContinuesPastFailure(t *testing.T) {
	ctx := context.Background()
	mem := fs.NewMemory(nil)
	boom := errors.New("io error")
	mem.FailOn("first.txt", boom)

	s := New()
	s.Stage(NewChangeSet([]model.Change{
		{Path: "first.txt", Content: "1"},
		{Path: "second.txt", Content: "2"},
	}))
	report := s.ApplyAll(ctx, apply.New(mem, nil))

	if len(report.Failed()) != 1 || report.Failed()[0].Path != "first.txt" {
		t.Fatalf("failed = %+v", report.Failed())
	}
	if len(report.Succeeded()) != 1 || report.Succeeded()[0].Path != "second.txt" {
		t.Fatalf("succeeded = %+v", report.Succeeded())
	}
	if !errors.Is(report.Err(), boom) {
		t.Errorf("report.Err() = %v", report.Err())
	}
	if s.State() != Empty {
		t.Error("pending set not cleared after partial failure")
	}
	if got, _ := mem.Content("second.txt"); got != "2" {
		t.Errorf("second.txt = %q", got)
	}
}

func TestApplyOne(t *testing.T) {
	ctx := context.Background()
	mem := fs.NewMemory(nil)
	coord := apply.New(mem, nil)
	s := New()
	s.Stage(NewChangeSet(changes("a", "b", "c")))

	if _, err := s.ApplyOne(ctx, 1, coord); err != nil {
		t.Fatalf("ApplyOne: %v", err)
	}
	pending := s.Pending()
	if pending.Len() != 2 || pending.Changes[0].Path != "a" || pending.Changes[1].Path != "c" {
		t.Fatalf("pending after ApplyOne = %+v", pending.Changes)
	}
	if _, ok := mem.Content("b"); !ok {
		t.Fatal("b was not written")
	}

	if _, err := s.ApplyOne(ctx, 5, coord); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("out-of-range ApplyOne = %v", err)
	}
	if _, err := s.ApplyOne(ctx, -1, coord); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("negative ApplyOne = %v", err)
	}

	for s.Len() > 0 {
		if _, err := s.ApplyOne(ctx, 0, coord); err != nil {
			t.Fatalf("ApplyOne: %v", err)
		}
	}
	if s.State() != Empty {
		t.Error("session not empty after applying the last change")
	}
}

func TestApplyOneFailureKeepsChangeStaged(t *testing.T) {
	mem := fs.NewMemory(nil)
	mem.FailOn("a", errors.New("denied"))
	s := New()
	s.Stage(NewChangeSet(changes("a")))

	res, err := s.ApplyOne(context.Background(), 0, apply.New(mem, nil))
	if err == nil || res.Path != "a" {
		t.Fatalf("ApplyOne = %+v, %v", res, err)
	}
	if s.Len() != 1 {
		t.Error("failed change was removed from the pending set")
	}
}

// hookApplier runs a hook before delegating, to simulate user actions that
// arrive while an apply is in flight.
type hookApplier struct {
	next  Applier
	calls int
	hook  func(call int)
}

func (h *hookApplier) Apply(ctx context.Context, c model.Change) model.ApplyResult {
	h.calls++
	if h.hook != nil {
		h.hook(h.calls)
	}
	return h.next.Apply(ctx, c)
}

func TestRejectStopsRemainingApplies(t *testing.T) {
	mem := fs.NewMemory(nil)
	s := New()
	s.Stage(NewChangeSet(changes("a", "b", "c")))

	h := &hookApplier{next: apply.New(mem, nil)}
	h.hook = func(call int) {
		if call == 1 {
			s.Reject()
		}
	}
	report := s.ApplyAll(context.Background(), h)

	if len(report.Results) != 1 {
		t.Fatalf("applied %d changes, want only the in-flight one", len(report.Results))
	}
	if _, ok := mem.Content("a"); !ok {
		t.Error("in-flight change did not complete")
	}
	if _, ok := mem.Content("b"); ok {
		t.Error("change after reject was applied")
	}
}

func TestLaterStageWinsOverInFlightApply(t *testing.T) {
	mem := fs.NewMemory(nil)
	s := New()
	s.Stage(NewChangeSet(changes("a", "b")))
	newer := NewChangeSet(changes("z"))

	h := &hookApplier{next: apply.New(mem, nil)}
	h.hook = func(call int) {
		if call == 1 {
			s.Stage(newer)
		}
	}
	s.ApplyAll(context.Background(), h)

	pending := s.Pending()
	if pending.ID != newer.ID || pending.Len() != 1 {
		t.Fatalf("newer set was disturbed: %+v", pending)
	}

	h.hook = func(int) { s.Stage(NewChangeSet(changes("y"))) }
	if _, err := s.ApplyOne(context.Background(), 0, h); err != nil {
		t.Fatalf("ApplyOne: %v", err)
	}
	if p := s.Pending(); p.Len() != 1 || p.Changes[0].Path != "y" {
		t.Fatalf("ApplyOne removed an entry from a newer set: %+v", p)
	}
}
