package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/model"
)

var (
	// ErrNotOpen is returned for operations on a path with no open document.
	ErrNotOpen = errors.New("document is not open")
	// ErrReadOnly is returned when editing the placeholder document.
	ErrReadOnly = errors.New("document is read-only")
)

const welcomeText = `// Welcome to AI-Supported IDE
// Open a file from the explorer or create a new file to get started

// Quick Tips:
// - Use the file explorer on the left to open files
// - Use the terminal below for commands
// - Use the chat panel on the right for AI assistance`

// Placeholder returns the read-only document shown when nothing is open.
func Placeholder() model.Document {
	return model.Document{
		Content:  welcomeText,
		Language: plaintext,
		ReadOnly: true,
	}
}

// Store owns the open documents, at most one per path, and tracks which one
// is bound to the editing surface.
type Store struct {
	mu     sync.Mutex
	docs   map[string]*model.Document
	order  []string // open order, oldest first
	active string   // empty means the placeholder is active
}

// NewStore creates an empty store showing the placeholder.
func NewStore() *Store {
	return &Store{docs: make(map[string]*model.Document)}
}

func key(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// Open activates the document for path, creating it if needed. A document
// that is already open keeps its buffer, including unsaved edits.
func (s *Store) Open(path, content, language string) model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(path)
	if doc, ok := s.docs[k]; ok {
		s.active = k
		return *doc
	}
	if language == "" {
		language = LanguageForPath(k)
	}
	doc := &model.Document{Path: k, Content: content, Language: language}
	s.docs[k] = doc
	s.order = append(s.order, k)
	s.active = k
	return *doc
}

// Close discards the document for path. Closing the active document
// activates the most recently opened remaining one, or the placeholder.
// Closing a path that is not open does nothing.
func (s *Store) Close(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(path)
	if _, ok := s.docs[k]; !ok {
		return
	}
	delete(s.docs, k)
	for i, p := range s.order {
		if p == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active != k {
		return
	}
	s.active = ""
	if n := len(s.order); n > 0 {
		s.active = s.order[n-1]
	}
}

// CloseAll discards every document.
func (s *Store) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*model.Document)
	s.order = nil
	s.active = ""
}

// Activate binds an open document to the editing surface.
func (s *Store) Activate(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(path)
	if _, ok := s.docs[k]; !ok {
		return fmt.Errorf("activate %s: %w", path, ErrNotOpen)
	}
	s.active = k
	return nil
}

// Active returns the bound document, or the placeholder when none is open.
func (s *Store) Active() model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[s.active]; ok {
		return *doc
	}
	return Placeholder()
}

// Get returns the open document for path.
func (s *Store) Get(path string) (model.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key(path)]
	if !ok {
		return model.Document{}, false
	}
	return *doc, true
}

// Paths lists open documents in the order they were opened.
func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Len returns the number of open documents. The placeholder is never counted.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Edit replaces the buffer of an open document and marks it dirty.
func (s *Store) Edit(path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[key(path)]
	if !ok {
		return fmt.Errorf("edit %s: %w", path, ErrNotOpen)
	}
	if doc.Content != content {
		doc.Content = content
		doc.IsDirty = true
	}
	return nil
}

// AppendToActive inserts text at the end of the active document.
func (s *Store) AppendToActive(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[s.active]
	if !ok {
		return fmt.Errorf("insert into placeholder: %w", ErrReadOnly)
	}
	if doc.Content != "" && doc.Content[len(doc.Content)-1] != '\n' {
		doc.Content += "\n"
	}
	doc.Content += text
	doc.IsDirty = true
	return nil
}

// Refresh mirrors content that was just written to disk. It reports whether
// a document for path was open.
func (s *Store) Refresh(path, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[key(path)]
	if !ok {
		return false
	}
	doc.Content = content
	doc.IsDirty = false
	return true
}
