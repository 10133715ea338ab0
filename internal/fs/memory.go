package fs

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory FileSystem. Writes to paths registered with
// FailOn return the registered error.
type Memory struct {
	mu     sync.Mutex
	files  map[string]string
	fail   map[string]error
	writes map[string]int
}

// NewMemory creates an in-memory FileSystem seeded with files.
func NewMemory(files map[string]string) *Memory {
	m := &Memory{
		files:  make(map[string]string, len(files)),
		fail:   make(map[string]error),
		writes: make(map[string]int),
	}
	for p, c := range files {
		m.files[p] = c
	}
	return m
}

// FailOn makes every write to path fail with err.
func (m *Memory) FailOn(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[path] = err
}

// Writes returns how many successful writes path has received.
func (m *Memory) Writes(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[path]
}

// Content returns the stored content and whether the file exists.
func (m *Memory) Content(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.files[path]
	return c, ok
}

func (m *Memory) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return c, nil
}

func (m *Memory) WriteFile(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[path]; err != nil {
		return err
	}
	m.files[path] = content
	m.writes[path]++
	return nil
}
