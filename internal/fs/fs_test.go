package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "app.py", want: "app.py"},
		{in: "./src/../src/main.go", want: "src/main.go"},
		{in: " web/index.js ", want: "web/index.js"},
		{in: "../secret", wantErr: true},
		{in: "a/../../b", wantErr: true},
		{in: "/etc/passwd", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanPath(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrOutsideRoot) {
					t.Fatalf("CleanPath(%q) error = %v, want ErrOutsideRoot", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CleanPath(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("CleanPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestOSReadWrite(t *testing.T) {
	root := t.TempDir()
	resolver, err := NewPathResolver(root)
	if err != nil {
		t.Fatalf("NewPathResolver: %v", err)
	}
	fsys := NewOS(resolver)
	ctx := context.Background()

	if _, err := fsys.ReadFile(ctx, "missing.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ReadFile of missing file = %v, want ErrNotFound", err)
	}

	if err := fsys.WriteFile(ctx, "nested/dir/file.txt", "hello"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "nested", "dir", "file.txt"))
	if err != nil {
		t.Fatalf("file not written to disk: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("disk content = %q, want %q", data, "hello")
	}

	got, err := fsys.ReadFile(ctx, "nested/dir/file.txt")
	if err != nil || got != "hello" {
		t.Errorf("ReadFile = %q, %v", got, err)
	}

	if err := fsys.WriteFile(ctx, "../escape.txt", "x"); !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("WriteFile outside root = %v, want ErrOutsideRoot", err)
	}
	if rel := resolver.Rel(filepath.Join(root, "nested", "dir", "file.txt")); rel != "nested/dir/file.txt" {
		t.Errorf("Rel = %q", rel)
	}
}

func TestMemoryFailOn(t *testing.T) {
	m := NewMemory(map[string]string{"a.txt": "old"})
	ctx := context.Background()
	boom := errors.New("read-only volume")
	m.FailOn("a.txt", boom)

	if err := m.WriteFile(ctx, "a.txt", "new"); !errors.Is(err, boom) {
		t.Fatalf("WriteFile = %v, want %v", err, boom)
	}
	if c, _ := m.Content("a.txt"); c != "old" {
		t.Errorf("content changed despite failure: %q", c)
	}
	if err := m.WriteFile(ctx, "b.txt", "b"); err != nil {
		t.Fatalf("WriteFile b.txt: %v", err)
	}
	if m.Writes("b.txt") != 1 || m.Writes("a.txt") != 0 {
		t.Errorf("write counts = a:%d b:%d", m.Writes("a.txt"), m.Writes("b.txt"))
	}
}
