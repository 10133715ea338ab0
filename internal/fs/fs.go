package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned by ReadFile when no file exists at the path.
	ErrNotFound = errors.New("file not found")
	// ErrOutsideRoot is returned for paths that leave the workspace root.
	ErrOutsideRoot = errors.New("path is outside the workspace")
)

// FileSystem is the storage collaborator used by the apply step.
type FileSystem interface {
	// ReadFile returns the content at path, or an error wrapping ErrNotFound.
	ReadFile(ctx context.Context, path string) (string, error)
	// WriteFile stores content at path, creating parent directories as needed.
	WriteFile(ctx context.Context, path, content string) error
}

// CleanPath normalises a workspace-relative path. Absolute paths and paths
// climbing above the root are rejected.
func CleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("empty path: %w", ErrOutsideRoot)
	}
	if filepath.IsAbs(p) {
		return "", fmt.Errorf("%s: %w", p, ErrOutsideRoot)
	}
	clean := filepath.Clean(filepath.FromSlash(p))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", p, ErrOutsideRoot)
	}
	return filepath.ToSlash(clean), nil
}

// PathResolver maps workspace-relative paths onto the local disk.
type PathResolver struct {
	root string
}

// NewPathResolver creates a resolver rooted at root, or at the working
// directory when root is empty.
func NewPathResolver(root string) (*PathResolver, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace root '%s': %w", root, err)
	}
	return &PathResolver{root: abs}, nil
}

// Root returns the absolute workspace root.
func (r *PathResolver) Root() string {
	return r.root
}

// Resolve returns the absolute location of a workspace-relative path.
func (r *PathResolver) Resolve(relativePath string) (string, error) {
	clean, err := CleanPath(relativePath)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.root, filepath.FromSlash(clean)), nil
}

// Rel converts an absolute path back to a workspace-relative one. Paths that
// cannot be made relative are returned unchanged.
func (r *PathResolver) Rel(absPath string) string {
	rel, err := filepath.Rel(r.root, absPath)
	if err != nil {
		return absPath
	}
	return filepath.ToSlash(rel)
}

// OS is a FileSystem backed by the local disk below a workspace root.
type OS struct {
	resolver *PathResolver
}

// NewOS creates a disk-backed FileSystem.
func NewOS(resolver *PathResolver) *OS {
	return &OS{resolver: resolver}
}

func (o *OS) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, err := o.resolver.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return "", err
	}
	return string(data), nil
}

func (o *OS) WriteFile(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := o.resolver.Resolve(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(abs); dir != o.resolver.root {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create directory '%s': %w", dir, err)
		}
	}
	return os.WriteFile(abs, []byte(content), 0644)
}
