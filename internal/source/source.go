package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/ui"
)

// SourceProvider retrieves assistant text pasted by the user.
type SourceProvider struct {
	stdin     io.Reader
	isPiped   func() bool
	clipboard func() (string, error)
}

// New creates a provider reading from os.Stdin or the system clipboard.
func New() *SourceProvider {
	return &SourceProvider{
		stdin:     os.Stdin,
		isPiped:   stdinIsPiped,
		clipboard: clipboard.ReadAll,
	}
}

// NewReader creates a provider that always reads from r.
func NewReader(r io.Reader) *SourceProvider {
	return &SourceProvider{
		stdin:   r,
		isPiped: func() bool { return true },
	}
}

func stdinIsPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// GetContent retrieves content from stdin (if piped) or the clipboard. An
// empty clipboard yields "" without an error.
func (sp *SourceProvider) GetContent() (string, error) {
	if sp.isPiped() {
		ui.Header("--- Reading from stdin ---")
		content, err := io.ReadAll(sp.stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(content), nil
	}

	ui.Header("--- Reading from clipboard ---")
	content, err := sp.clipboard()
	if err != nil {
		return "", fmt.Errorf("failed to read from clipboard: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		ui.Warning("Clipboard is empty. Nothing to process.")
		return "", nil
	}
	return content, nil
}
