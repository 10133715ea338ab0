package nvim

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/neovim/go-client/nvim"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/model"
)

// Surface renders the active document into a Neovim instance.
type Surface struct {
	nvim          *nvim.Nvim
	root          string
	isSelfStarted bool
	cmd           *exec.Cmd
	socketPath    string
}

// New connects to the instance named by NVIM_LISTEN_ADDRESS, or starts a
// headless one. Relative document paths are resolved against root.
func New(root string) (*Surface, error) {
	if addr := os.Getenv("NVIM_LISTEN_ADDRESS"); addr != "" {
		v, err := nvim.Dial(addr)
		if err == nil {
			return &Surface{nvim: v, root: root}, nil
		}
	}

	tmpDir, err := os.MkdirTemp("", "aide-nvim-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir for nvim: %w", err)
	}
	socketPath := filepath.Join(tmpDir, "nvim.sock")

	cmd := exec.Command("nvim", "--headless", "--clean", "--listen", socketPath)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to start headless nvim: %w. Is 'nvim' in your PATH?", err)
	}

	for i := 0; i < 40; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	v, err := nvim.Dial(socketPath)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to connect to headless nvim: %w", err)
	}

	s := &Surface{
		nvim:          v,
		root:          root,
		isSelfStarted: true,
		cmd:           cmd,
		socketPath:    socketPath,
	}
	// The store owns disk writes; the headless instance never writes.
	if err := s.nvim.Command("set noswapfile"); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to configure nvim: %w", err)
	}
	return s, nil
}

// Close disconnects from Neovim and cleans up if it was self-started.
func (s *Surface) Close() {
	if s.nvim != nil {
		s.nvim.Close()
	}
	if s.isSelfStarted && s.cmd != nil && s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err == nil {
			s.cmd.Wait()
			os.RemoveAll(filepath.Dir(s.socketPath))
		}
	}
}

// Show replaces the current buffer with doc. Documents without a path get a
// scratch buffer.
func (s *Surface) Show(doc model.Document) error {
	b := s.nvim.NewBatch()
	if doc.Path == "" {
		b.Command("enew!")
		b.Command("setlocal buftype=nofile bufhidden=wipe")
	} else {
		b.Command("edit! " + escapePath(s.abs(doc.Path)))
	}
	b.Command("setlocal modifiable")
	b.SetBufferLines(0, 0, -1, true, toLines(doc.Content))
	if doc.Language != "" {
		b.Command("setlocal filetype=" + doc.Language)
	}
	if doc.ReadOnly {
		b.Command("setlocal nomodifiable")
	}
	if err := b.Execute(); err != nil {
		return fmt.Errorf("failed to show %q in nvim: %w", doc.Path, err)
	}
	return nil
}

func (s *Surface) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, filepath.FromSlash(path))
}

func toLines(content string) [][]byte {
	content = strings.TrimSuffix(content, "\n")
	parts := strings.Split(content, "\n")
	lines := make([][]byte, len(parts))
	for i, p := range parts {
		lines[i] = []byte(p)
	}
	return lines
}

// pathEscaper escapes the characters fnameescape() escapes, so a path is
// one argument to :edit and is never expanded or split at a bar.
var pathEscaper = strings.NewReplacer(
	`\`, `\\`, " ", `\ `, "\t", "\\\t", "|", `\|`, "%", `\%`, "#", `\#`,
	"*", `\*`, "?", `\?`, "[", `\[`, "{", `\{`, "`", "\\`", "$", `\$`,
	"'", `\'`, `"`, `\"`, "!", `\!`, "<", `\<`,
)

func escapePath(p string) string {
	return pathEscaper.Replace(p)
}
