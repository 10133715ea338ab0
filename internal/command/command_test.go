package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/model"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell tests need sh")
	}
}

func TestLocalCapturesBothStreams(t *testing.T) {
	skipWithoutShell(t)
	r := NewRunner(&Local{Dir: t.TempDir()})

	out, err := r.Run(context.Background(), model.CommandProposal{Text: "echo out; echo err 1>&2; exit 3"})
	if err != nil {
		t.Fatalf("non-zero exit returned an error: %v", err)
	}
	if strings.TrimSpace(out.Stdout) != "out" {
		t.Errorf("Stdout = %q", out.Stdout)
	}
	if strings.TrimSpace(out.Stderr) != "err" {
		t.Errorf("Stderr = %q", out.Stderr)
	}
	if out.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", out.ExitCode)
	}
}

func TestLocalRunsInDir(t *testing.T) {
	skipWithoutShell(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	out, err := NewRunner(&Local{Dir: dir}).Run(context.Background(), model.CommandProposal{Text: "ls"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.Stdout, "marker.txt") {
		t.Errorf("ls output %q does not list marker.txt", out.Stdout)
	}
}

func TestLocalTimeoutIsTransportFailure(t *testing.T) {
	skipWithoutShell(t)
	r := NewRunner(&Local{Timeout: 50 * time.Millisecond})
	_, err := r.Run(context.Background(), model.CommandProposal{Text: "sleep 5"})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestRunRejectsEmptyCommand(t *testing.T) {
	r := NewRunner(&Local{})
	if _, err := r.Run(context.Background(), model.CommandProposal{Text: "   "}); err == nil {
		t.Fatal("expected an error for an empty command")
	}
}

type unreachable struct{}

func (unreachable) Execute(context.Context, string) (model.CommandOutput, error) {
	return model.CommandOutput{}, ErrTransport
}

func TestGoDeliversOneResult(t *testing.T) {
	r := NewRunner(unreachable{})
	res := <-r.Go(context.Background(), model.CommandProposal{Text: "ls"})
	if !errors.Is(res.Err, ErrTransport) {
		t.Fatalf("Err = %v", res.Err)
	}
}
