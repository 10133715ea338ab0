package parser

import (
	"io"
	"os"
	"reflect"
	"testing"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/ui"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/model"
)

func TestMain(m *testing.M) {
	ui.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  model.Parsed
	}{
		{
			name:  "prose only",
			input: "Just some prose.\n\nA paragraph costing $ 5 with no commands.",
			want:  model.Parsed{},
		},
		{
			name:  "path-qualified block",
			input: "```python:app.py\nprint(1)\n```",
			want: model.Parsed{Changes: []model.Change{
				{Kind: model.Update, Path: "app.py", Content: "print(1)", Language: "python"},
			}},
		},
		{
			name:  "inline command",
			input: "$ ls -la\n",
			want:  model.Parsed{Commands: []model.CommandProposal{{Text: "ls -la"}}},
		},
		{
			name:  "unterminated fence",
			input: "Here you go:\n\n```go:main.go\npackage main\n",
			want:  model.Parsed{},
		},
		{
			name:  "shell fence yields one command per line",
			input: "```bash\nnpm install\n\n$ npm test\n```\n",
			want: model.Parsed{Commands: []model.CommandProposal{
				{Text: "npm install"},
				{Text: "npm test"},
			}},
		},
		{
			name:  "plain fence is a snippet",
			input: "```go\n\tfmt.Println(\"hi\")\n```\n",
			want:  model.Parsed{Snippets: []model.Snippet{{Language: "go", Content: "fmt.Println(\"hi\")"}}},
		},
		{
			name:  "untagged fence is a snippet",
			input: "```\nsome text\n```\n",
			want:  model.Parsed{Snippets: []model.Snippet{{Content: "some text"}}},
		},
		{
			name:  "language with empty path is a plain block",
			input: "```python:\nx = 1\n```\n",
			want:  model.Parsed{Snippets: []model.Snippet{{Language: "python", Content: "x = 1"}}},
		},
		{
			name:  "missing language is derived from the path",
			input: "```:docs/notes.md\n# Notes\n```\n",
			want: model.Parsed{Changes: []model.Change{
				{Kind: model.Update, Path: "docs/notes.md", Content: "# Notes", Language: "markdown"},
			}},
		},
		{
			name:  "command lines inside a file block stay file content",
			input: "```sh:setup.sh\n$ echo hi\n```\n",
			want: model.Parsed{Changes: []model.Change{
				{Kind: model.Update, Path: "setup.sh", Content: "$ echo hi", Language: "sh"},
			}},
		},
		{
			name:  "indented dollar line is not a command",
			input: "Try it:\n  $ make\n",
			want:  model.Parsed{},
		},
		{
			name:  "tilde fence",
			input: "~~~js:web/a.js\nconsole.log(1)\n~~~\n",
			want: model.Parsed{Changes: []model.Change{
				{Kind: model.Update, Path: "web/a.js", Content: "console.log(1)", Language: "js"},
			}},
		},
		{
			name:  "path with spaces",
			input: "```python:my file.py\nprint(1)\n```\n",
			want: model.Parsed{Changes: []model.Change{
				{Kind: model.Update, Path: "my file.py", Content: "print(1)", Language: "python"},
			}},
		},
		{
			name:  "fence closed on the last body line",
			input: "```python:app.py\nprint(1)```",
			want: model.Parsed{Changes: []model.Change{
				{Kind: model.Update, Path: "app.py", Content: "print(1)", Language: "python"},
			}},
		},
		{
			name:  "setext underline under a command",
			input: "$ make build\n---\n",
			want:  model.Parsed{Commands: []model.CommandProposal{{Text: "make build"}}},
		},
		{
			name:  "command as lazy list continuation",
			input: "- build it\n$ make build\n",
			want:  model.Parsed{Commands: []model.CommandProposal{{Text: "make build"}}},
		},
		{
			name:  "empty block is ignored",
			input: "```python:empty.py\n```\n",
			want:  model.Parsed{},
		},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q)\n got: %+v\nwant: %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePreservesSourceOrder(t *testing.T) {
	input := "First change:\n" +
		"```js:a.js\nA\n```\n\n" +
		"Then run:\n$ echo one\n\n" +
		"```py:b.py\nB\n```\n\n" +
		"$ echo two\n"

	got := New().Parse(input)

	var paths []string
	for _, c := range got.Changes {
		paths = append(paths, c.Path)
	}
	if !reflect.DeepEqual(paths, []string{"a.js", "b.py"}) {
		t.Errorf("change order = %v", paths)
	}
	want := []model.CommandProposal{{Text: "echo one"}, {Text: "echo two"}}
	if !reflect.DeepEqual(got.Commands, want) {
		t.Errorf("commands = %+v, want %+v", got.Commands, want)
	}
}

func TestParseUnterminatedAfterValidBlock(t *testing.T) {
	input := "```py:ok.py\nok = True\n```\n\n```py:broken.py\nbroken = True\n"
	got := New().Parse(input)
	if len(got.Changes) != 1 || got.Changes[0].Path != "ok.py" {
		t.Fatalf("changes = %+v, want only ok.py", got.Changes)
	}
}

func TestParseContinuesAfterInlineClosingFence(t *testing.T) {
	input := "```python:a.py\na = 1```\n\nThen:\n\n```go:b.go\npackage b\n```\n\n$ go test ./...\n"
	got := New().Parse(input)

	want := []model.Change{
		{Kind: model.Update, Path: "a.py", Content: "a = 1", Language: "python"},
		{Kind: model.Update, Path: "b.go", Content: "package b", Language: "go"},
	}
	if !reflect.DeepEqual(got.Changes, want) {
		t.Errorf("changes = %+v, want %+v", got.Changes, want)
	}
	if !reflect.DeepEqual(got.Commands, []model.CommandProposal{{Text: "go test ./..."}}) {
		t.Errorf("commands = %+v", got.Commands)
	}
}

func TestSplitInfo(t *testing.T) {
	tests := []struct {
		info, lang, path string
	}{
		{"python:app.py", "python", "app.py"},
		{"python:my file.py", "python", "my file.py"},
		{"  go : cmd/main.go  ", "go", "cmd/main.go"},
		{":notes.txt", "", "notes.txt"},
		{"js", "js", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		lang, path := splitInfo(tt.info)
		if lang != tt.lang || path != tt.path {
			t.Errorf("splitInfo(%q) = %q, %q, want %q, %q", tt.info, lang, path, tt.lang, tt.path)
		}
	}
}

func TestCleanResponse(t *testing.T) {
	in := "<think>\nlet me plan\n```py:x.py\nx\n```\n</think>\n\nHere is the answer."
	if got := CleanResponse(in); got != "Here is the answer." {
		t.Errorf("CleanResponse = %q", got)
	}
	if got := CleanResponse("  plain  "); got != "plain" {
		t.Errorf("CleanResponse = %q", got)
	}
}
