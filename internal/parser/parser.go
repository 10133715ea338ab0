package parser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/document"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/ui"
	"github.com/OmkarPatkar/monaco-ai-supported-ide/model"
)

// Parser turns one assistant reply into proposals.
type Parser interface {
	Parse(reply string) model.Parsed
}

// shellLangs are fence tags whose lines are commands rather than file content.
var shellLangs = map[string]bool{
	"bash":          true,
	"sh":            true,
	"shell":         true,
	"zsh":           true,
	"console":       true,
	"terminal":      true,
	"shell-session": true,
	"shellsession":  true,
}

var reasoningRegex = regexp.MustCompile(`(?s)<think>.*?</think>`)

// CleanResponse removes <think>...</think> reasoning blocks some models emit
// before their answer.
func CleanResponse(reply string) string {
	return strings.TrimSpace(reasoningRegex.ReplaceAllString(reply, ""))
}

// Markdown extracts proposals by walking a CommonMark AST.
type Markdown struct {
	md gparser.Parser
}

// New creates a Markdown parser.
func New() *Markdown {
	return &Markdown{md: goldmark.DefaultParser()}
}

// Parse extracts changes, commands and snippets in source order. It never
// fails; malformed blocks are skipped with a warning.
func (p *Markdown) Parse(reply string) model.Parsed {
	var parsed model.Parsed
	p.parseInto([]byte(reply), &parsed)
	return parsed
}

func (p *Markdown) parseInto(source []byte, parsed *model.Parsed) {
	root := p.md.Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.FencedCodeBlock:
			p.fencedBlock(n, source, parsed)
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
			parsed.Commands = append(parsed.Commands, inlineCommands(n, source)...)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	}

	// The walker never returns an error.
	_ = ast.Walk(root, walker)
}

func (p *Markdown) fencedBlock(block *ast.FencedCodeBlock, source []byte, parsed *model.Parsed) {
	var info string
	if block.Info != nil {
		info = strings.TrimSpace(string(block.Info.Segment.Value(source)))
	}

	lines := block.Lines()
	if lines.Len() == 0 {
		return
	}
	last := lines.At(lines.Len() - 1)
	closed := isClosed(last.Stop, source)
	fence := openingFence(lines.At(0).Start, source)

	// A fence closed on a body line leaves the rest of the reply inside the
	// block, so it is parsed again once this block is emitted.
	var rest []byte
	defer func() {
		if rest != nil {
			p.parseInto(rest, parsed)
		}
	}()

	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		value := line.Value(source)
		trimmed := bytes.TrimRight(value, " \t\r\n")
		if fence == "" || !bytes.HasSuffix(trimmed, []byte(fence)) {
			buf.Write(value)
			continue
		}
		buf.Write(trimmed[:len(trimmed)-len(fence)])
		rest = source[line.Stop:blockEnd(last.Stop, closed, source)]
		closed = true
		break
	}
	if !closed {
		ui.Warning("Found an unterminated code block ('%s'). Skipping.", info)
		return
	}
	body := buf.String()

	lang, path := splitInfo(info)
	switch {
	case path != "":
		content := strings.TrimSpace(body)
		if lang == "" {
			lang = document.LanguageForPath(path)
		}
		parsed.Changes = append(parsed.Changes, model.Change{
			Kind:     model.Update,
			Path:     path,
			Content:  content,
			Language: lang,
		})
	case shellLangs[strings.ToLower(lang)]:
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)
			line = strings.TrimSpace(strings.TrimPrefix(line, "$ "))
			if line == "" || line == "$" {
				continue
			}
			parsed.Commands = append(parsed.Commands, model.CommandProposal{Text: line})
		}
	default:
		content := strings.TrimSpace(body)
		if content == "" {
			return
		}
		parsed.Snippets = append(parsed.Snippets, model.Snippet{Language: lang, Content: content})
	}
}

// splitInfo separates a fence info string of the form "language:path". The
// path is the rest of the line after the first colon and may contain spaces.
func splitInfo(info string) (lang, path string) {
	info = strings.TrimSpace(info)
	before, after, found := strings.Cut(info, ":")
	if !found {
		if fields := strings.Fields(info); len(fields) > 0 {
			lang = fields[0]
		}
		return lang, ""
	}
	if fields := strings.Fields(before); len(fields) > 0 {
		lang = fields[0]
	}
	return lang, strings.TrimSpace(after)
}

// isClosed reports whether the line starting at offset is a closing fence.
// goldmark runs an unterminated fence to the end of the document, so the
// closing line is the only evidence that the block was terminated.
func isClosed(offset int, source []byte) bool {
	if offset >= len(source) {
		return false
	}
	rest := source[offset:]
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	line := strings.TrimSpace(strings.TrimLeft(string(rest), " \t>"))
	if len(line) < 3 {
		return false
	}
	fence := line[0]
	if fence != '`' && fence != '~' {
		return false
	}
	return strings.Trim(line, string(fence)) == ""
}

// openingFence returns the backtick or tilde run that opened the block whose
// first body line starts at offset.
func openingFence(offset int, source []byte) string {
	nl := bytes.LastIndexByte(source[:offset], '\n')
	if nl < 0 {
		return ""
	}
	start := bytes.LastIndexByte(source[:nl], '\n') + 1
	line := strings.TrimLeft(string(source[start:nl]), " \t>")
	if line == "" || (line[0] != '`' && line[0] != '~') {
		return ""
	}
	n := len(line) - len(strings.TrimLeft(line, line[:1]))
	return line[:n]
}

// blockEnd returns the offset just past a block whose last body line ends at
// offset, including its closing fence line when it has one.
func blockEnd(offset int, closed bool, source []byte) int {
	if !closed || offset >= len(source) {
		return len(source)
	}
	if i := bytes.IndexByte(source[offset:], '\n'); i >= 0 {
		return offset + i + 1
	}
	return len(source)
}

// inlineCommands returns the "$ " lines of a paragraph, heading or list text.
// Only lines that start at column zero in the source are commands.
func inlineCommands(node ast.Node, source []byte) []model.CommandProposal {
	var cmds []model.CommandProposal
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		start := bytes.LastIndexByte(source[:seg.Start], '\n') + 1
		raw := strings.TrimRight(string(source[start:seg.Stop]), "\r\n")
		if !strings.HasPrefix(raw, "$ ") {
			continue
		}
		cmd := strings.TrimPrefix(raw, "$ ")
		if strings.TrimSpace(cmd) == "" {
			continue
		}
		cmds = append(cmds, model.CommandProposal{Text: cmd})
	}
	return cmds
}
