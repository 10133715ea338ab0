package apply

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/model"
)

// LineDiff computes a line-level diff from oldContent to newContent. A
// missing trailing newline on either side is not reported as a change.
func LineDiff(oldContent, newContent string) []model.DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(withNewline(oldContent), withNewline(newContent))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var out []model.DiffLine
	for _, d := range diffs {
		var marker byte
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			marker = '+'
		case diffmatchpatch.DiffDelete:
			marker = '-'
		default:
			marker = ' '
		}
		for _, line := range splitLines(d.Text) {
			out = append(out, model.DiffLine{Marker: marker, Text: line})
		}
	}
	return out
}

// HasChanges reports whether a diff contains any added or removed line.
func HasChanges(lines []model.DiffLine) bool {
	for _, l := range lines {
		if l.Marker != ' ' {
			return true
		}
	}
	return false
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
