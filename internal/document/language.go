package document

import (
	"path/filepath"
	"strings"
)

const plaintext = "plaintext"

var extLanguages = map[string]string{
	".js":   "javascript",
	".mjs":  "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".py":   "python",
	".html": "html",
	".htm":  "html",
	".css":  "css",
	".scss": "scss",
	".less": "less",
	".json": "json",
	".xml":  "xml",
	".java": "java",
	".cpp":  "cpp",
	".cc":   "cpp",
	".hpp":  "cpp",
	".c":    "c",
	".h":    "c",
	".cs":   "csharp",
	".go":   "go",
	".rs":   "rust",
	".rb":   "ruby",
	".php":  "php",
	".sh":   "shell",
	".bash": "shell",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".ini":  "ini",
	".sql":  "sql",
	".md":   "markdown",
	".txt":  plaintext,
}

var displayNames = map[string]string{
	"javascript": "JavaScript",
	"typescript": "TypeScript",
	"html":       "HTML",
	"css":        "CSS",
	"scss":       "SCSS",
	"less":       "Less",
	"json":       "JSON",
	"xml":        "XML",
	"python":     "Python",
	"java":       "Java",
	"cpp":        "C++",
	"c":          "C",
	"csharp":     "C#",
	"go":         "Go",
	"rust":       "Rust",
	"ruby":       "Ruby",
	"php":        "PHP",
	"shell":      "Shell Script",
	"yaml":       "YAML",
	"toml":       "TOML",
	"ini":        "INI",
	"sql":        "SQL",
	"markdown":   "Markdown",
	plaintext:    "Plain Text",
}

// LanguageForPath guesses a language identifier from the file extension.
func LanguageForPath(path string) string {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return plaintext
}

// DisplayName returns a human readable name for a language identifier.
func DisplayName(language string) string {
	if name, ok := displayNames[language]; ok {
		return name
	}
	return language
}
