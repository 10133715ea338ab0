package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const (
	defaultModel    = "deepseek-r1:1.5b"
	defaultEndpoint = "http://127.0.0.1:11434/v1"
)

// Config holds all the command-line flag values.
type Config struct {
	Root        string
	Prompt      string
	Model       string
	Endpoint    string
	APIKey      string
	ContextFile string
	Extensions  []string
	Yes         bool
	RunCommands bool
	DryRun      bool
	Nvim        bool
	NoAnimation bool
	Timeout     time.Duration
	LogFile     string
	ListModels  bool
}

// ParseFlags parses os.Args. Errors, including pflag.ErrHelp after the usage
// text, are returned for the caller to report.
func ParseFlags() (*Config, error) {
	return Parse(os.Args[1:])
}

// Parse defines the flags on a fresh set and parses args.
func Parse(args []string) (*Config, error) {
	cfg := &Config{}
	flags := pflag.NewFlagSet("aide", pflag.ContinueOnError)

	flags.StringVarP(&cfg.Root, "root", "C", "", "Workspace root (default: current directory).")
	flags.StringVarP(&cfg.Prompt, "prompt", "p", "", "Ask the assistant instead of reading a reply from stdin or the clipboard.")
	flags.StringVarP(&cfg.Model, "model", "m", defaultModel, "Model to ask.")
	flags.StringVar(&cfg.Endpoint, "endpoint", defaultEndpoint, "OpenAI-compatible API base URL.")
	flags.StringVar(&cfg.APIKey, "api-key", os.Getenv("OPENAI_API_KEY"), "API key for the endpoint (default: $OPENAI_API_KEY).")
	flags.StringVarP(&cfg.ContextFile, "context", "f", "", "Open this file and send it as context with the prompt.")
	flags.StringSliceVarP(&cfg.Extensions, "extension", "e", []string{}, "Only accept proposed changes to files with these extensions (e.g., 'py', 'js').")
	flags.BoolVarP(&cfg.Yes, "yes", "y", false, "Apply all proposed changes without review.")
	flags.BoolVar(&cfg.RunCommands, "run-commands", false, "With --yes, also run the proposed commands.")
	flags.BoolVarP(&cfg.DryRun, "dry-run", "n", false, "Print the parsed proposal and exit.")
	flags.BoolVar(&cfg.Nvim, "nvim", false, "Mirror the active document into Neovim.")
	flags.BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable the loading spinner.")
	flags.DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "Timeout for each proposed command.")
	flags.StringVar(&cfg.LogFile, "log-file", "", "Write logs to this file while the review screen is open.")
	flags.BoolVar(&cfg.ListModels, "list-models", false, "List the models the endpoint offers and exit.")

	flags.Usage = func() {
		fmt.Println("Usage: aide [flags]")
		fmt.Println("\nReview and apply the file changes and commands proposed in an assistant reply.")
		fmt.Println("\nExamples:")
		fmt.Println("  pbpaste | aide -e py")
		fmt.Println("  aide -f main.go -p 'add error handling'")
		fmt.Println("\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Yes && cfg.DryRun {
		return nil, fmt.Errorf("--yes and --dry-run are mutually exclusive")
	}
	if cfg.RunCommands && !cfg.Yes {
		return nil, fmt.Errorf("--run-commands requires --yes")
	}

	for i, ext := range cfg.Extensions {
		if len(ext) > 0 && ext[0] != '.' {
			cfg.Extensions[i] = "." + ext
		}
	}
	if cfg.Endpoint == defaultEndpoint {
		cfg.Model = NormalizeModel(cfg.Model)
	}

	return cfg, nil
}

// NormalizeModel appends the ":latest" tag Ollama assumes for untagged names.
func NormalizeModel(name string) string {
	if name == "" || strings.Contains(name, ":") {
		return name
	}
	return name + ":latest"
}
