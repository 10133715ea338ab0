package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/internal/parser"
)

const (
	DefaultModel   = "deepseek-r1:1.5b"
	DefaultBaseURL = "http://127.0.0.1:11434/v1"
	DefaultTimeout = 120 * time.Second
)

var (
	// ErrTransport marks an unreachable or failing chat service.
	ErrTransport = errors.New("chat service unavailable")
	// ErrEmptyMessage is returned before any request for a blank message.
	ErrEmptyMessage = errors.New("message cannot be empty")
)

// Request is one user turn.
type Request struct {
	Message string
	Model   string
	// Context is the active document's content, if any.
	Context string
}

// Reply is the assistant's answer.
type Reply struct {
	Response string
	Model    string
}

// Client is the chat/completion collaborator.
type Client interface {
	Send(ctx context.Context, req Request) (Reply, error)
	// Models lists the model IDs the service offers.
	Models(ctx context.Context) ([]string, error)
}

// Config configures an OpenAI-compatible endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAI talks to any OpenAI-compatible chat completion API, including a
// local Ollama server.
type OpenAI struct {
	client *openai.Client
	config Config
}

// NewOpenAI creates a client, filling unset fields with defaults.
func NewOpenAI(config Config) *OpenAI {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.BaseURL

	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// FormatPrompt builds the user prompt, asking for file edits in the
// language:path fence format.
func FormatPrompt(message, context string) string {
	if strings.TrimSpace(context) == "" {
		return "User Question: " + message
	}
	var b strings.Builder
	b.WriteString("Context (Current code or file content):\n```\n")
	b.WriteString(context)
	b.WriteString("\n```\n\n")
	b.WriteString("User Question: " + message + "\n\n")
	b.WriteString("Please provide a detailed response. If suggesting code changes, use the format:\n")
	b.WriteString("```language:filepath\ncode content\n```\n")
	b.WriteString("If suggesting shell commands, put each on its own line starting with \"$ \".\n")
	return b.String()
}

// Send implements Client.
func (o *OpenAI) Send(ctx context.Context, req Request) (Reply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	model := req.Model
	if model == "" {
		model = o.config.Model
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: FormatPrompt(message, req.Context)},
		},
	})
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, fmt.Errorf("%w: no response from model %s", ErrTransport, model)
	}

	return Reply{
		Response: parser.CleanResponse(resp.Choices[0].Message.Content),
		Model:    model,
	}, nil
}

// Models lists the model IDs the endpoint offers.
func (o *OpenAI) Models(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	list, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
