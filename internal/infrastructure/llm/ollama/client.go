package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/pdf-qa-service/internal/core/domain"
	"github.com/kirillkom/pdf-qa-service/internal/infrastructure/resilience"
)

// Client talks to a local Ollama server. Generation goes through
// /api/chat so the system prompt stays a first-class message instead
// of being pasted into the user prompt.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *Client) Generate(ctx context.Context, system, prompt string, opts domain.GenerationOptions) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	reqBody := map[string]any{
		"model":    c.model,
		"messages": messages,
		"stream":   false,
	}
	options := map[string]any{}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.ContextWindow > 0 {
		options["num_ctx"] = opts.ContextWindow
	}
	if len(options) > 0 {
		reqBody["options"] = options
	}

	var response struct {
		Message chatMessage `json:"message"`
	}
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/chat", reqBody, &response, "chat")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama.chat", call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate answer", err)
	}
	return strings.TrimSpace(response.Message.Content), nil
}
