package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaProvider talks to a local Ollama runtime through langchaingo.
// Health checks hit GET /api/tags directly since langchaingo has no equivalent.
type OllamaProvider struct {
	baseURL    string
	model      string
	client     *ollama.LLM
	httpClient *http.Client
}

// NewOllamaProvider builds the provider. timeout <= 0 means 60s.
func NewOllamaProvider(baseURL, model string, timeout time.Duration) (*OllamaProvider, error) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := &http.Client{Timeout: timeout}

	client, err := ollama.New(
		ollama.WithServerURL(baseURL),
		ollama.WithModel(model),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("ollama: new client: %w", err)
	}

	return &OllamaProvider{
		baseURL:    baseURL,
		model:      model,
		client:     client,
		httpClient: httpClient,
	}, nil
}

// ChatCompletion sends the conversation to /api/chat (non-streaming).
func (p *OllamaProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	resp, err := p.client.GenerateContent(ctx, toMessageContent(req.Messages), callOptions(req)...)
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, ErrEmptyCompletion
	}

	choice := resp.Choices[0]
	out := &ChatResponse{Content: choice.Content, StopReason: choice.StopReason}
	if n, ok := choice.GenerationInfo["TotalTokens"].(int); ok {
		out.Tokens = n
	}
	return out, nil
}

func (p *OllamaProvider) ModelInfo() ModelMeta {
	return ModelMeta{ID: p.model, Provider: "ollama", BaseURL: p.baseURL}
}

// HealthCheck returns nil when GET /api/tags answers 200.
func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("ollama healthcheck: build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama healthcheck: status %d", resp.StatusCode)
	}
	return nil
}

func toMessageContent(msgs []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llms.TextParts(chatRole(m.Role), m.Content))
	}
	return out
}

func chatRole(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func callOptions(req ChatRequest) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	return opts
}
