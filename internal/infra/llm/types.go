// Package llm holds the chat-model abstraction used by the fallback reasoner.
package llm

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    string
	Content string
}

// ChatRequest is a non-streaming chat completion request.
type ChatRequest struct {
	Model       string // overrides the provider default when set
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// ChatResponse is the assistant reply.
type ChatResponse struct {
	Content    string
	StopReason string
	Tokens     int
}

// ModelMeta identifies the provider and model.
type ModelMeta struct {
	ID       string
	Provider string
	BaseURL  string
}
