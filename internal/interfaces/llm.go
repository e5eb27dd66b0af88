package interfaces

import "context"

// Message represents a single message in a conversation
type Message struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// ChatResult carries the generated text plus provider token accounting
type ChatResult struct {
	Text             string `json:"text"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// LLMService abstracts a chat completion provider
type LLMService interface {
	// Chat generates a completion for the conversation history
	Chat(ctx context.Context, messages []Message) (*ChatResult, error)

	// HealthCheck verifies the provider is reachable and operational
	HealthCheck(ctx context.Context) error

	// Close releases provider resources
	Close() error
}
