// Package provider defines the chat transport contract and its shared types.
// The dispatcher talks to exactly one Transport; adapters (openai.go) implement
// it for concrete backends.
package provider

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single message in the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool describes a tool offered to the model (JSON Schema parameters).
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ChatRequest is the unified request sent to a transport.
type ChatRequest struct {
	Messages    []Message
	Tools       []Tool
	Model       string
	MaxTokens   int
	Temperature float64
}

// Usage records token consumption reported by the backend.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// ChatResponse is the unified response from a transport.
type ChatResponse struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Transport sends a chat request to an LLM backend. The only blocking I/O in
// the daemon happens here; everything around it is pure compute.
type Transport interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// LastUserMessage returns the content of the most recent user message, or ""
// if there is none.
func LastUserMessage(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
