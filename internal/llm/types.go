package llm

import (
	"fmt"
)

// Role represents the role of a message in a conversation
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the Role
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is a valid value
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message represents a single message in a conversation with an LLM.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewSystemMessage creates a new system message
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Validate checks if the message is valid
func (m Message) Validate() error {
	if !m.Role.IsValid() {
		return fmt.Errorf("invalid role: %s", m.Role)
	}
	if m.Content == "" {
		return fmt.Errorf("%s message must have content", m.Role)
	}
	return nil
}

// FinishReason indicates why a completion stopped.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonContentFilter FinishReason = "content_filter"
)

// CompletionRequest is a single judge call: a directive and a case rendered as messages.
type CompletionRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Validate checks that the request carries at least one valid message and sane limits.
func (r CompletionRequest) Validate() error {
	if len(r.Messages) == 0 {
		return NewInvalidRequestError("request must contain at least one message")
	}
	for i, m := range r.Messages {
		if err := m.Validate(); err != nil {
			return NewInvalidRequestError(fmt.Sprintf("message %d: %v", i, err))
		}
	}
	if r.MaxTokens < 0 {
		return NewInvalidRequestError(fmt.Sprintf("max_tokens must be non-negative, got %d", r.MaxTokens))
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return NewInvalidRequestError(fmt.Sprintf("temperature must be within [0, 2], got %f", r.Temperature))
	}
	return nil
}

// CompletionResponse is the provider's answer.
type CompletionResponse struct {
	ID           string       `json:"id"`
	Model        string       `json:"model"`
	Message      Message      `json:"message"`
	FinishReason FinishReason `json:"finish_reason"`
}

// Text returns the assistant content of the response, or "" for a nil response.
func (r *CompletionResponse) Text() string {
	if r == nil {
		return ""
	}
	return r.Message.Content
}
