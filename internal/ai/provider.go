package ai

import (
	"context"
	"fmt"
)

// Role is who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Image is a screenshot attached to a user turn.
type Image struct {
	MediaType string
	Data      []byte
}

// Turn is one message of a conversation.
type Turn struct {
	Role  Role
	Text  string
	Image *Image
}

// Conversation is the transcript sent to a provider on every step.
type Conversation struct {
	System string
	Turns  []Turn
}

// NewConversation starts a conversation with the browsing system prompt.
func NewConversation() *Conversation {
	return &Conversation{System: systemPrompt}
}

// AddUser appends a user turn, optionally with a screenshot.
func (c *Conversation) AddUser(text string, img *Image) {
	c.Turns = append(c.Turns, Turn{Role: RoleUser, Text: text, Image: img})
}

// AddAssistant appends a model reply.
func (c *Conversation) AddAssistant(text string) {
	c.Turns = append(c.Turns, Turn{Role: RoleAssistant, Text: text})
}

// latestImage returns the index of the last turn carrying an image, or -1.
// Providers only send that one; older screenshots are dropped to keep
// requests small.
func (c *Conversation) latestImage() int {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Image != nil {
			return i
		}
	}
	return -1
}

// Provider produces the next assistant reply for a conversation.
type Provider interface {
	Name() string
	Complete(ctx context.Context, conv *Conversation) (string, error)
}

// NewProvider creates a new AI provider based on the provider name
func NewProvider(name, model string, maxTokens int) (Provider, error) {
	switch name {
	case "claude", "anthropic":
		return NewClaudeProvider(model, maxTokens)
	case "openai", "gpt":
		return NewOpenAIProvider(model, maxTokens)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", name)
	}
}
