package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface using OpenAI
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(model string, maxTokens int) (*OpenAIProvider, error) {
	apiKey := os.Getenv("PAGEPILOT_OPENAI_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("PAGEPILOT_OPENAI_KEY or OPENAI_API_KEY environment variable required")
	}
	return NewOpenAIProviderWithConfig(openai.DefaultConfig(apiKey), model, maxTokens), nil
}

// NewOpenAIProviderWithConfig creates an OpenAI provider from an explicit
// client configuration, e.g. for a compatible endpoint.
func NewOpenAIProviderWithConfig(cfg openai.ClientConfig, model string, maxTokens int) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o"
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Complete sends the conversation and returns the reply text.
func (p *OpenAIProvider) Complete(ctx context.Context, conv *Conversation) (string, error) {
	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:     p.model,
			Messages:  openaiMessages(conv),
			MaxTokens: p.maxTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

func openaiMessages(conv *Conversation) []openai.ChatCompletionMessage {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: conv.System},
	}

	latest := conv.latestImage()
	for i, turn := range conv.Turns {
		role := openai.ChatMessageRoleUser
		if turn.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}

		if turn.Image == nil || i != latest {
			msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
			continue
		}

		uri := "data:" + turn.Image.MediaType + ";base64," + base64.StdEncoding.EncodeToString(turn.Image.Data)
		parts := []openai.ChatMessagePart{{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    uri,
				Detail: openai.ImageURLDetailAuto,
			},
		}}
		if turn.Text != "" {
			parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: turn.Text})
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, MultiContent: parts})
	}
	return msgs
}
