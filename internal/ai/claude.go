package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeProvider implements the Provider interface using Anthropic's Claude
type ClaudeProvider struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewClaudeProvider creates a new Claude provider
func NewClaudeProvider(model string, maxTokens int, opts ...option.RequestOption) (*ClaudeProvider, error) {
	apiKey := os.Getenv("PAGEPILOT_ANTHROPIC_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("PAGEPILOT_ANTHROPIC_KEY or ANTHROPIC_API_KEY environment variable required")
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &ClaudeProvider{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (p *ClaudeProvider) Name() string { return "claude" }

// Complete sends the conversation and returns the reply text.
func (p *ClaudeProvider) Complete(ctx context.Context, conv *Conversation) (string, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: conv.System},
		},
		Messages: claudeMessages(conv),
	})
	if err != nil {
		return "", fmt.Errorf("Claude API error: %w", err)
	}

	// Extract text content
	var responseText string
	for _, block := range resp.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return "", fmt.Errorf("empty response from Claude")
	}
	return responseText, nil
}

func claudeMessages(conv *Conversation) []anthropic.MessageParam {
	latest := conv.latestImage()
	msgs := make([]anthropic.MessageParam, 0, len(conv.Turns))
	for i, turn := range conv.Turns {
		var blocks []anthropic.ContentBlockParamUnion
		if turn.Image != nil && i == latest {
			blocks = append(blocks, anthropic.NewImageBlockBase64(
				turn.Image.MediaType,
				base64.StdEncoding.EncodeToString(turn.Image.Data),
			))
		}
		if turn.Text != "" {
			blocks = append(blocks, anthropic.NewTextBlock(turn.Text))
		}
		if len(blocks) == 0 {
			continue
		}

		if turn.Role == RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(blocks...))
		}
	}
	return msgs
}
