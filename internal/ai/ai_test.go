package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/pagepilot/internal/annotator"
)

func sampleConversation() *Conversation {
	conv := NewConversation()
	conv.AddUser("book a table", &Image{MediaType: "image/png", Data: []byte("old")})
	conv.AddAssistant(`{"action": "click", "id": "Reserve"}`)
	conv.AddUser("Current page: https://example.com", &Image{MediaType: "image/png", Data: []byte("new")})
	return conv
}

func TestLatestImage(t *testing.T) {
	conv := NewConversation()
	assert.Equal(t, -1, conv.latestImage())

	conv = sampleConversation()
	assert.Equal(t, 2, conv.latestImage())

	conv.AddUser("no screenshot this time", nil)
	assert.Equal(t, 2, conv.latestImage())
}

func TestClaudeMessagesKeepOnlyLatestImage(t *testing.T) {
	msgs := claudeMessages(sampleConversation())
	require.Len(t, msgs, 3)

	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	require.Len(t, msgs[0].Content, 1)
	assert.Nil(t, msgs[0].Content[0].OfImage)

	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)

	require.Len(t, msgs[2].Content, 2)
	require.NotNil(t, msgs[2].Content[0].OfImage)
	require.NotNil(t, msgs[2].Content[1].OfText)
	assert.Equal(t, "Current page: https://example.com", msgs[2].Content[1].OfText.Text)
}

func TestOpenAIMessagesKeepOnlyLatestImage(t *testing.T) {
	msgs := openaiMessages(sampleConversation())
	require.Len(t, msgs, 4)

	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, systemPrompt, msgs[0].Content)

	assert.Equal(t, "book a table", msgs[1].Content)
	assert.Empty(t, msgs[1].MultiContent)
	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[2].Role)

	require.Len(t, msgs[3].MultiContent, 2)
	img := msgs[3].MultiContent[0]
	assert.Equal(t, openai.ChatMessagePartTypeImageURL, img.Type)
	assert.Equal(t, "data:image/png;base64,bmV3", img.ImageURL.URL)
	assert.Equal(t, "Current page: https://example.com", msgs[3].MultiContent[1].Text)
}

func TestClaudeComplete(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_01", "type": "message", "role": "assistant", "model": "claude-test",
			"content": [{"type": "text", "text": "{\"action\": \"click\", \"id\": \"Docs\"}"}],
			"stop_reason": "end_turn", "stop_sequence": null,
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`)
	}))
	defer srv.Close()

	t.Setenv("PAGEPILOT_ANTHROPIC_KEY", "test-key")
	p, err := NewClaudeProvider("claude-test", 256, option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	reply, err := p.Complete(context.Background(), sampleConversation())
	require.NoError(t, err)
	assert.Equal(t, `{"action": "click", "id": "Docs"}`, reply)
	assert.Equal(t, "claude-test", got["model"])
	assert.EqualValues(t, 256, got["max_tokens"])
}

func TestOpenAIComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "All done."}, "finish_reason": "stop"}]
		}`)
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	p := NewOpenAIProviderWithConfig(cfg, "", 0)

	reply, err := p.Complete(context.Background(), sampleConversation())
	require.NoError(t, err)
	assert.Equal(t, "All done.", reply)
	assert.Equal(t, "gpt-4o", p.model)
	assert.Equal(t, 1024, p.maxTokens)
}

func TestNewProvider(t *testing.T) {
	t.Setenv("PAGEPILOT_ANTHROPIC_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewProvider("claude", "", 0)
	assert.Error(t, err)

	t.Setenv("OPENAI_API_KEY", "k")
	p, err := NewProvider("gpt", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = NewProvider("llama", "", 0)
	assert.ErrorContains(t, err, "unknown provider")
}

func TestObservation(t *testing.T) {
	snap := &annotator.Snapshot{
		URL:   "https://example.com/",
		Title: "Example",
		Elements: []annotator.Element{
			{Category: annotator.Clickable, ID: "Docs"},
			{Category: annotator.Clickable, ID: "Sign in"},
			{Category: annotator.TextInput, ID: "i-0"},
			{Category: annotator.Select, ID: "s-0"},
		},
		SelectOptions: []annotator.SelectOptions{{ID: "s-0", Options: []string{"A", "B", "C"}}},
	}

	text := Observation(snap, "Here is the page after your click.")
	assert.True(t, strings.HasPrefix(text, "Here is the page after your click."))
	assert.Contains(t, text, "Current page: https://example.com/ (Example)")
	assert.Contains(t, text, "- s-0: A, B, C")
	assert.Contains(t, text, `Clickable: "Docs", "Sign in"`)
	assert.Contains(t, text, "Text fields: 1, dropdowns: 1, scrollable areas: 0")
}

func TestFailedAction(t *testing.T) {
	err := errors.New(`no clickable element matches "Docs"`)

	msg := FailedAction("click", err, false)
	assert.Contains(t, msg, "unable to click that element")
	assert.Contains(t, msg, "Try a different element")

	msg = FailedAction("url", err, true)
	assert.Contains(t, msg, "unable to open that page")
	assert.Contains(t, msg, "Do not try again")

	assert.Contains(t, MalformedReply("missing id"), "missing id")
}
