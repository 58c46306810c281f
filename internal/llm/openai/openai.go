// Package openai adapts the research-note chat interface to the OpenAI
// chat-completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/altalpha/lab/internal/llm"
	"github.com/sashabaranov/go-openai"
)

const (
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 1024
)

// Provider calls the OpenAI chat-completions API.
type Provider struct {
	client *openai.Client
	model  string
}

// New creates an OpenAI provider.
func New(apiKey, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key required")
	}
	return newWithConfig(openai.DefaultConfig(apiKey), model), nil
}

// newWithConfig lets tests point the client at a local server.
func newWithConfig(cfg openai.ClientConfig, model string) *Provider {
	if model == "" {
		model = defaultModel
	}
	return &Provider{client: openai.NewClientWithConfig(cfg), model: model}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// Chat sends the conversation and returns the assistant's reply. The
// system prompt, when present, is prepended as a system-role message.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    convertMessages(req),
		MaxTokens:   maxTokens(req.MaxTokens),
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	content := ""
	finishReason := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = string(resp.Choices[0].FinishReason)
	}

	return &llm.ChatResponse{
		Content: content,
		Usage: llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
		FinishReason: finishReason,
	}, nil
}

func convertMessages(req llm.ChatRequest) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

func maxTokens(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}
	return n
}
