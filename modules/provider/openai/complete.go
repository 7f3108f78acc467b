package openai

import (
	"context"
	"errors"
	"fmt"

	sdkopenai "github.com/sashabaranov/go-openai"

	"github.com/tbellamy/membank/internal/provider"
)

// Complete sends a synchronous chat completion request.
func (o *OpenAI) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	resp, err := o.client.CreateChatCompletion(ctx, convertRequest(req, &o.config))
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("provider.openai: %w", err)
	}

	if len(resp.Choices) == 0 {
		return provider.CompletionResponse{}, errors.New("provider.openai: empty choices in response")
	}

	return provider.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: provider.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// convertRequest maps a CompletionRequest onto the OpenAI chat format.
// Roles translate one-to-one.
func convertRequest(req provider.CompletionRequest, cfg *Config) sdkopenai.ChatCompletionRequest {
	messages := make([]sdkopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, sdkopenai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	out := sdkopenai.ChatCompletionRequest{
		Model:    cfg.Model,
		Messages: messages,
	}

	if req.MaxTokens > 0 {
		out.MaxTokens = req.MaxTokens
	} else if cfg.MaxTokens > 0 {
		out.MaxTokens = cfg.MaxTokens
	}
	if req.Temperature != nil {
		out.Temperature = float32(*req.Temperature)
	}

	return out
}
