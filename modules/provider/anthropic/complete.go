package anthropic

import (
	"context"
	"fmt"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/tbellamy/membank/internal/provider"
)

// Complete sends a synchronous completion request to the Anthropic
// Messages API.
func (a *Anthropic) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	params := convertRequest(req, &a.config)

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("provider.anthropic: %w", err)
	}

	return convertResponse(msg), nil
}

// convertRequest transforms a CompletionRequest into Anthropic SDK
// parameters. System messages are extracted from the message list into
// the dedicated System field.
func convertRequest(req provider.CompletionRequest, cfg *Config) sdkanthropic.MessageNewParams {
	var system []sdkanthropic.TextBlockParam
	var messages []sdkanthropic.MessageParam

	for _, m := range req.Messages {
		switch m.Role {
		case provider.MessageRoleSystem:
			system = append(system, sdkanthropic.TextBlockParam{Text: m.Content})
		case provider.MessageRoleAssistant:
			messages = append(messages, sdkanthropic.NewAssistantMessage(
				sdkanthropic.NewTextBlock(m.Content),
			))
		default:
			messages = append(messages, sdkanthropic.NewUserMessage(
				sdkanthropic.NewTextBlock(m.Content),
			))
		}
	}

	params := sdkanthropic.MessageNewParams{
		Model:    sdkanthropic.Model(cfg.Model),
		Messages: messages,
		System:   system,
	}

	// MaxTokens: request-level override takes precedence over config default.
	params.MaxTokens = int64(cfg.MaxTokens)
	if req.MaxTokens > 0 {
		params.MaxTokens = int64(req.MaxTokens)
	}
	if req.Temperature != nil {
		params.Temperature = sdkanthropic.Float(*req.Temperature)
	}

	return params
}

// convertResponse transforms an Anthropic SDK Message into a
// CompletionResponse, concatenating text blocks.
func convertResponse(msg *sdkanthropic.Message) provider.CompletionResponse {
	var content string
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(sdkanthropic.TextBlock); ok {
			if content != "" {
				content += "\n"
			}
			content += text.Text
		}
	}

	return provider.CompletionResponse{
		Content: content,
		Usage: provider.TokenUsage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}
