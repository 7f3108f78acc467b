package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/tbellamy/membank/internal/provider"
)

// Complete sends a completion request through the generative model.
// Gemini has no separate system slot in this API shape, so messages are
// folded into one prompt in order.
func (g *Gemini) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	model := g.client.GenerativeModel(g.config.Model)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	} else if g.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(g.config.MaxTokens))
	}
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(foldMessages(req.Messages)))
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("provider.gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return provider.CompletionResponse{}, errors.New("provider.gemini: empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := provider.CompletionResponse{Content: sb.String()}
	if resp.UsageMetadata != nil {
		out.Usage = provider.TokenUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// foldMessages joins messages into a single prompt, newest last.
func foldMessages(msgs []provider.LLMMessage) string {
	if len(msgs) == 1 {
		return msgs[0].Content
	}

	var sb strings.Builder
	for i, m := range msgs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.Content)
	}
	return sb.String()
}
