package agent

import (
	"context"
	"strings"

	"github.com/astroamber/amber/internal/llm"
)

// ResponseFormatter is the research.Formatter implementation backed by a
// dedicated formatter sub-agent: a one-shot chat call with the formatter
// system prompt and no tools.
type ResponseFormatter struct {
	client      llm.ChatClient
	model       string
	temperature float64
	maxTokens   int
}

// NewResponseFormatter builds the formatter sub-agent.
func NewResponseFormatter(client llm.ChatClient, model string, temperature float64, maxTokens int) *ResponseFormatter {
	return &ResponseFormatter{client: client, model: model, temperature: temperature, maxTokens: maxTokens}
}

// Format renders research content into a polished, cited response.
func (f *ResponseFormatter) Format(ctx context.Context, researchContent, formatStyle, userQuery string) (string, error) {
	var b strings.Builder
	b.WriteString("Research Content:\n")
	b.WriteString(researchContent)
	b.WriteString("\n\n")
	if formatStyle != "" {
		b.WriteString("Requested Format Style: " + formatStyle + "\n\n")
	}
	if userQuery != "" {
		b.WriteString("Original User Query: " + userQuery + "\n\n")
	}
	b.WriteString("Please format this research content according to the guidelines and appropriate style.")

	resp, err := f.client.Chat(ctx, llm.ChatRequest{
		Model: f.model,
		Messages: []llm.Message{
			{Role: "system", Content: formatterPrompt},
			{Role: "user", Content: b.String()},
		},
		Temperature: f.temperature,
		MaxTokens:   f.maxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Message.Content, nil
}
