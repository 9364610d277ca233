package completion

import (
	"context"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
)

const (
	SummarizeSystemPrompt = "You are a helpful assistant that creates concise, accurate summaries of text. Focus on the main points and key information."
	CodegenSystemPrompt   = "You are a helpful coding assistant. Generate clean, well-commented code based on user requests. Include explanations when helpful."

	summarizePrefix = "Please summarize the following text:\n\n"
)

// ChatMessages is a single-turn chat request.
func ChatMessages(message string) []entities.Message {
	return []entities.Message{{Role: entities.RoleUser, Content: message}}
}

// SummarizeMessages asks the summarizer persona to summarize text.
func SummarizeMessages(text string) []entities.Message {
	return []entities.Message{
		{Role: entities.RoleSystem, Content: SummarizeSystemPrompt},
		{Role: entities.RoleUser, Content: summarizePrefix + text},
	}
}

// CodegenMessages asks the coding assistant persona for code matching prompt.
func CodegenMessages(prompt string) []entities.Message {
	return []entities.Message{
		{Role: entities.RoleSystem, Content: CodegenSystemPrompt},
		{Role: entities.RoleUser, Content: prompt},
	}
}

// Chat sends a single user message.
func (c *Client) Chat(ctx context.Context, message string) (entities.CompletionResult, error) {
	return c.Complete(ctx, ChatMessages(message), entities.ModeChat)
}

// Summarize asks for a summary of text.
func (c *Client) Summarize(ctx context.Context, text string) (entities.CompletionResult, error) {
	return c.Complete(ctx, SummarizeMessages(text), entities.ModeSummarize)
}

// GenerateCode asks for code matching prompt.
func (c *Client) GenerateCode(ctx context.Context, prompt string) (entities.CompletionResult, error) {
	return c.Complete(ctx, CodegenMessages(prompt), entities.ModeCodegen)
}
