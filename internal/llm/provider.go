// Package llm talks to hosted language models for the workbook assistant.
// Every backend implements Provider; decorators add retries, deadlines and
// request logging.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one completion.
type Provider interface {
	// Generate sends the request. With a Schema the response Content is
	// JSON validated against it; without one Content is the model's text
	// encoded as a JSON string.
	Generate(ctx context.Context, req Request) (*Response, error)

	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	System   string
	Messages []Message

	// Schema requests structured output.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role identifies who authored a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema for structured output.
type Schema struct {
	// Name is kebab-case, e.g. "citation-list". It doubles as the cache key
	// for the compiled schema.
	Name        string
	Description string
	Definition  map[string]any
}

// Response is the parsed result of a Generate call.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string

	// StopReason is "end" or "max_tokens".
	StopReason string
}

// Text returns the response as plain text, decoding a JSON string when the
// content is one.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Content, &s); err == nil {
		return s
	}
	return string(r.Content)
}

// Usage reports token consumption for a single call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserPrompt builds a single-turn request.
func UserPrompt(system, prompt string, maxTokens int) Request {
	return Request{
		System:    system,
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens: maxTokens,
	}
}

// textContent wraps free text as a JSON string.
func textContent(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// finish validates structured output or wraps text output.
func finish(req Request, raw string) (json.RawMessage, error) {
	if req.Schema == nil {
		return textContent(raw), nil
	}
	content := json.RawMessage(raw)
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}
	return content, nil
}

// Purposes label requests in the request log.
const (
	PurposeSummarize  = "summarize"
	PurposeAsk        = "ask"
	PurposeOutline    = "outline"
	PurposeCitations  = "citations"
	PurposeUnlabelled = "unknown"
)

type purposeKey struct{}

// WithPurpose labels requests made with ctx.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the purpose stored by WithPurpose, or "".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return PurposeUnlabelled
}
