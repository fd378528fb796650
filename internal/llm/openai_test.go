package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return newOpenAICompatible("test-key", server.URL+"/v1", "gpt-4o-mini")
}

func openAICompletion(content, finish string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
		})
	}
}

func openAIError(status int, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": kind, "message": kind},
		})
	}
}

func TestOpenAIProvider_TextResponse(t *testing.T) {
	p := newTestOpenAIProvider(t, openAICompletion("- point one\n- point two", "stop"))
	resp, err := p.Generate(context.Background(), UserPrompt("Use bullets.", "Summarize.", 256))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "- point one\n- point two" {
		t.Fatalf("unexpected text %q", resp.Text())
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 {
		t.Fatalf("unexpected usage %+v", resp.Usage)
	}
	if resp.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp.StopReason)
	}
}

func TestOpenAIProvider_TextTruncatedIsNotAnError(t *testing.T) {
	p := newTestOpenAIProvider(t, openAICompletion("partial", "length"))
	resp, err := p.Generate(context.Background(), UserPrompt("", "long answer", 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StopReason != "max_tokens" {
		t.Fatalf("expected max_tokens, got %q", resp.StopReason)
	}
}

func TestOpenAIProvider_StructuredInvalid(t *testing.T) {
	p := newTestOpenAIProvider(t, openAICompletion(`{"title":"x"}`, "stop"))
	req := UserPrompt("", "cite", 100)
	req.Schema = citationSchema()
	_, err := p.Generate(context.Background(), req)
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_Errors(t *testing.T) {
	t.Run("rate limit", func(t *testing.T) {
		p := newTestOpenAIProvider(t, openAIError(http.StatusTooManyRequests, "tokens"))
		_, err := p.Generate(context.Background(), UserPrompt("", "test", 100))
		var rl *ErrRateLimit
		if !errors.As(err, &rl) {
			t.Fatalf("expected ErrRateLimit, got: %T (%v)", err, err)
		}
	})
	t.Run("server error", func(t *testing.T) {
		p := newTestOpenAIProvider(t, openAIError(http.StatusInternalServerError, "server_error"))
		_, err := p.Generate(context.Background(), UserPrompt("", "test", 100))
		var unavail *ErrProviderUnavailable
		if !errors.As(err, &unavail) {
			t.Fatalf("expected ErrProviderUnavailable, got: %T (%v)", err, err)
		}
	})
}

func TestBuildOpenAIMessages(t *testing.T) {
	msgs := buildOpenAIMessages(Request{
		System: "sys",
		Messages: []Message{
			{Role: RoleUser, Content: "q"},
			{Role: RoleAssistant, Content: "a"},
		},
	})
	if len(msgs) != 3 || msgs[0].Role != "system" || msgs[2].Role != "assistant" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
}

func TestNewOpenAIProvider(t *testing.T) {
	if _, err := NewOpenAIProvider(OpenAIConfig{}); err == nil {
		t.Fatal("expected error for empty API key")
	}
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-mini", BaseURL: "https://example.test/v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "gpt-4.1-mini" {
		t.Fatalf("ModelID = %q", p.ModelID())
	}
}
