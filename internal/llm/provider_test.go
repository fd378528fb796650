package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Text: "Photosynthesis turns light into sugar."},
	)

	resp1, err := mock.Generate(context.Background(), UserPrompt("", "first", 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"a":1}` {
		t.Fatalf("expected {\"a\":1}, got %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}

	resp2, err := mock.Generate(context.Background(), UserPrompt("", "second", 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.Text() != "Photosynthesis turns light into sugar." {
		t.Fatalf("unexpected text %q", resp2.Text())
	}
}

func TestMockProvider_EmptyQueue(t *testing.T) {
	mock := NewMockProvider()

	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}

	_, err = mock.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
		Schema:   citationSchema(),
	})
	if !errors.As(err, &unavail) {
		t.Fatalf("structured request should fail on empty queue, got %v", err)
	}

	resp, err := mock.Generate(context.Background(), UserPrompt("sys", "echo me", 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "echo me" {
		t.Fatalf("expected echo, got %q", resp.Text())
	}
	if mock.CallCount() != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.CallCount())
	}
	if mock.Calls[2].System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Calls[2].System)
	}
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"json string", `"plain words"`, "plain words"},
		{"object", `{"k":"v"}`, `{"k":"v"}`},
		{"raw", `not json`, "not json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Response{Content: json.RawMessage(tt.content)}
			if got := r.Text(); got != tt.want {
				t.Fatalf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
	var nilResp *Response
	if nilResp.Text() != "" {
		t.Fatal("nil response should have empty text")
	}
}

func TestFinish(t *testing.T) {
	content, err := finish(Request{}, "line \"one\"\nline two")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var s string
	if err := json.Unmarshal(content, &s); err != nil || s != "line \"one\"\nline two" {
		t.Fatalf("text not wrapped as JSON string: %s", content)
	}

	if _, err := finish(Request{Schema: citationSchema()}, `{"title":"x"}`); err == nil {
		t.Fatal("expected schema validation error")
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != PurposeUnlabelled {
		t.Fatalf("expected %q, got %q", PurposeUnlabelled, p)
	}
	ctx = WithPurpose(ctx, PurposeOutline)
	if p := PurposeFrom(ctx); p != PurposeOutline {
		t.Fatalf("expected %q, got %q", PurposeOutline, p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: ProviderAnthropic}, true},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "sk-test"}}, false},
		{"openai without key", Config{Provider: ProviderOpenAI}, true},
		{"openai with key", Config{Provider: ProviderOpenAI, OpenAI: OpenAIConfig{APIKey: "sk-test"}}, false},
		{"openrouter with key", Config{Provider: ProviderOpenRouter, OpenRouter: OpenRouterConfig{APIKey: "sk-or"}}, false},
		{"gemini without key", Config{Provider: ProviderGemini}, true},
		{"mock needs no key", Config{Provider: ProviderMock}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.cfg.HasKey() == tt.wantErr {
				t.Fatalf("HasKey() disagrees with Validate()")
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("WORKBOOK_LLM_PROVIDER", "openrouter")
	t.Setenv("WORKBOOK_OPENROUTER_API_KEY", "sk-or-env")
	t.Setenv("WORKBOOK_OPENROUTER_MODEL", "meta-llama/llama-3-8b")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderOpenRouter {
		t.Fatalf("provider = %q", cfg.Provider)
	}
	if cfg.OpenRouter.APIKey != "sk-or-env" || cfg.OpenRouter.Model != "meta-llama/llama-3-8b" {
		t.Fatalf("openrouter config not applied: %+v", cfg.OpenRouter)
	}
	if cfg.Anthropic.Model != "claude-haiku" {
		t.Fatalf("defaults lost: %+v", cfg.Anthropic)
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "o-key")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != ProviderOpenAI || cfg.OpenAI.APIKey != "o-key" {
		t.Fatalf("expected openai to win over gemini, got %+v", cfg)
	}
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []RequestRecord
	err     error
}

func (f *fakeRecorder) RecordLLMRequest(_ context.Context, rec RequestRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return f.err
}

func TestRecordingProvider(t *testing.T) {
	rec := &fakeRecorder{}
	var observed []RequestRecord
	mock := NewMockProvider(
		MockResponse{Text: "short answer", Usage: Usage{InputTokens: 12, OutputTokens: 3}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}},
	)
	p := WithRecording(mock, ProviderMock, rec, func(r RequestRecord) { observed = append(observed, r) }, nil)

	ctx := WithPurpose(context.Background(), PurposeAsk)
	if _, err := p.Generate(ctx, UserPrompt("be brief", "what is entropy?", 50)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(ctx, UserPrompt("", "again", 50)); err == nil {
		t.Fatal("expected error to pass through")
	}

	if len(rec.records) != 2 || len(observed) != 2 {
		t.Fatalf("expected 2 records, got %d recorded / %d observed", len(rec.records), len(observed))
	}
	first := rec.records[0]
	if !first.Success || first.Purpose != PurposeAsk || first.InputTokens != 12 || first.Model != "mock" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.RequestBody != "[system]\nbe brief\n\n[user]\nwhat is entropy?\n\n" {
		t.Fatalf("unexpected request body %q", first.RequestBody)
	}
	second := rec.records[1]
	if second.Success || second.ErrorMessage == "" {
		t.Fatalf("failure not recorded: %+v", second)
	}
}

func TestRecordingProvider_RecorderFailureIsSwallowed(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	p := WithRecording(NewMockProvider(MockResponse{Text: "ok"}), ProviderMock, rec, nil, nil)
	resp, err := p.Generate(context.Background(), UserPrompt("", "hi", 10))
	if err != nil {
		t.Fatalf("recorder failure leaked: %v", err)
	}
	if resp.Text() != "ok" {
		t.Fatalf("unexpected text %q", resp.Text())
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: ProviderMock, Retry: retryConfig()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID = %q", p.ModelID())
	}
	resp, err := p.Generate(context.Background(), UserPrompt("", "echo", 10))
	if err != nil || resp.Text() != "echo" {
		t.Fatalf("unexpected result %v %v", resp, err)
	}

	if _, err := NewProvider(context.Background(), Config{Provider: "nope"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if _, err := NewProvider(context.Background(), Config{Provider: ProviderAnthropic}); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestEstimateCost(t *testing.T) {
	cost, ok := EstimateCost("gpt-4o-mini", 1_000_000, 1_000_000)
	if !ok || math.Abs(cost-0.75) > 1e-9 {
		t.Fatalf("EstimateCost = %v, %v", cost, ok)
	}
	if _, ok := EstimateCost("unknown-model", 1, 1); ok {
		t.Fatal("expected unknown model to be unpriced")
	}
}
