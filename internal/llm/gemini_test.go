package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, geminiModels); got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"citations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text":   map[string]any{"type": "string"},
						"year":   map[string]any{"type": "integer"},
						"format": map[string]any{"type": "string", "enum": []any{"APA", "MLA"}},
					},
					"required": []any{"text"},
				},
			},
			"note": map[string]any{"type": "string", "description": "optional remark"},
		},
		"required": []any{"citations"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 2 || len(schema.Required) != 1 {
		t.Fatalf("unexpected top level %+v", schema)
	}
	items := schema.Properties["citations"].Items
	if schema.Properties["citations"].Type != "ARRAY" || items == nil {
		t.Fatal("expected citations to be an array with items")
	}
	if items.Properties["year"].Type != "INTEGER" {
		t.Fatalf("expected INTEGER for year, got %s", items.Properties["year"].Type)
	}
	if len(items.Properties["format"].Enum) != 2 {
		t.Fatalf("expected 2 enum values, got %d", len(items.Properties["format"].Enum))
	}
	if schema.Properties["note"].Description != "optional remark" {
		t.Fatalf("description lost")
	}
}

func TestGeminiStopReason(t *testing.T) {
	tests := []struct {
		reason genai.FinishReason
		want   string
	}{
		{genai.FinishReasonStop, "end"},
		{genai.FinishReasonMaxTokens, "max_tokens"},
		{genai.FinishReasonSafety, stopContentFilter},
		{genai.FinishReasonBlocklist, stopContentFilter},
	}
	for _, tt := range tests {
		result := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: tt.reason}},
		}
		if got := geminiStopReason(result); got != tt.want {
			t.Errorf("geminiStopReason(%s) = %q, want %q", tt.reason, got, tt.want)
		}
	}
	if got := geminiStopReason(&genai.GenerateContentResponse{}); got != "end" {
		t.Errorf("no candidates = %q, want end", got)
	}
}

func TestGeminiContentsRoles(t *testing.T) {
	got := geminiContents([]Message{
		{Role: RoleUser, Content: "question"},
		{Role: RoleAssistant, Content: "answer"},
	})
	if len(got) != 2 || got[0].Role != string(genai.RoleUser) || got[1].Role != string(genai.RoleModel) {
		t.Fatalf("unexpected roles: %+v", got)
	}
	if got[1].Parts[0].Text != "answer" {
		t.Fatalf("text lost: %+v", got[1].Parts[0])
	}
}

func TestGeminiUsageNil(t *testing.T) {
	if u := geminiUsage(nil); u != (Usage{}) {
		t.Fatalf("expected zero usage, got %+v", u)
	}
}
