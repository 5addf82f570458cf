package connector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestModelID(t *testing.T) {
	t.Parallel()

	if got := ModelID("OpenAI", " gpt-4 "); got != "openai_gpt-4" {
		t.Fatalf("ModelID: got %q want %q", got, "openai_gpt-4")
	}
	if got := ModelID(" Anthropic ", "claude-2.1"); got != "anthropic_claude-2.1" {
		t.Fatalf("ModelID: got %q want %q", got, "anthropic_claude-2.1")
	}
	if got := ModelID("openai", "GPT-4"); got != "openai_gpt-4" {
		t.Fatalf("ModelID: got %q want %q", got, "openai_gpt-4")
	}
}

func TestGenerateOptions_Defaults(t *testing.T) {
	t.Parallel()

	var opts *GenerateOptions
	if got := opts.maxTokens(); got != defaultMaxTokens {
		t.Fatalf("nil opts maxTokens: got %d want %d", got, defaultMaxTokens)
	}
	if got := opts.temperature(); got != defaultTemperature {
		t.Fatalf("nil opts temperature: got %v want %v", got, defaultTemperature)
	}

	opts = &GenerateOptions{MaxTokens: 64, Temperature: 0.2}
	if got := opts.maxTokens(); got != 64 {
		t.Fatalf("maxTokens: got %d want 64", got)
	}
	if got := opts.temperature(); got != 0.2 {
		t.Fatalf("temperature: got %v want 0.2", got)
	}
}

func TestClaudeConnector_ModelInfo(t *testing.T) {
	t.Parallel()

	c := NewClaudeConnector("key", "", "claude-3-haiku-20240307")
	info := c.ModelInfo()

	if info.ID != "anthropic_claude-3-haiku-20240307" {
		t.Fatalf("ID: got %q", info.ID)
	}
	if info.Provider != "Anthropic" {
		t.Fatalf("Provider: got %q", info.Provider)
	}
	if info.MaxContextLength != 200000 {
		t.Fatalf("MaxContextLength: got %d want 200000", info.MaxContextLength)
	}
	if info.CostPer1kTokens != 0.0025 {
		t.Fatalf("CostPer1kTokens: got %v want 0.0025", info.CostPer1kTokens)
	}
	if len(info.Modalities) != 2 {
		t.Fatalf("Modalities: got %v want [text image]", info.Modalities)
	}
}

func TestClaudeConnector_ModelInfo_UnknownModel(t *testing.T) {
	t.Parallel()

	info := NewClaudeConnector("key", "", "claude-experimental").ModelInfo()
	if info.MaxContextLength != 100000 {
		t.Fatalf("fallback context length: got %d want 100000", info.MaxContextLength)
	}
	if info.CostPer1kTokens != 0.024 {
		t.Fatalf("fallback cost: got %v want 0.024", info.CostPer1kTokens)
	}
}

func TestOpenAIConnector_ModelInfo(t *testing.T) {
	t.Parallel()

	info := NewOpenAIConnector("key", "", "gpt-4").ModelInfo()
	if info.ID != "openai_gpt-4" {
		t.Fatalf("ID: got %q", info.ID)
	}
	if info.MaxContextLength != 8192 {
		t.Fatalf("MaxContextLength: got %d want 8192", info.MaxContextLength)
	}
	if info.CostPer1kTokens != 0.03 {
		t.Fatalf("CostPer1kTokens: got %v want 0.03", info.CostPer1kTokens)
	}
}

func TestOpenAIConnector_Generate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "hello there"}},
			},
			Usage: openai.Usage{PromptTokens: 5, CompletionTokens: 3, TotalTokens: 8},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewOpenAIConnector("test-key", srv.URL, "gpt-3.5-turbo")
	rec := c.Generate(context.Background(), "say hello", nil)

	if !rec.Succeeded {
		t.Fatalf("Generate failed: %s", rec.ErrorMessage)
	}
	if rec.Text != "hello there" {
		t.Fatalf("Text: got %q", rec.Text)
	}
	if rec.TokensUsed != 8 {
		t.Fatalf("TokensUsed: got %d want 8", rec.TokensUsed)
	}
	if rec.LatencySeconds < 0 {
		t.Fatalf("LatencySeconds: got %v", rec.LatencySeconds)
	}
}

func TestOpenAIConnector_Generate_Failure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewOpenAIConnector("bad-key", srv.URL, "gpt-3.5-turbo")
	rec := c.Generate(context.Background(), "say hello", nil)

	if rec.Succeeded {
		t.Fatalf("expected failure record")
	}
	if rec.Text != "" {
		t.Fatalf("failed record must carry no text, got %q", rec.Text)
	}
	if rec.ErrorMessage == "" {
		t.Fatalf("expected error message")
	}
}
