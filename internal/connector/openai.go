package connector

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-3.5-turbo"

var openAIContextLengths = map[string]int{
	"gpt-4":             8192,
	"gpt-4-32k":         32768,
	"gpt-4-turbo":       128000,
	"gpt-3.5-turbo":     4096,
	"gpt-3.5-turbo-16k": 16384,
}

var openAICosts = map[string]float64{
	"gpt-4":             0.03,
	"gpt-4-32k":         0.06,
	"gpt-4-turbo":       0.01,
	"gpt-3.5-turbo":     0.002,
	"gpt-3.5-turbo-16k": 0.004,
}

// OpenAIConnector talks to the OpenAI chat completions API.
type OpenAIConnector struct {
	client *openai.Client
	model  string
}

// NewOpenAIConnector builds a connector for one OpenAI model. baseURL may
// be empty to use the default endpoint.
func NewOpenAIConnector(apiKey, baseURL, model string) *OpenAIConnector {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if base := strings.TrimSpace(baseURL); base != "" {
		cfg.BaseURL = strings.TrimRight(base, "/")
	}

	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIConnector{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *OpenAIConnector) Generate(ctx context.Context, prompt string, opts *GenerateOptions) ResponseRecord {
	start := time.Now()
	if c == nil || c.client == nil {
		return failedRecord(time.Since(start), errors.New("connector: openai: nil client"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   opts.maxTokens(),
		Temperature: float32(opts.temperature()),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	latency := time.Since(start)
	if err != nil {
		return failedRecord(latency, err)
	}
	if len(resp.Choices) == 0 {
		return failedRecord(latency, errors.New("connector: openai: empty response"))
	}

	return ResponseRecord{
		Text:           resp.Choices[0].Message.Content,
		LatencySeconds: latency.Seconds(),
		TokensUsed:     resp.Usage.TotalTokens,
		Succeeded:      true,
	}
}

func (c *OpenAIConnector) ModelInfo() ModelInfo {
	model := defaultOpenAIModel
	if c != nil && c.model != "" {
		model = c.model
	}

	contextLength, ok := openAIContextLengths[model]
	if !ok {
		contextLength = 4096
	}
	cost, ok := openAICosts[model]
	if !ok {
		cost = 0.002
	}

	return ModelInfo{
		ID:               ModelID("openai", model),
		Name:             model,
		Provider:         "OpenAI",
		MaxContextLength: contextLength,
		CostPer1kTokens:  cost,
		Modalities:       []string{"text"},
	}
}

// Ping sends a minimal request to verify credentials and connectivity.
func (c *OpenAIConnector) Ping(ctx context.Context) error {
	rec := c.Generate(ctx, "Hello, can you respond?", &GenerateOptions{MaxTokens: 16})
	if !rec.Succeeded {
		return errors.New(rec.ErrorMessage)
	}
	return nil
}
