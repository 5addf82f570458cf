package connector

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

const (
	anthropicVersionHeader = "2023-06-01"
	defaultClaudeModel     = "claude-3-sonnet-20240229"
)

var claudeContextLengths = map[string]int{
	"claude-3-opus-20240229":   200000,
	"claude-3-sonnet-20240229": 200000,
	"claude-3-haiku-20240307":  200000,
	"claude-2.1":               200000,
	"claude-2.0":               100000,
	"claude-instant-1.2":       100000,
}

var claudeCosts = map[string]float64{
	"claude-3-opus-20240229":   0.075,
	"claude-3-sonnet-20240229": 0.015,
	"claude-3-haiku-20240307":  0.0025,
	"claude-2.1":               0.024,
	"claude-2.0":               0.024,
	"claude-instant-1.2":       0.008,
}

// ClaudeConnector talks to the Anthropic messages API.
type ClaudeConnector struct {
	client *anthropic.Client
	model  string
}

// NewClaudeConnector builds a connector for one Claude model. baseURL may
// be empty to use the default Anthropic endpoint.
func NewClaudeConnector(apiKey, baseURL, model string) *ClaudeConnector {
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultClaudeModel
	}

	opts := make([]option.RequestOption, 0, 4)
	if key := strings.TrimSpace(apiKey); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	if base := strings.TrimSpace(baseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(base, "/")))
	}
	opts = append(opts, option.WithMaxRetries(0))
	opts = append(opts, option.WithHeader("anthropic-version", anthropicVersionHeader))

	client := anthropic.NewClient(opts...)
	return &ClaudeConnector{
		client: &client,
		model:  model,
	}
}

func (c *ClaudeConnector) Generate(ctx context.Context, prompt string, opts *GenerateOptions) ResponseRecord {
	start := time.Now()
	if c == nil || c.client == nil {
		return failedRecord(time.Since(start), errors.New("connector: claude: nil client"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(opts.maxTokens()),
		Temperature: param.NewOpt(opts.temperature()),
		Messages: []anthropic.MessageParam{
			{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(prompt)},
			},
		},
	}

	msg, err := c.client.Messages.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		return failedRecord(latency, err)
	}
	if msg == nil {
		return failedRecord(latency, errors.New("connector: claude: empty response"))
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	return ResponseRecord{
		Text:           sb.String(),
		LatencySeconds: latency.Seconds(),
		TokensUsed:     int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		Succeeded:      true,
	}
}

func (c *ClaudeConnector) ModelInfo() ModelInfo {
	model := defaultClaudeModel
	if c != nil && c.model != "" {
		model = c.model
	}

	contextLength, ok := claudeContextLengths[model]
	if !ok {
		contextLength = 100000
	}
	cost, ok := claudeCosts[model]
	if !ok {
		cost = 0.024
	}

	modalities := []string{"text"}
	if strings.Contains(model, "claude-3") {
		modalities = []string{"text", "image"}
	}

	return ModelInfo{
		ID:               ModelID("anthropic", model),
		Name:             model,
		Provider:         "Anthropic",
		MaxContextLength: contextLength,
		CostPer1kTokens:  cost,
		Modalities:       modalities,
	}
}

// Ping sends a minimal request to verify credentials and connectivity.
func (c *ClaudeConnector) Ping(ctx context.Context) error {
	rec := c.Generate(ctx, "Hello, can you respond?", &GenerateOptions{MaxTokens: 16})
	if !rec.Succeeded {
		return errors.New(rec.ErrorMessage)
	}
	return nil
}

func failedRecord(latency time.Duration, err error) ResponseRecord {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return ResponseRecord{
		LatencySeconds: latency.Seconds(),
		Succeeded:      false,
		ErrorMessage:   msg,
	}
}

// ModelID joins a provider key and model name into the registry id
// scheme. Ids are lowercase so that the id a registry lists is the id it
// resolves.
func ModelID(provider, model string) string {
	return strings.ToLower(strings.TrimSpace(provider)) + "_" + strings.ToLower(strings.TrimSpace(model))
}
