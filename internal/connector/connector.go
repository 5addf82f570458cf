// Package connector defines the capability the benchmark engine needs
// from a model provider: turn a prompt into a response record, and
// describe the model behind it.
package connector

import "context"

// Connector is one external model endpoint. Implementations never return
// an error from Generate: provider failures degrade to a ResponseRecord
// with Succeeded=false so the caller can keep per-prompt visibility into
// failures without aborting a benchmark.
type Connector interface {
	Generate(ctx context.Context, prompt string, opts *GenerateOptions) ResponseRecord
	ModelInfo() ModelInfo
}

// Pinger is an optional interface for connectors that can verify their
// credentials and endpoint with a cheap round trip.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GenerateOptions tunes a single generation call.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

func (o *GenerateOptions) maxTokens() int {
	if o == nil || o.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return o.MaxTokens
}

func (o *GenerateOptions) temperature() float64 {
	if o == nil || o.Temperature <= 0 {
		return defaultTemperature
	}
	return o.Temperature
}

// ResponseRecord is the raw outcome of one generation call. When
// Succeeded is false, Text is empty and ErrorMessage carries the
// provider failure.
type ResponseRecord struct {
	Text           string  `json:"response,omitempty"`
	LatencySeconds float64 `json:"latency"`
	TokensUsed     int     `json:"tokens_used"`
	Succeeded      bool    `json:"success"`
	ErrorMessage   string  `json:"error,omitempty"`
}

// ModelInfo describes a model for the duration of a run.
type ModelInfo struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Provider         string   `json:"provider"`
	MaxContextLength int      `json:"max_context_length"`
	CostPer1kTokens  float64  `json:"cost_per_1k_tokens"`
	Modalities       []string `json:"modalities"`
}
