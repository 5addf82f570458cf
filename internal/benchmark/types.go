package benchmark

import (
	"time"

	"github.com/stellarlinkco/model-bench/internal/connector"
)

// Metric names accepted by RunBenchmark.
const (
	MetricLatency            = "latency"
	MetricCost               = "cost"
	MetricQuality            = "quality"
	MetricContextUtilization = "context_utilization"
)

// DefaultMetrics is the metric set used when a run requests none.
func DefaultMetrics() []string {
	return []string{MetricLatency, MetricCost, MetricQuality}
}

// KnownMetric reports whether name is a metric RunBenchmark accepts.
func KnownMetric(name string) bool {
	switch name {
	case MetricLatency, MetricCost, MetricQuality, MetricContextUtilization:
		return true
	default:
		return false
	}
}

// MetricScore is one metric's outcome for one prompt evaluation. RawValue
// is nil for metrics without a natural raw unit (quality, context
// utilization).
type MetricScore struct {
	RawValue     *float64 `json:"raw_value,omitempty"`
	Score        float64  `json:"score"`
	TokensUsed   int      `json:"tokens_used,omitempty"`
	PromptLength int      `json:"prompt_length,omitempty"`
	MaxContext   int      `json:"max_context,omitempty"`
}

// PromptResult is the outcome of one (model, prompt) evaluation. A failed
// generation keeps its slot (for diagnostics) with empty Metrics.
type PromptResult struct {
	PromptIndex  int                    `json:"prompt_index"`
	Prompt       string                 `json:"prompt"`
	Response     string                 `json:"response,omitempty"`
	Succeeded    bool                   `json:"success"`
	ErrorMessage string                 `json:"error,omitempty"`
	Metrics      map[string]MetricScore `json:"metrics"`
}

// MetricAggregate summarizes one metric across a model's succeeded
// prompt evaluations.
type MetricAggregate struct {
	AverageScore float64  `json:"average_score"`
	MinScore     float64  `json:"min_score"`
	MaxScore     float64  `json:"max_score"`
	Count        int      `json:"count"`
	AverageRaw   *float64 `json:"average_raw,omitempty"`
	MinRaw       *float64 `json:"min_raw,omitempty"`
	MaxRaw       *float64 `json:"max_raw,omitempty"`
}

// AggregatedMetrics holds per-metric aggregates for one model plus the
// weighted overall score. Metrics with no succeeded evaluations are
// omitted from the map, never reported as zero.
type AggregatedMetrics struct {
	Metrics      map[string]MetricAggregate `json:"metrics,omitempty"`
	OverallScore float64                    `json:"overall_score"`
}

// HasData reports whether any metric aggregated at least one evaluation.
func (a AggregatedMetrics) HasData() bool {
	return len(a.Metrics) > 0
}

// ModelResult collects everything produced for one model in a run.
type ModelResult struct {
	ModelID           string              `json:"model_id"`
	ModelInfo         connector.ModelInfo `json:"model_info"`
	PromptResults     []PromptResult      `json:"prompt_results"`
	AggregatedMetrics AggregatedMetrics   `json:"aggregated_metrics"`
}

// RankingEntry is one model's position in a ranking view.
type RankingEntry struct {
	ModelID string  `json:"model_id"`
	Score   float64 `json:"score"`
}

// RunSummary derives cross-model rankings from a run's results. Every
// ranking view, including "overall", excludes models with no data for
// that view.
type RunSummary struct {
	Rankings       map[string][]RankingEntry `json:"rankings"`
	BestPerformers map[string]string         `json:"best_performers"`
}

// Run is one complete benchmark invocation. Immutable once stored.
type Run struct {
	ID        string                  `json:"id"`
	Timestamp time.Time               `json:"timestamp"`
	Prompts   []string                `json:"prompts"`
	ModelIDs  []string                `json:"model_ids"`
	Metrics   []string                `json:"metrics"`
	Results   map[string]*ModelResult `json:"results"`
	Summary   RunSummary              `json:"summary"`
}

// Clone deep-copies a run so stored runs stay immutable while callers
// receive their own view.
func (r *Run) Clone() *Run {
	if r == nil {
		return nil
	}

	out := &Run{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		Prompts:   append([]string(nil), r.Prompts...),
		ModelIDs:  append([]string(nil), r.ModelIDs...),
		Metrics:   append([]string(nil), r.Metrics...),
		Summary: RunSummary{
			Rankings:       make(map[string][]RankingEntry, len(r.Summary.Rankings)),
			BestPerformers: make(map[string]string, len(r.Summary.BestPerformers)),
		},
	}

	if r.Results != nil {
		out.Results = make(map[string]*ModelResult, len(r.Results))
		for id, mr := range r.Results {
			out.Results[id] = mr.clone()
		}
	}
	for view, entries := range r.Summary.Rankings {
		out.Summary.Rankings[view] = append([]RankingEntry(nil), entries...)
	}
	for metric, modelID := range r.Summary.BestPerformers {
		out.Summary.BestPerformers[metric] = modelID
	}
	return out
}

func (m *ModelResult) clone() *ModelResult {
	if m == nil {
		return nil
	}

	out := &ModelResult{
		ModelID:   m.ModelID,
		ModelInfo: m.ModelInfo,
		AggregatedMetrics: AggregatedMetrics{
			OverallScore: m.AggregatedMetrics.OverallScore,
		},
	}
	out.ModelInfo.Modalities = append([]string(nil), m.ModelInfo.Modalities...)

	out.PromptResults = make([]PromptResult, len(m.PromptResults))
	for i, pr := range m.PromptResults {
		cp := pr
		cp.Metrics = make(map[string]MetricScore, len(pr.Metrics))
		for name, ms := range pr.Metrics {
			ms.RawValue = copyFloat(ms.RawValue)
			cp.Metrics[name] = ms
		}
		out.PromptResults[i] = cp
	}

	if m.AggregatedMetrics.Metrics != nil {
		out.AggregatedMetrics.Metrics = make(map[string]MetricAggregate, len(m.AggregatedMetrics.Metrics))
		for name, agg := range m.AggregatedMetrics.Metrics {
			agg.AverageRaw = copyFloat(agg.AverageRaw)
			agg.MinRaw = copyFloat(agg.MinRaw)
			agg.MaxRaw = copyFloat(agg.MaxRaw)
			out.AggregatedMetrics.Metrics[name] = agg
		}
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
