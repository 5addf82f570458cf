// Package benchmark orchestrates benchmark runs: it fans out generation
// calls across (model, prompt) pairs with bounded concurrency, scores the
// raw responses, aggregates per model, and ranks models per metric and
// overall.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stellarlinkco/model-bench/internal/connector"
	"github.com/stellarlinkco/model-bench/internal/metrics"
)

// ConnectorResolver resolves model ids to connectors. Satisfied by
// registry.Registry.
type ConnectorResolver interface {
	ConnectorFor(modelID string) (connector.Connector, bool)
}

// RunStore receives completed runs. Satisfied by resultstore.Store.
type RunStore interface {
	Put(run *Run)
}

// Config defines runner behavior.
type Config struct {
	Concurrency int           // Max in-flight generation calls across the whole run
	Timeout     time.Duration // Per-call timeout; a timed-out call is a failed generation
	MaxTokens   int
	Temperature float64
}

// Runner executes benchmark runs against a set of registered models.
type Runner struct {
	resolver ConnectorResolver
	store    RunStore
	cfg      Config

	sem chan struct{}
}

// NewRunner creates a Runner. store may be nil, in which case completed
// runs are returned but not retained.
func NewRunner(resolver ConnectorResolver, store RunStore, cfg Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	return &Runner{
		resolver: resolver,
		store:    store,
		cfg:      cfg,
		sem:      make(chan struct{}, cfg.Concurrency),
	}
}

// RunBenchmark evaluates every requested model against every prompt,
// scoring the requested metrics, and returns the stored run. Models that
// do not resolve to a connector are skipped silently; provider failures
// are captured per prompt and never abort the run. An empty prompt or
// model list yields a valid run with empty results. Unknown metric names
// are a caller defect and fail fast. On cancellation the run is aborted
// and nothing is stored.
func (r *Runner) RunBenchmark(ctx context.Context, prompts []string, modelIDs []string, metricNames []string) (*Run, error) {
	if r == nil {
		return nil, errors.New("benchmark: nil runner")
	}
	if ctx == nil {
		return nil, errors.New("benchmark: nil context")
	}
	if r.resolver == nil {
		return nil, errors.New("benchmark: nil connector resolver")
	}

	if len(metricNames) == 0 {
		metricNames = DefaultMetrics()
	}
	for _, name := range metricNames {
		if !KnownMetric(name) {
			return nil, fmt.Errorf("benchmark: unknown metric %q", name)
		}
	}

	// A model named twice is still one model: evaluate it once and rank
	// it once.
	modelIDs = dedupeIDs(modelIDs)

	run := &Run{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Prompts:   append([]string(nil), prompts...),
		ModelIDs:  append([]string(nil), modelIDs...),
		Metrics:   append([]string(nil), metricNames...),
		Results:   make(map[string]*ModelResult),
	}

	type modelSlot struct {
		id     string
		result *ModelResult
	}

	slots := make([]modelSlot, 0, len(modelIDs))
	var wg sync.WaitGroup

	for _, modelID := range modelIDs {
		conn, ok := r.resolver.ConnectorFor(modelID)
		if !ok {
			// Unavailable models are excluded from the run, not errors.
			continue
		}

		slots = append(slots, modelSlot{id: modelID})
		slot := &slots[len(slots)-1]
		info := conn.ModelInfo()

		result := &ModelResult{
			ModelID:       modelID,
			ModelInfo:     info,
			PromptResults: make([]PromptResult, len(prompts)),
		}
		slot.result = result

		for i := range prompts {
			idx := i
			prompt := prompts[i]

			wg.Add(1)
			go func() {
				defer wg.Done()

				if err := r.acquire(ctx); err != nil {
					result.PromptResults[idx] = PromptResult{
						PromptIndex:  idx,
						Prompt:       prompt,
						ErrorMessage: err.Error(),
						Metrics:      map[string]MetricScore{},
					}
					return
				}
				defer r.release()

				result.PromptResults[idx] = r.evaluatePrompt(ctx, conn, info, prompt, idx, metricNames)
			}()
		}
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("benchmark: run aborted: %w", err)
	}

	for i := range slots {
		result := slots[i].result
		result.AggregatedMetrics = aggregateModel(result.PromptResults, metricNames)
		run.Results[slots[i].id] = result
	}

	run.Summary = summarize(run.Results, run.ModelIDs, metricNames)

	if r.store != nil {
		r.store.Put(run)
	}
	return run, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (r *Runner) acquire(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) release() {
	<-r.sem
}

// evaluatePrompt runs one generation call and scores the requested
// metrics. All provider failures, including per-call timeouts, degrade to
// a failed PromptResult with empty metrics.
func (r *Runner) evaluatePrompt(ctx context.Context, conn connector.Connector, info connector.ModelInfo, prompt string, idx int, metricNames []string) PromptResult {
	callCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	rec := conn.Generate(callCtx, prompt, &connector.GenerateOptions{
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	})

	out := PromptResult{
		PromptIndex:  idx,
		Prompt:       prompt,
		Succeeded:    rec.Succeeded,
		ErrorMessage: rec.ErrorMessage,
		Metrics:      map[string]MetricScore{},
	}
	if !rec.Succeeded {
		return out
	}
	out.Response = rec.Text

	for _, name := range metricNames {
		switch name {
		case MetricLatency:
			raw := rec.LatencySeconds
			out.Metrics[name] = MetricScore{
				RawValue: &raw,
				Score:    metrics.LatencyScore(rec.LatencySeconds),
			}
		case MetricCost:
			cost := float64(rec.TokensUsed) / 1000 * info.CostPer1kTokens
			out.Metrics[name] = MetricScore{
				RawValue:   &cost,
				Score:      metrics.CostScore(cost, metrics.DefaultMaxCost),
				TokensUsed: rec.TokensUsed,
			}
		case MetricQuality:
			out.Metrics[name] = MetricScore{
				Score: metrics.QualityScore(rec.Text, ""),
			}
		case MetricContextUtilization:
			words := len(strings.Fields(prompt))
			out.Metrics[name] = MetricScore{
				Score:        metrics.ContextUtilizationScore(words, info.MaxContextLength),
				PromptLength: words,
				MaxContext:   info.MaxContextLength,
			}
		}
	}
	return out
}

// aggregateModel reduces per-prompt metric scores into per-metric
// statistics. Only succeeded evaluations count; a metric with no
// succeeded evaluations is omitted.
func aggregateModel(promptResults []PromptResult, metricNames []string) AggregatedMetrics {
	out := AggregatedMetrics{}

	for _, name := range metricNames {
		var scores []float64
		var raws []float64

		for i := range promptResults {
			pr := &promptResults[i]
			if !pr.Succeeded {
				continue
			}
			ms, ok := pr.Metrics[name]
			if !ok {
				continue
			}
			scores = append(scores, ms.Score)
			if ms.RawValue != nil {
				raws = append(raws, *ms.RawValue)
			}
		}

		if len(scores) == 0 {
			continue
		}

		agg := MetricAggregate{
			AverageScore: mean(scores),
			MinScore:     minOf(scores),
			MaxScore:     maxOf(scores),
			Count:        len(scores),
		}
		if len(raws) > 0 {
			avgRaw, minRaw, maxRaw := mean(raws), minOf(raws), maxOf(raws)
			agg.AverageRaw = &avgRaw
			agg.MinRaw = &minRaw
			agg.MaxRaw = &maxRaw
		}

		if out.Metrics == nil {
			out.Metrics = make(map[string]MetricAggregate)
		}
		out.Metrics[name] = agg
	}

	if out.HasData() {
		averages := make(map[string]float64, len(out.Metrics))
		for name, agg := range out.Metrics {
			averages[name] = agg.AverageScore
		}
		out.OverallScore = metrics.Aggregate(averages, nil)
	}
	return out
}

// summarize ranks models per view. Ties keep input model order, so
// identical inputs always yield identical rankings.
func summarize(results map[string]*ModelResult, modelOrder []string, metricNames []string) RunSummary {
	summary := RunSummary{
		Rankings:       make(map[string][]RankingEntry),
		BestPerformers: make(map[string]string),
	}

	overall := make([]RankingEntry, 0, len(results))
	for _, modelID := range modelOrder {
		mr, ok := results[modelID]
		if !ok || !mr.AggregatedMetrics.HasData() {
			continue
		}
		overall = append(overall, RankingEntry{
			ModelID: modelID,
			Score:   mr.AggregatedMetrics.OverallScore,
		})
	}
	sortRanking(overall)
	summary.Rankings["overall"] = overall

	for _, metric := range metricNames {
		entries := make([]RankingEntry, 0, len(results))
		for _, modelID := range modelOrder {
			mr, ok := results[modelID]
			if !ok {
				continue
			}
			agg, ok := mr.AggregatedMetrics.Metrics[metric]
			if !ok {
				continue
			}
			entries = append(entries, RankingEntry{
				ModelID: modelID,
				Score:   agg.AverageScore,
			})
		}
		sortRanking(entries)
		summary.Rankings[metric] = entries

		if len(entries) > 0 {
			summary.BestPerformers[metric] = entries[0].ModelID
		}
	}

	return summary
}

func sortRanking(entries []RankingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func minOf(vals []float64) float64 {
	out := vals[0]
	for _, v := range vals[1:] {
		if v < out {
			out = v
		}
	}
	return out
}

func maxOf(vals []float64) float64 {
	out := vals[0]
	for _, v := range vals[1:] {
		if v > out {
			out = v
		}
	}
	return out
}
