// Package metrics provides pure scoring functions that normalize raw
// response signals (latency, cost, text quality, context utilization)
// into comparable 0-100 scores.
package metrics

import "strings"

// Default weights for combining per-metric scores into an overall score.
// A metric missing from the weight table contributes with DefaultWeight.
const DefaultWeight = 0.1

var defaultWeights = map[string]float64{
	"latency":             0.3,
	"cost":                0.2,
	"quality":             0.4,
	"context_utilization": 0.1,
}

// DefaultWeights returns a copy of the default aggregation weights.
func DefaultWeights() map[string]float64 {
	out := make(map[string]float64, len(defaultWeights))
	for k, v := range defaultWeights {
		out[k] = v
	}
	return out
}

// LatencyScore maps latency in seconds to a 0-100 score. One second or
// less scores 100, ten seconds or more scores 0, linear in between.
func LatencyScore(latencySeconds float64) float64 {
	if latencySeconds <= 1.0 {
		return 100
	}
	if latencySeconds >= 10.0 {
		return 0
	}
	return 100 * (10 - latencySeconds) / 9
}

// CostScore maps a per-request dollar cost to a 0-100 score relative to
// maxCost. Zero or negative cost scores 100; cost at or beyond maxCost
// scores 0.
func CostScore(cost, maxCost float64) float64 {
	if cost <= 0 {
		return 100
	}
	if maxCost <= 0 {
		return 0
	}
	normalized := cost / maxCost
	if normalized > 1 {
		normalized = 1
	}
	return (1 - normalized) * 100
}

// DefaultMaxCost is the reference request cost at which CostScore reaches 0.
const DefaultMaxCost = 0.1

// QualityScore estimates response quality with cheap text heuristics:
// word-count range, sentence count, terminal punctuation, and refusal
// phrases. If reference is non-empty the heuristic score is averaged with
// 100x the Jaccard word overlap between response and reference. An empty
// response scores 0 regardless of reference.
func QualityScore(response, reference string) float64 {
	if response == "" {
		return 0
	}

	score := 50.0

	words := len(strings.Fields(response))
	switch {
	case words >= 10 && words <= 500:
		score += 20
	case (words >= 5 && words < 10) || (words > 500 && words <= 1000):
		score += 10
	}

	if len(strings.Split(response, ".")) > 1 {
		score += 10
	}

	trimmed := strings.TrimSpace(response)
	if strings.HasSuffix(trimmed, ".") || strings.HasSuffix(trimmed, "!") || strings.HasSuffix(trimmed, "?") {
		score += 10
	}

	if strings.Contains(response, "I apologize") || strings.Contains(response, "I cannot") {
		score -= 10
	}

	if reference != "" {
		score = (score + textSimilarity(response, reference)*100) / 2
	}

	return clamp(score, 0, 100)
}

// textSimilarity computes Jaccard overlap between lowercase word sets.
func textSimilarity(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)

	if len(wa) == 0 && len(wb) == 0 {
		return 1
	}
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	intersection := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			intersection++
		}
	}
	union := len(wa) + len(wb) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

// ContextUtilizationScore scores how much of the model's context window
// the prompt occupies. Utilization between 20% and 80% scores 100; below
// 20% ramps linearly from 0, above 80% falls linearly to 0 at 100%.
// A non-positive maxContext yields a neutral 50.
func ContextUtilizationScore(promptWords, maxContext int) float64 {
	if maxContext <= 0 {
		return 50
	}

	utilization := float64(promptWords) / float64(maxContext)
	if utilization > 1 {
		utilization = 1
	}
	if utilization < 0 {
		utilization = 0
	}

	switch {
	case utilization >= 0.2 && utilization <= 0.8:
		return 100
	case utilization < 0.2:
		return utilization * 500
	default:
		return clamp(100-(utilization-0.8)*500, 0, 100)
	}
}

// Aggregate combines per-metric scores into a single weighted mean. A nil
// weights map uses the default weights; metrics absent from weights get
// DefaultWeight. Empty scores yield 0.
func Aggregate(scores map[string]float64, weights map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	if weights == nil {
		weights = defaultWeights
	}

	totalScore := 0.0
	totalWeight := 0.0
	for metric, score := range scores {
		weight, ok := weights[metric]
		if !ok {
			weight = DefaultWeight
		}
		totalScore += score * weight
		totalWeight += weight
	}

	if totalWeight <= 0 {
		return 0
	}
	return totalScore / totalWeight
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
