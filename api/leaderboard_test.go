package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func runStubBenchmark(t *testing.T, s *Server, modelID string) string {
	t.Helper()

	payload := `{"prompts":["Summarize the ocean."],"model_ids":["` + modelID + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/benchmark", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("benchmark status: got %d body %s", rec.Code, rec.Body.String())
	}

	var run struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return run.ID
}

func TestLeaderboard_RankingsAfterRun(t *testing.T) {
	s := newTestServer(t, newStubConnector("stub_alpha"))
	runStubBenchmark(t, s, "stub_alpha")

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Metric   string `json:"metric"`
		Rankings []struct {
			ModelID string  `json:"model_id"`
			Score   float64 `json:"score"`
			Runs    int     `json:"runs"`
		} `json:"rankings"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Metric != "overall" {
		t.Fatalf("metric: got %q want overall", body.Metric)
	}
	if len(body.Rankings) != 1 {
		t.Fatalf("rankings: got %d want 1", len(body.Rankings))
	}
	if body.Rankings[0].ModelID != "stub_alpha" || body.Rankings[0].Runs != 1 {
		t.Fatalf("unexpected entry: %+v", body.Rankings[0])
	}
}

func TestLeaderboard_MetricView(t *testing.T) {
	s := newTestServer(t, newStubConnector("stub_alpha"))
	runStubBenchmark(t, s, "stub_alpha")

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?metric=latency", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Metric   string `json:"metric"`
		Rankings []struct {
			ModelID    string   `json:"model_id"`
			AvgLatency *float64 `json:"avg_latency"`
		} `json:"rankings"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Metric != "latency" {
		t.Fatalf("metric: got %q want latency", body.Metric)
	}
	if len(body.Rankings) != 1 {
		t.Fatalf("rankings: got %d want 1", len(body.Rankings))
	}
	entry := body.Rankings[0]
	if entry.AvgLatency == nil || *entry.AvgLatency != 2.0 {
		t.Fatalf("avg latency: got %v want 2.0", entry.AvgLatency)
	}
}

func TestLeaderboard_ModelHistory(t *testing.T) {
	s := newTestServer(t, newStubConnector("stub_alpha"))
	first := runStubBenchmark(t, s, "stub_alpha")
	second := runStubBenchmark(t, s, "stub_alpha")

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard/history/stub_alpha", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		ModelID string `json:"model_id"`
		History []struct {
			RunID  string             `json:"run_id"`
			Scores map[string]float64 `json:"scores"`
		} `json:"history"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.History) != 2 {
		t.Fatalf("history: got %d want 2", len(body.History))
	}
	got := map[string]bool{body.History[0].RunID: true, body.History[1].RunID: true}
	if !got[first] || !got[second] {
		t.Fatalf("history run ids: got %v want %s and %s", got, first, second)
	}
	if _, ok := body.History[0].Scores["overall"]; !ok {
		t.Fatalf("missing overall score: %+v", body.History[0].Scores)
	}
}

func TestLeaderboard_Stats(t *testing.T) {
	s := newTestServer(t, newStubConnector("stub_alpha"), newStubConnector("stub_beta"))
	runStubBenchmark(t, s, "stub_alpha")
	runStubBenchmark(t, s, "stub_beta")

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard/stats", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		TotalModels  int `json:"total_models"`
		TotalRuns    int `json:"total_runs"`
		TopPerformer *struct {
			ModelID string `json:"model_id"`
		} `json:"top_performer"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalModels != 2 {
		t.Fatalf("total models: got %d want 2", body.TotalModels)
	}
	if body.TotalRuns != 2 {
		t.Fatalf("total runs: got %d want 2", body.TotalRuns)
	}
	if body.TopPerformer == nil || body.TopPerformer.ModelID == "" {
		t.Fatalf("missing top performer: %+v", body.TopPerformer)
	}
}
