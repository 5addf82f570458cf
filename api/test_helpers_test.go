package api

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/model-bench/internal/benchmark"
	"github.com/stellarlinkco/model-bench/internal/connector"
	"github.com/stellarlinkco/model-bench/internal/leaderboard"
	"github.com/stellarlinkco/model-bench/internal/registry"
	"github.com/stellarlinkco/model-bench/internal/resultstore"
)

type stubConnector struct {
	info     connector.ModelInfo
	response string
	latency  float64
	tokens   int
	fail     bool
}

func (s *stubConnector) Generate(ctx context.Context, prompt string, opts *connector.GenerateOptions) connector.ResponseRecord {
	if s.fail {
		return connector.ResponseRecord{
			LatencySeconds: s.latency,
			ErrorMessage:   "stub failure",
		}
	}
	return connector.ResponseRecord{
		Text:           s.response,
		LatencySeconds: s.latency,
		TokensUsed:     s.tokens,
		Succeeded:      true,
	}
}

func (s *stubConnector) ModelInfo() connector.ModelInfo {
	return s.info
}

func newStubConnector(id string) *stubConnector {
	return &stubConnector{
		info: connector.ModelInfo{
			ID:               id,
			Name:             id,
			Provider:         "stub",
			MaxContextLength: 8192,
			CostPer1kTokens:  0.01,
			Modalities:       []string{"text"},
		},
		response: "A clear and complete answer. It covers the question directly.",
		latency:  2.0,
		tokens:   40,
	}
}

func newTestServer(t *testing.T, conns ...connector.Connector) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("MODEL_BENCH_API_KEY", "")
	t.Setenv("MODEL_BENCH_DISABLE_AUTH", "true")
	t.Setenv("MODEL_BENCH_CORS_ORIGINS", "")

	reg := registry.New()
	for _, conn := range conns {
		reg.Register(conn)
	}

	results := resultstore.New(16, 0)
	runner := benchmark.NewRunner(reg, results, benchmark.Config{
		Concurrency: 2,
		Timeout:     5 * time.Second,
	})

	board, err := leaderboard.New(":memory:", time.Minute)
	if err != nil {
		t.Fatalf("leaderboard.New: %v", err)
	}
	t.Cleanup(func() { _ = board.Close() })

	s, err := NewServer(nil, reg, runner, results, board)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}
