package api

import (
	"errors"
	"os"
	"strings"
)

func (s *Server) registerRoutes() error {
	if s == nil || s.router == nil {
		return nil
	}

	api := s.router.Group("/api")
	apiKey := strings.TrimSpace(os.Getenv("MODEL_BENCH_API_KEY"))
	if apiKey != "" {
		api.Use(apiKeyAuthMiddleware(apiKey))
	} else if strings.EqualFold(strings.TrimSpace(os.Getenv("MODEL_BENCH_DISABLE_AUTH")), "true") {
		// Explicitly allow unauthenticated access.
	} else {
		return errors.New("api: missing auth configuration: set MODEL_BENCH_API_KEY or set MODEL_BENCH_DISABLE_AUTH=true")
	}

	api.GET("/health", s.handleHealth)
	api.GET("/models", s.handleListModels)

	api.POST("/benchmark", s.handleRunBenchmark)
	api.GET("/results/:id", s.handleGetResults)

	api.GET("/leaderboard", s.handleGetLeaderboard)
	api.GET("/leaderboard/history/:model", s.handleGetModelHistory)
	api.GET("/leaderboard/stats", s.handleGetLeaderboardStats)

	return nil
}
