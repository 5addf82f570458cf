package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/model-bench/internal/leaderboard"
)

func (s *Server) handleGetLeaderboard(c *gin.Context) {
	if s.board == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("leaderboard disabled"))
		return
	}

	metric := strings.TrimSpace(c.Query("metric"))
	if metric == "" {
		metric = leaderboard.OverallMetric
	}

	entries, err := s.board.Rankings(c.Request.Context(), metric)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"metric":   metric,
		"rankings": entries,
	})
}

func (s *Server) handleGetModelHistory(c *gin.Context) {
	if s.board == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("leaderboard disabled"))
		return
	}

	modelID := strings.TrimSpace(c.Param("model"))
	if modelID == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing model id"))
		return
	}

	history, err := s.board.ModelHistory(c.Request.Context(), modelID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"model_id": modelID,
		"history":  history,
	})
}

func (s *Server) handleGetLeaderboardStats(c *gin.Context) {
	if s.board == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("leaderboard disabled"))
		return
	}

	stats, err := s.board.LeaderboardStats(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
