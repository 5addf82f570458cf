package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/model-bench/internal/benchmark"
)

type benchmarkRequest struct {
	Prompts  []string `json:"prompts"`
	ModelIDs []string `json:"model_ids"`
	Metrics  []string `json:"metrics,omitempty"`
}

func respondError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"models": s.registry.Len(),
	})
}

func (s *Server) handleListModels(c *gin.Context) {
	infos := s.registry.Models()
	c.JSON(http.StatusOK, gin.H{
		"models": infos,
		"count":  len(infos),
	})
}

func (s *Server) handleRunBenchmark(c *gin.Context) {
	var req benchmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if len(req.Prompts) == 0 {
		respondError(c, http.StatusBadRequest, errors.New("missing prompts"))
		return
	}
	if len(req.ModelIDs) == 0 {
		respondError(c, http.StatusBadRequest, errors.New("missing model_ids"))
		return
	}
	for _, name := range req.Metrics {
		if !benchmark.KnownMetric(name) {
			respondError(c, http.StatusBadRequest, errors.New("unknown metric "+strings.TrimSpace(name)))
			return
		}
	}

	run, err := s.runner.RunBenchmark(c.Request.Context(), req.Prompts, req.ModelIDs, req.Metrics)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	if s.board != nil {
		if err := s.board.Update(c.Request.Context(), run); err != nil {
			respondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	c.JSON(http.StatusOK, run)
}

func (s *Server) handleGetResults(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing benchmark id"))
		return
	}

	run, ok := s.results.Get(id)
	if !ok {
		respondError(c, http.StatusNotFound, errors.New("benchmark "+id+" not found"))
		return
	}
	c.JSON(http.StatusOK, run)
}
