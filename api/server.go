// Package api exposes the benchmark engine over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/model-bench/internal/benchmark"
	"github.com/stellarlinkco/model-bench/internal/config"
	"github.com/stellarlinkco/model-bench/internal/leaderboard"
	"github.com/stellarlinkco/model-bench/internal/registry"
	"github.com/stellarlinkco/model-bench/internal/resultstore"
)

type Server struct {
	router   *gin.Engine
	config   *config.Config
	registry *registry.Registry
	runner   *benchmark.Runner
	results  *resultstore.Store
	board    *leaderboard.Leaderboard
}

func NewServer(cfg *config.Config, reg *registry.Registry, runner *benchmark.Runner, results *resultstore.Store, board *leaderboard.Leaderboard) (*Server, error) {
	r := gin.New()
	s := &Server{
		router:   r,
		config:   cfg,
		registry: reg,
		runner:   runner,
		results:  results,
		board:    board,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

const shutdownGrace = 10 * time.Second

func (s *Server) Run(addr string) error {
	return s.RunContext(context.Background(), addr)
}

// RunContext serves until the listener fails or ctx is cancelled. On
// cancellation in-flight requests are drained before returning.
func (s *Server) RunContext(ctx context.Context, addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	if ctx == nil {
		return errors.New("api: nil context")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api: shutdown: %w", err)
		}
		<-errCh
		return nil
	}
}

// Router exposes the underlying engine for tests and embedding.
func (s *Server) Router() *gin.Engine {
	if s == nil {
		return nil
	}
	return s.router
}
