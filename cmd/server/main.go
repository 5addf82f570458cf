// Command server exposes the benchmark engine over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/stellarlinkco/model-bench/api"
	"github.com/stellarlinkco/model-bench/internal/benchmark"
	"github.com/stellarlinkco/model-bench/internal/config"
	"github.com/stellarlinkco/model-bench/internal/leaderboard"
	"github.com/stellarlinkco/model-bench/internal/registry"
	"github.com/stellarlinkco/model-bench/internal/resultstore"
)

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr

	loadConfig      = config.Load
	newRegistry     = registry.NewFromConfig
	openLeaderboard = leaderboard.New
	newServer       = api.NewServer
	runServer       = (*api.Server).RunContext
)

func main() {
	osExit(runMain(os.Args[1:]))
}

func runMain(args []string) int {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(stderrWriter)

	var addr string
	var configPath string
	fs.StringVar(&addr, "addr", "", "listen address (overrides config)")
	fs.StringVar(&configPath, "config", config.DefaultPath, "path to config file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	reg, err := newRegistry(cfg)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	board, err := openLeaderboard(cfg.Leaderboard.DBPath, cfg.Leaderboard.CacheTTL)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}
	defer func() { _ = board.Close() }()

	results := resultstore.New(cfg.Results.MaxRuns, cfg.Results.TTL)
	runner := benchmark.NewRunner(reg, results, benchmark.Config{
		Concurrency: cfg.Benchmark.Concurrency,
		Timeout:     cfg.Benchmark.Timeout,
		MaxTokens:   cfg.Benchmark.MaxTokens,
		Temperature: cfg.Benchmark.Temperature,
	})

	srv, err := newServer(cfg, reg, runner, results, board)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	if strings.TrimSpace(addr) == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runServer(srv, ctx, addr); err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}
	return 0
}
