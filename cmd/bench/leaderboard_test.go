package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/model-bench/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for explicit missing config path")
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Leaderboard.DBPath = ":memory:"
	return cfg
}

func newOutCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestRunLeaderboard_EmptyBoard(t *testing.T) {
	st := &cliState{cfg: testConfig(t)}

	cmd, buf := newOutCmd()
	opts := &leaderboardOptions{metric: "overall", top: 5, format: "table"}
	if err := runLeaderboard(cmd, st, opts); err != nil {
		t.Fatalf("runLeaderboard: %v", err)
	}
	if got := buf.String(); !bytes.Contains([]byte(got), []byte("RANK")) {
		t.Fatalf("missing table header: %q", got)
	}
}

func TestRunLeaderboard_InvalidFormat(t *testing.T) {
	st := &cliState{cfg: testConfig(t)}

	cmd, _ := newOutCmd()
	opts := &leaderboardOptions{metric: "overall", format: "xml"}
	if err := runLeaderboard(cmd, st, opts); err == nil {
		t.Fatal("expected error for invalid format")
	}
}

func TestRunHistory_MissingModel(t *testing.T) {
	st := &cliState{cfg: testConfig(t)}

	cmd, _ := newOutCmd()
	if err := runHistory(cmd, st, "  ", "table"); err == nil {
		t.Fatal("expected error for missing model id")
	}
}
