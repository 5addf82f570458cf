// Package leaderboard maintains model rankings across benchmark runs.
// Per-run aggregates are persisted to a sqlite entry log; ranking views
// are computed from all recorded runs and cached for a bounded duration.
package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stellarlinkco/model-bench/internal/benchmark"
)

const (
	// OverallMetric is the composite ranking view.
	OverallMetric = "overall"

	defaultCacheTTL = 5 * time.Minute
)

// Entry is one model's position in a cross-run ranking view. The avg_*
// fields carry metric-specific context and are populated only for the
// view they belong to.
type Entry struct {
	ModelID    string   `json:"model_id"`
	Provider   string   `json:"provider"`
	Score      float64  `json:"score"`
	Runs       int      `json:"runs"`
	AvgLatency *float64 `json:"avg_latency,omitempty"`
	AvgCost    *float64 `json:"avg_cost,omitempty"`
	AvgQuality *float64 `json:"avg_quality,omitempty"`
}

// HistoryPoint is one run's scores for a single model.
type HistoryPoint struct {
	RunID    string             `json:"run_id"`
	EvalDate time.Time          `json:"eval_date"`
	Scores   map[string]float64 `json:"scores"`
}

// Stats summarizes the whole leaderboard.
type Stats struct {
	TotalModels  int       `json:"total_models"`
	TotalRuns    int       `json:"total_runs"`
	LastRun      time.Time `json:"last_run,omitempty"`
	TopPerformer *Entry    `json:"top_performer,omitempty"`
}

type cachedView struct {
	entries []Entry
	at      time.Time
}

// Leaderboard persists run aggregates and serves ranking views. The
// cache has a single writer discipline: Update invalidates, Rankings
// repopulates under the same lock.
type Leaderboard struct {
	db       *sql.DB
	cacheTTL time.Duration

	mu    sync.Mutex
	cache map[string]cachedView
	now   func() time.Time
}

// New opens (or creates) the sqlite entry log at dbPath. Use ":memory:"
// for tests.
func New(dbPath string, cacheTTL time.Duration) (*Leaderboard, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("leaderboard: empty db path")
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("leaderboard: create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: open db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("leaderboard: ping db: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	lb := &Leaderboard{
		db:       db,
		cacheTTL: cacheTTL,
		cache:    make(map[string]cachedView),
		now:      time.Now,
	}
	return lb, nil
}

func initSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("leaderboard: nil db")
	}

	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS leaderboard_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			model TEXT NOT NULL,
			provider TEXT NOT NULL,
			metric TEXT NOT NULL,
			score REAL NOT NULL,
			avg_raw REAL,
			eval_date INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_metric ON leaderboard_entries(metric)`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_model ON leaderboard_entries(model)`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_eval_date ON leaderboard_entries(eval_date)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("leaderboard: init schema: %w", err)
		}
	}
	return nil
}

func (l *Leaderboard) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Update ingests a completed run: one row per (model, metric) aggregate
// plus an overall row per model, then drops every cached ranking view so
// the next Rankings call sees the new run.
func (l *Leaderboard) Update(ctx context.Context, run *benchmark.Run) error {
	if l == nil || l.db == nil {
		return errors.New("leaderboard: nil leaderboard")
	}
	if ctx == nil {
		return errors.New("leaderboard: nil context")
	}
	if run == nil {
		return errors.New("leaderboard: nil run")
	}

	evalDate := run.Timestamp
	if evalDate.IsZero() {
		evalDate = l.now().UTC()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("leaderboard: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insert = `
		INSERT INTO leaderboard_entries (run_id, model, provider, metric, score, avg_raw, eval_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for modelID, mr := range run.Results {
		if mr == nil || !mr.AggregatedMetrics.HasData() {
			continue
		}

		provider := mr.ModelInfo.Provider
		date := evalDate.UTC().UnixMilli()

		if _, err := tx.ExecContext(ctx, insert,
			run.ID, modelID, provider, OverallMetric,
			mr.AggregatedMetrics.OverallScore, nil, date,
		); err != nil {
			return fmt.Errorf("leaderboard: insert overall entry: %w", err)
		}

		for metric, agg := range mr.AggregatedMetrics.Metrics {
			var raw any
			if agg.AverageRaw != nil {
				raw = *agg.AverageRaw
			}
			if _, err := tx.ExecContext(ctx, insert,
				run.ID, modelID, provider, metric,
				agg.AverageScore, raw, date,
			); err != nil {
				return fmt.Errorf("leaderboard: insert %s entry: %w", metric, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("leaderboard: commit: %w", err)
	}

	l.mu.Lock()
	l.cache = make(map[string]cachedView)
	l.mu.Unlock()
	return nil
}

// Rankings returns the cross-run ranking for one view ("overall" or a
// metric name), averaging each model's per-run scores. Cached results are
// served for at most the cache TTL since they were computed.
func (l *Leaderboard) Rankings(ctx context.Context, metric string) ([]Entry, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("leaderboard: nil leaderboard")
	}
	if ctx == nil {
		return nil, errors.New("leaderboard: nil context")
	}

	metric = strings.TrimSpace(metric)
	if metric == "" {
		metric = OverallMetric
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if cached, ok := l.cache[metric]; ok && l.now().Sub(cached.at) <= l.cacheTTL {
		return copyEntries(cached.entries), nil
	}

	entries, err := l.queryRankings(ctx, metric)
	if err != nil {
		return nil, err
	}

	l.cache[metric] = cachedView{entries: entries, at: l.now()}
	return copyEntries(entries), nil
}

// copyEntries detaches served entries from the cached view, pointer
// fields included.
func copyEntries(entries []Entry) []Entry {
	out := append([]Entry(nil), entries...)
	for i := range out {
		out[i].AvgLatency = copyFloat(out[i].AvgLatency)
		out[i].AvgCost = copyFloat(out[i].AvgCost)
		out[i].AvgQuality = copyFloat(out[i].AvgQuality)
	}
	return out
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (l *Leaderboard) queryRankings(ctx context.Context, metric string) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT model, provider, AVG(score), AVG(avg_raw), COUNT(DISTINCT run_id)
		FROM leaderboard_entries
		WHERE metric = ?
		GROUP BY model, provider
		ORDER BY AVG(score) DESC, model ASC
	`, metric)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query rankings: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var avgRaw sql.NullFloat64
		if err := rows.Scan(&e.ModelID, &e.Provider, &e.Score, &avgRaw, &e.Runs); err != nil {
			return nil, fmt.Errorf("leaderboard: scan ranking: %w", err)
		}

		switch metric {
		case benchmark.MetricLatency:
			if avgRaw.Valid {
				v := avgRaw.Float64
				e.AvgLatency = &v
			}
		case benchmark.MetricCost:
			if avgRaw.Valid {
				v := avgRaw.Float64
				e.AvgCost = &v
			}
		case benchmark.MetricQuality:
			v := e.Score
			e.AvgQuality = &v
		}

		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: scan rankings: %w", err)
	}
	return out, nil
}

// ModelHistory returns a model's per-run scores, newest first.
func (l *Leaderboard) ModelHistory(ctx context.Context, modelID string) ([]HistoryPoint, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("leaderboard: nil leaderboard")
	}
	if ctx == nil {
		return nil, errors.New("leaderboard: nil context")
	}
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, errors.New("leaderboard: empty model id")
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, metric, score, eval_date
		FROM leaderboard_entries
		WHERE model = ?
		ORDER BY eval_date DESC, run_id
	`, modelID)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryPoint
	index := make(map[string]int)
	for rows.Next() {
		var runID, metric string
		var score float64
		var evalDateMS int64
		if err := rows.Scan(&runID, &metric, &score, &evalDateMS); err != nil {
			return nil, fmt.Errorf("leaderboard: scan history: %w", err)
		}

		i, ok := index[runID]
		if !ok {
			i = len(out)
			index[runID] = i
			out = append(out, HistoryPoint{
				RunID:    runID,
				EvalDate: time.UnixMilli(evalDateMS).UTC(),
				Scores:   make(map[string]float64),
			})
		}
		out[i].Scores[metric] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: scan history rows: %w", err)
	}
	return out, nil
}

// LeaderboardStats reports totals and the current top performer.
func (l *Leaderboard) LeaderboardStats(ctx context.Context) (*Stats, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("leaderboard: nil leaderboard")
	}
	if ctx == nil {
		return nil, errors.New("leaderboard: nil context")
	}

	out := &Stats{}
	var lastRunMS sql.NullInt64
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT model), COUNT(DISTINCT run_id), MAX(eval_date)
		FROM leaderboard_entries
	`).Scan(&out.TotalModels, &out.TotalRuns, &lastRunMS)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query stats: %w", err)
	}
	if lastRunMS.Valid {
		out.LastRun = time.UnixMilli(lastRunMS.Int64).UTC()
	}

	top, err := l.Rankings(ctx, OverallMetric)
	if err != nil {
		return nil, err
	}
	if len(top) > 0 {
		e := top[0]
		out.TopPerformer = &e
	}
	return out, nil
}
