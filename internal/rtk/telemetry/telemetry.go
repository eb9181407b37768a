// Package telemetry is the SQLite-backed `commands` store every filter
// records an invocation to: one row per command, a timestamp index, 90-day
// retention, and aggregation queries for `rtk gain`/`rtk cc-economics`.
//
// Grounded on the teacher's internal/indexer/db.go (WAL DSN, single-writer
// connection pool settings, additive-migration style) and
// original_source/rtk/src/tracking.rs (schema, Record/Summary/ByDay/ByWeek/
// ByMonth/Recent semantics, the exact SQL each aggregation runs).
package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rtk-proxy/rtk/internal/rtk/config"

	_ "modernc.org/sqlite"
)

// HistoryDays is how long a command record is retained before the
// post-insert purge deletes it.
const HistoryDays = 90

// dbPathEnvVar overrides the database path, checked first (§4.2).
const dbPathEnvVar = "RTK_DB_PATH"

// ResolvePath implements the §4.2 path resolution priority: env var,
// then the config file's tracking.database_path, then the platform
// default cache directory — mirroring tracking.rs's get_db_path.
func ResolvePath(cfg *config.Config) string {
	if p := os.Getenv(dbPathEnvVar); p != "" {
		return p
	}
	if cfg != nil && cfg.Tracking.DatabasePath != "" {
		return cfg.Tracking.DatabasePath
	}
	dataDir, err := os.UserCacheDir()
	if err != nil {
		dataDir = "."
	}
	return filepath.Join(dataDir, "rtk", "history.db")
}

// Store wraps the commands database. One Store is opened per RTK
// invocation and closed before the process exits (§3.6).
type Store struct {
	db *sql.DB
}

// Open creates/migrates the schema at dbPath and returns a ready Store.
// dbPath's parent directory is created if missing.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open telemetry db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping telemetry db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate telemetry db: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS commands (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			original_cmd TEXT NOT NULL,
			rtk_cmd TEXT NOT NULL,
			input_tokens INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			saved_tokens INTEGER NOT NULL,
			savings_pct REAL NOT NULL
		)`)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_timestamp ON commands(timestamp)`); err != nil {
		return err
	}
	// Additive migration: ignore "duplicate column" on repeated opens.
	_, _ = s.db.ExecContext(ctx, `ALTER TABLE commands ADD COLUMN exec_time_ms INTEGER DEFAULT 0`)
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts a full (tier-1/tier-2) invocation record and purges rows
// older than the retention window.
func (s *Store) Record(ctx context.Context, originalCmd, rtkCmd string, inputTokens, outputTokens int, execTimeMs int64) error {
	saved := inputTokens - outputTokens
	if saved < 0 {
		saved = 0
	}
	var pct float64
	if inputTokens > 0 {
		pct = float64(saved) / float64(inputTokens) * 100.0
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commands (timestamp, original_cmd, rtk_cmd, input_tokens, output_tokens, saved_tokens, savings_pct, exec_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), originalCmd, rtkCmd, inputTokens, outputTokens, saved, pct, execTimeMs)
	if err != nil {
		return fmt.Errorf("insert command record: %w", err)
	}
	return s.cleanupOld(ctx)
}

// RecordPassthrough inserts a tier-3 invocation: zero token counts by
// definition (§3.3).
func (s *Store) RecordPassthrough(ctx context.Context, originalCmd, rtkCmd string, execTimeMs int64) error {
	return s.Record(ctx, originalCmd, rtkCmd, 0, 0, execTimeMs)
}

func (s *Store) cleanupOld(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -HistoryDays).Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `DELETE FROM commands WHERE timestamp < ?`, cutoff)
	return err
}

// FilterAdapter adapts a Store to the filter.Telemetry interface, which
// has no context parameter (filters are single-shot CLI invocations, so a
// background context is always correct here).
type FilterAdapter struct {
	Store *Store
	Ctx   context.Context
}

func (a FilterAdapter) Record(originalCmd, rtkCmd string, inputTokens, outputTokens int, elapsedMs int64) error {
	return a.Store.Record(a.Ctx, originalCmd, rtkCmd, inputTokens, outputTokens, elapsedMs)
}

func (a FilterAdapter) RecordPassthrough(originalCmd, rtkCmd string, elapsedMs int64) error {
	return a.Store.RecordPassthrough(a.Ctx, originalCmd, rtkCmd, elapsedMs)
}

// CommandRecord is a single row as returned by Recent.
type CommandRecord struct {
	Timestamp   time.Time
	RTKCmd      string
	SavedTokens int
	SavingsPct  float64
}

// GainSummary is the overall aggregation backing `rtk gain`.
type GainSummary struct {
	TotalCommands int
	TotalInput    int
	TotalOutput   int
	TotalSaved    int
	AvgSavingsPct float64
	TotalTimeMs   int64
	AvgTimeMs     int64
	ByCommand     []CommandAgg
	ByDay         []DayPoint
}

// CommandAgg is one row of the top-10-by-saved-tokens breakdown.
type CommandAgg struct {
	RTKCmd      string
	Count       int
	SavedTokens int
	AvgPct      float64
	AvgTimeMs   int64
}

// DayPoint is one (date, saved_tokens) point in the last-30-days series.
type DayPoint struct {
	Date        string
	SavedTokens int
}

// Summary computes the overall GainSummary.
func (s *Store) Summary(ctx context.Context) (GainSummary, error) {
	var sum GainSummary
	rows, err := s.db.QueryContext(ctx, `SELECT input_tokens, output_tokens, saved_tokens, exec_time_ms FROM commands`)
	if err != nil {
		return sum, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var input, output, saved int
		var timeMs int64
		if err := rows.Scan(&input, &output, &saved, &timeMs); err != nil {
			return sum, fmt.Errorf("scan command: %w", err)
		}
		sum.TotalCommands++
		sum.TotalInput += input
		sum.TotalOutput += output
		sum.TotalSaved += saved
		sum.TotalTimeMs += timeMs
	}
	if err := rows.Err(); err != nil {
		return sum, err
	}

	if sum.TotalInput > 0 {
		sum.AvgSavingsPct = float64(sum.TotalSaved) / float64(sum.TotalInput) * 100.0
	}
	if sum.TotalCommands > 0 {
		sum.AvgTimeMs = sum.TotalTimeMs / int64(sum.TotalCommands)
	}

	byCommand, err := s.byCommand(ctx)
	if err != nil {
		return sum, err
	}
	sum.ByCommand = byCommand

	byDay, err := s.last30Days(ctx)
	if err != nil {
		return sum, err
	}
	sum.ByDay = byDay

	return sum, nil
}

func (s *Store) byCommand(ctx context.Context) ([]CommandAgg, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rtk_cmd, COUNT(*), SUM(saved_tokens), AVG(savings_pct), AVG(exec_time_ms)
		FROM commands
		GROUP BY rtk_cmd
		ORDER BY SUM(saved_tokens) DESC
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("query by-command: %w", err)
	}
	defer rows.Close()

	var out []CommandAgg
	for rows.Next() {
		var c CommandAgg
		var avgTime float64
		if err := rows.Scan(&c.RTKCmd, &c.Count, &c.SavedTokens, &c.AvgPct, &avgTime); err != nil {
			return nil, err
		}
		c.AvgTimeMs = int64(avgTime)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) last30Days(ctx context.Context) ([]DayPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DATE(timestamp), SUM(saved_tokens)
		FROM commands
		GROUP BY DATE(timestamp)
		ORDER BY DATE(timestamp) DESC
		LIMIT 30`)
	if err != nil {
		return nil, fmt.Errorf("query by-day: %w", err)
	}
	defer rows.Close()

	var out []DayPoint
	for rows.Next() {
		var p DayPoint
		if err := rows.Scan(&p.Date, &p.SavedTokens); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	reverse(out)
	return out, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// DayStats is one day's aggregated metrics, ordered oldest first by
// ByDay's contract.
type DayStats struct {
	Date        string
	Commands    int
	InputTokens int
	OutputTokens int
	SavedTokens int
	SavingsPct  float64
	TotalTimeMs int64
	AvgTimeMs   int64
}

// ByDay returns every day with recorded commands, oldest first.
func (s *Store) ByDay(ctx context.Context) ([]DayStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DATE(timestamp), COUNT(*), SUM(input_tokens), SUM(output_tokens), SUM(saved_tokens), SUM(exec_time_ms)
		FROM commands
		GROUP BY DATE(timestamp)
		ORDER BY DATE(timestamp) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query days: %w", err)
	}
	defer rows.Close()

	var out []DayStats
	for rows.Next() {
		var d DayStats
		if err := rows.Scan(&d.Date, &d.Commands, &d.InputTokens, &d.OutputTokens, &d.SavedTokens, &d.TotalTimeMs); err != nil {
			return nil, err
		}
		if d.InputTokens > 0 {
			d.SavingsPct = float64(d.SavedTokens) / float64(d.InputTokens) * 100.0
		}
		if d.Commands > 0 {
			d.AvgTimeMs = d.TotalTimeMs / int64(d.Commands)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	reverse(out)
	return out, nil
}

// WeekStats is one week's aggregated metrics.
type WeekStats struct {
	WeekStart    string
	WeekEnd      string
	Commands     int
	InputTokens  int
	OutputTokens int
	SavedTokens  int
	SavingsPct   float64
	TotalTimeMs  int64
	AvgTimeMs    int64
}

// ByWeek returns every week with recorded commands, newest first. When
// isoAligned is false (the default) it uses the teacher's own tracking.rs
// query verbatim: `weekday 0` moves each row to the Sunday on or after it
// and `-6 days` steps back to that week's Monday. When true it computes
// the Monday on or before each row directly (`-6 days`, `weekday 1`).
// Both settings group rows into the same Monday-to-Sunday weeks (§9 open
// question: week-start convention).
func (s *Store) ByWeek(ctx context.Context, isoAligned bool) ([]WeekStats, error) {
	startExpr, endExpr := `DATE(timestamp, 'weekday 0', '-6 days')`, `DATE(timestamp, 'weekday 0')`
	if isoAligned {
		startExpr, endExpr = `DATE(timestamp, '-6 days', 'weekday 1')`, `DATE(timestamp, '-6 days', 'weekday 1', '+6 days')`
	}

	query := fmt.Sprintf(`
		SELECT
			%s as week_start,
			%s as week_end,
			COUNT(*), SUM(input_tokens), SUM(output_tokens), SUM(saved_tokens), SUM(exec_time_ms)
		FROM commands
		GROUP BY week_start
		ORDER BY week_start DESC`, startExpr, endExpr)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query weeks: %w", err)
	}
	defer rows.Close()

	var out []WeekStats
	for rows.Next() {
		var w WeekStats
		if err := rows.Scan(&w.WeekStart, &w.WeekEnd, &w.Commands, &w.InputTokens, &w.OutputTokens, &w.SavedTokens, &w.TotalTimeMs); err != nil {
			return nil, err
		}
		if w.InputTokens > 0 {
			w.SavingsPct = float64(w.SavedTokens) / float64(w.InputTokens) * 100.0
		}
		if w.Commands > 0 {
			w.AvgTimeMs = w.TotalTimeMs / int64(w.Commands)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	reverse(out)
	return out, nil
}

// MonthStats is one month's aggregated metrics.
type MonthStats struct {
	Month        string
	Commands     int
	InputTokens  int
	OutputTokens int
	SavedTokens  int
	SavingsPct   float64
	TotalTimeMs  int64
	AvgTimeMs    int64
}

// ByMonth returns every month with recorded commands, oldest first.
func (s *Store) ByMonth(ctx context.Context) ([]MonthStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			strftime('%Y-%m', timestamp), COUNT(*), SUM(input_tokens), SUM(output_tokens), SUM(saved_tokens), SUM(exec_time_ms)
		FROM commands
		GROUP BY 1
		ORDER BY 1 DESC`)
	if err != nil {
		return nil, fmt.Errorf("query months: %w", err)
	}
	defer rows.Close()

	var out []MonthStats
	for rows.Next() {
		var m MonthStats
		if err := rows.Scan(&m.Month, &m.Commands, &m.InputTokens, &m.OutputTokens, &m.SavedTokens, &m.TotalTimeMs); err != nil {
			return nil, err
		}
		if m.InputTokens > 0 {
			m.SavingsPct = float64(m.SavedTokens) / float64(m.InputTokens) * 100.0
		}
		if m.Commands > 0 {
			m.AvgTimeMs = m.TotalTimeMs / int64(m.Commands)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	reverse(out)
	return out, nil
}

// Recent returns up to limit most recent records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]CommandRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, rtk_cmd, saved_tokens, savings_pct
		FROM commands
		ORDER BY timestamp DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []CommandRecord
	for rows.Next() {
		var c CommandRecord
		var ts string
		if err := rows.Scan(&ts, &c.RTKCmd, &c.SavedTokens, &c.SavingsPct); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		c.Timestamp = t
		out = append(out, c)
	}
	return out, rows.Err()
}
