package telemetry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rtk-proxy/rtk/internal/rtk/config"
)

func TestRecordComputesSavedAndPct(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if err := store.Record(ctx, "go test ./...", "rtk test", 1000, 200, 150); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	sum, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.TotalCommands != 1 {
		t.Fatalf("expected 1 command, got %d", sum.TotalCommands)
	}
	if sum.TotalSaved != 800 {
		t.Fatalf("expected 800 saved tokens, got %d", sum.TotalSaved)
	}
	if sum.AvgSavingsPct != 80.0 {
		t.Fatalf("expected 80%% savings, got %v", sum.AvgSavingsPct)
	}
}

func TestRecordPassthroughZeroTokens(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if err := store.RecordPassthrough(ctx, "weird-tool", "rtk weird-tool", 42); err != nil {
		t.Fatalf("RecordPassthrough failed: %v", err)
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 1 || recent[0].SavedTokens != 0 {
		t.Fatalf("expected 1 record with 0 saved tokens, got %+v", recent)
	}
}

func TestByCommandRanksBySavedTokensDescending(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	_ = store.Record(ctx, "cmd-a", "rtk a", 100, 90, 10) // saved 10
	_ = store.Record(ctx, "cmd-b", "rtk b", 1000, 100, 10) // saved 900

	sum, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if len(sum.ByCommand) != 2 {
		t.Fatalf("expected 2 distinct commands, got %d", len(sum.ByCommand))
	}
	if sum.ByCommand[0].RTKCmd != "rtk b" {
		t.Fatalf("expected rtk b first (highest saved), got %+v", sum.ByCommand)
	}
}

func TestResolvePathPriority(t *testing.T) {
	t.Setenv("RTK_DB_PATH", "")
	cfg := &config.Config{Tracking: config.TrackingConfig{DatabasePath: "/custom/history.db"}}
	if got := ResolvePath(cfg); got != "/custom/history.db" {
		t.Fatalf("expected config path to win when env unset, got %q", got)
	}

	t.Setenv("RTK_DB_PATH", "/env/history.db")
	if got := ResolvePath(cfg); got != "/env/history.db" {
		t.Fatalf("expected env var to take priority, got %q", got)
	}
}
