package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vecforge/internal/config"
	"vecforge/internal/train"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.db")
	cfg := DefaultConfig(path)
	cfg.FlushInterval = 10 * time.Millisecond
	r, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecordRunInsertsOneRow(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	params := ParamsFromConfig(config.Default(true))
	if err := r.RecordRun(ctx, params, "abc123", ""); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE run_id = ?", r.RunID()).Scan(&count); err != nil {
		t.Fatalf("query runs: %v", err)
	}
	if count != 1 {
		t.Errorf("runs count = %d, want 1", count)
	}

	var hash string
	if err := r.db.QueryRowContext(ctx, "SELECT train_hash FROM runs WHERE run_id = ?", r.RunID()).Scan(&hash); err != nil {
		t.Fatalf("query train_hash: %v", err)
	}
	if hash != "abc123" {
		t.Errorf("train_hash = %q, want abc123", hash)
	}
}

func TestReportBuffersAndFlushLoopDrains(t *testing.T) {
	r := openTestRecorder(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.Start(ctx)

	r.Report(train.Heartbeat{WorkerID: 0, WordCount: 1000, TotalWordCount: 1000, Alpha: 0.025})
	r.Report(train.Heartbeat{WorkerID: 1, WordCount: 2000, TotalWordCount: 3000, Alpha: 0.024})

	deadline := time.Now().Add(time.Second)
	var count int
	for time.Now().Before(deadline) {
		if err := r.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM heartbeats WHERE run_id = ?", r.RunID()).Scan(&count); err != nil {
			t.Fatalf("query heartbeats: %v", err)
		}
		if count == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if count != 2 {
		t.Fatalf("heartbeats flushed = %d, want 2", count)
	}
}

func TestCloseFlushesPendingHeartbeats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.db")
	cfg := DefaultConfig(path)
	cfg.FlushInterval = time.Hour // long enough that only Close's flush matters
	r, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	r.Report(train.Heartbeat{WorkerID: 0, WordCount: 500, TotalWordCount: 500, Alpha: 0.025})

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db2, err := Open(DefaultConfig(path))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()

	var count int
	if err := db2.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM heartbeats").Scan(&count); err != nil {
		t.Fatalf("query heartbeats: %v", err)
	}
	if count != 1 {
		t.Errorf("heartbeats after reopen = %d, want 1", count)
	}
}

func TestHashFileIsDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(path, []byte("the quick brown fox"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	h1, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	h2, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if h1 != h2 {
		t.Errorf("HashFile not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("len(hash) = %d, want 64 (hex sha256)", len(h1))
	}
}
