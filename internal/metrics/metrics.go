// Package metrics implements the optional, off-by-default run ledger: one
// SQLite row per training invocation (hyperparameters, a UUID run id,
// SHA-256 provenance hashes of the corpus/vocabulary files) plus periodic
// per-worker heartbeat rows, recorded without ever touching the Hogwild hot
// path (SPEC_FULL §4.9).
//
// The schema and connection setup are adapted from the teacher's
// internal/db.DB/Config/DefaultConfig idiom, the flush loop from
// internal/merger's ticker/stopCh shape, the heartbeats table from
// pkg/horosbus's schema, and file hashing from pkg/egocheck.
package metrics

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"vecforge/internal/config"
	"vecforge/internal/train"
)

// Config holds the run ledger's connection tunables (teacher's db.Config
// idiom, trimmed to what a single-writer local file needs).
type Config struct {
	Path          string
	FlushInterval time.Duration
}

// DefaultConfig returns sensible defaults for a local run-ledger file.
func DefaultConfig(path string) Config {
	return Config{Path: path, FlushInterval: time.Second}
}

// RunParams is the hyperparameter/provenance snapshot recorded once per
// training invocation.
type RunParams struct {
	TrainFile  string
	OutputFile string
	Size       int
	Window     int
	CBOW       bool
	HS         bool
	Negative   int
	Alpha      float64
	Sample     float64
	Iterations int
	MinCount   uint64
	Threads    int
	VocabFile  string // save-vocab/read-vocab path, if any; "" if neither was set
}

type heartbeatRow struct {
	workerID  int
	wordCount uint64
	total     uint64
	alpha     float64
	at        int64
}

// Recorder owns the run-ledger SQLite connection, this invocation's run id,
// and a buffered heartbeat writer. It implements train.Reporter, so it can
// be passed directly to train.NewEngine.
type Recorder struct {
	db    *sql.DB
	runID string

	mu         sync.Mutex
	pending    []heartbeatRow
	running    bool
	stopCh     chan struct{}
	wg         sync.WaitGroup
	flushEvery time.Duration
}

// Open creates or attaches to the run ledger at cfg.Path, ensures its schema
// exists, and allocates a fresh run id.
func Open(cfg Config) (*Recorder, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("metrics: open %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("metrics: set pragma: %w", err)
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = time.Second
	}

	return &Recorder{
		db:         db,
		runID:      uuid.NewString(),
		stopCh:     make(chan struct{}),
		flushEvery: interval,
	}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id       TEXT PRIMARY KEY,
			started_at   INTEGER NOT NULL,
			train_file   TEXT NOT NULL,
			output_file  TEXT NOT NULL,
			vocab_file   TEXT,
			size         INTEGER NOT NULL,
			window       INTEGER NOT NULL,
			cbow         INTEGER NOT NULL,
			hs           INTEGER NOT NULL,
			negative     INTEGER NOT NULL,
			alpha        REAL NOT NULL,
			sample       REAL NOT NULL,
			iterations   INTEGER NOT NULL,
			min_count    INTEGER NOT NULL,
			threads      INTEGER NOT NULL,
			train_hash   TEXT,
			vocab_hash   TEXT
		);

		CREATE TABLE IF NOT EXISTS heartbeats (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			worker_id   INTEGER NOT NULL,
			word_count  INTEGER NOT NULL,
			total_words INTEGER NOT NULL,
			alpha       REAL NOT NULL,
			at          INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_heartbeats_run ON heartbeats(run_id);
	`)
	if err != nil {
		return fmt.Errorf("metrics: init schema: %w", err)
	}
	return nil
}

// RunID returns this invocation's run id.
func (r *Recorder) RunID() string { return r.runID }

// RecordRun inserts the one-time hyperparameter/provenance row for this
// invocation. trainHash and vocabHash may be empty when the corresponding
// file is unavailable (e.g. -read-vocab not given).
func (r *Recorder) RecordRun(ctx context.Context, p RunParams, trainHash, vocabHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at, train_file, output_file, vocab_file,
			size, window, cbow, hs, negative, alpha, sample, iterations, min_count,
			threads, train_hash, vocab_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.runID, nowUnix(), p.TrainFile, p.OutputFile, p.VocabFile,
		p.Size, p.Window, boolInt(p.CBOW), boolInt(p.HS), p.Negative,
		p.Alpha, p.Sample, p.Iterations, p.MinCount, p.Threads, trainHash, vocabHash)
	if err != nil {
		return fmt.Errorf("metrics: record run: %w", err)
	}
	return nil
}

// ParamsFromConfig builds RunParams out of an internal/config.Config, the
// shape cmd/word2vec actually has in hand.
func ParamsFromConfig(cfg config.Config) RunParams {
	vocabFile := cfg.SaveVocabFile
	if vocabFile == "" {
		vocabFile = cfg.ReadVocabFile
	}
	return RunParams{
		TrainFile:  cfg.TrainFile,
		OutputFile: cfg.OutputFile,
		Size:       cfg.Size,
		Window:     cfg.Window,
		CBOW:       cfg.CBOW,
		HS:         cfg.HierarchicalSoftmax,
		Negative:   cfg.Negative,
		Alpha:      cfg.Alpha,
		Sample:     cfg.Sample,
		Iterations: cfg.Iterations,
		MinCount:   cfg.MinCount,
		Threads:    cfg.Threads,
		VocabFile:  vocabFile,
	}
}

// Report implements train.Reporter: it buffers the heartbeat under a mutex
// and returns immediately — the flush loop started by Start drains the
// buffer on its own schedule, so a worker crossing the 10,000-token boundary
// never blocks on SQLite I/O.
func (r *Recorder) Report(hb train.Heartbeat) {
	r.mu.Lock()
	r.pending = append(r.pending, heartbeatRow{
		workerID:  hb.WorkerID,
		wordCount: hb.WordCount,
		total:     hb.TotalWordCount,
		alpha:     hb.Alpha,
		at:        nowUnix(),
	})
	r.mu.Unlock()
}

// Start begins the periodic flush loop (teacher's merger.Start/Stop/stopCh
// ticker shape). Safe to call once; a second call is a no-op.
func (r *Recorder) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.flushEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				r.flush(context.Background())
				return
			case <-r.stopCh:
				r.flush(context.Background())
				return
			case <-ticker.C:
				r.flush(ctx)
			}
		}
	}()
}

// Stop signals the flush loop to drain and exit, and waits for it to finish.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()
	close(r.stopCh)
	r.wg.Wait()
}

func (r *Recorder) flush(ctx context.Context) {
	r.mu.Lock()
	rows := r.pending
	r.pending = nil
	r.mu.Unlock()
	if len(rows) == 0 {
		return
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "metrics: begin flush: %v\n", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO heartbeats (run_id, worker_id, word_count, total_words, alpha, at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		fmt.Fprintf(os.Stderr, "metrics: prepare flush: %v\n", err)
		return
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, r.runID, row.workerID, row.wordCount, row.total, row.alpha, row.at); err != nil {
			fmt.Fprintf(os.Stderr, "metrics: insert heartbeat: %v\n", err)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		fmt.Fprintf(os.Stderr, "metrics: commit flush: %v\n", err)
	}
}

// Close stops the flush loop (if running), flushes any remaining buffered
// heartbeats synchronously, and closes the database handle.
func (r *Recorder) Close() error {
	r.Stop()
	r.flush(context.Background())
	return r.db.Close()
}

// HashFile returns the lowercase hex SHA-256 digest of the file at path,
// adapted from pkg/egocheck's hashFile (provenance tracking rather than
// HOROS self-introspection, but the same computation).
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nowUnix() int64 {
	return timeNow().Unix()
}

// timeNow is a seam for tests; production always uses the wall clock.
var timeNow = time.Now
