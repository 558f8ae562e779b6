// Package train implements the parallel, lock-free (Hogwild) stochastic
// gradient training engine: pre-spawned worker goroutines running CBOW or
// skip-gram with hierarchical softmax and/or negative sampling, updating a
// shared embedding matrix without synchronization on the hot path (spec
// §4.7, §5).
package train

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"sync/atomic"

	"vecforge/internal/config"
	"vecforge/internal/corpus"
	"vecforge/internal/huffman"
	"vecforge/internal/kernels"
	"vecforge/internal/params"
	"vecforge/internal/rng"
	"vecforge/internal/sampling"
	"vecforge/internal/vocab"
)

// WorkerStatus mirrors the teacher's orchestrator.Worker/WorkerStatus
// idle/busy/stopped bookkeeping, but it sits entirely outside the gradient
// loop: it only changes when a worker starts or exits, so it never contends with the unsynchronized parameter writes (SPEC_FULL
// §5).
type WorkerStatus string

const (
	WorkerIdle    WorkerStatus = "idle"
	WorkerBusy    WorkerStatus = "busy"
	WorkerStopped WorkerStatus = "stopped"
)

// WorkerInfo is a supervisory snapshot of one worker's progress.
type WorkerInfo struct {
	ID        int
	Status    WorkerStatus
	WordCount uint64
}

// Heartbeat is a point-in-time progress snapshot posted to an optional
// Reporter every time a worker crosses the 10,000-token boundary — the same
// boundary check that drives the learning-rate schedule, so wiring a
// Reporter adds no extra synchronization point on the hot path.
type Heartbeat struct {
	WorkerID       int
	WordCount      uint64 // this worker's local count
	TotalWordCount uint64 // word_count_actual, aggregated across workers
	Alpha          float64
}

// Reporter receives heartbeats. cmd/word2vec wires a stderr progress line;
// internal/metrics wires a periodic SQLite writer. Both are optional — a nil
// Reporter is valid and simply disables progress reporting.
type Reporter interface {
	Report(Heartbeat)
}

// Engine runs the Hogwild parallel SGD training loop over a vocabulary,
// Huffman codes (if hierarchical softmax is enabled), and a unigram
// sampling table (if negative sampling is enabled). Build one with
// NewEngine, then call Run.
type Engine struct {
	cfg   config.Config
	vocab *vocab.Vocabulary
	codes []huffman.Code
	table *sampling.Table
	sig   *kernels.SigmoidTable

	inVec  *params.Matrix
	hsVec  *params.Matrix
	negVec *params.Matrix

	trainFile  string
	fileSize   int64
	trainWords uint64

	startingAlpha float64
	// alphaBits and wordCountActual are read and written by every worker
	// goroutine with no locking. Spec §5 explicitly allows plain loads for
	// both; we use atomics anyway (not locks — the hot path still performs
	// no synchronized row updates) because Go's memory model, unlike the
	// reference's C compiler, treats an unsynchronized plain read/write
	// race on a non-atomic word as undefined rather than merely stale.
	alphaBits       atomic.Uint64
	wordCountActual atomic.Uint64

	mu      sync.Mutex
	workers []WorkerInfo

	reporter Reporter
	lossHook func(float32)
}

// NewEngine builds an Engine: allocates the parameter matrices (uniformly
// initialized inVec, zero-initialized hsVec/negVec per spec §3), and stats
// the corpus file to compute worker shard offsets. codes may be nil when
// cfg.HierarchicalSoftmax is false; table may be nil when cfg.Negative is 0.
func NewEngine(cfg config.Config, v *vocab.Vocabulary, codes []huffman.Code, table *sampling.Table, trainFile string, reporter Reporter) (*Engine, error) {
	info, err := os.Stat(trainFile)
	if err != nil {
		return nil, fmt.Errorf("train: stat corpus: %w", err)
	}
	if cfg.HierarchicalSoftmax && codes == nil {
		return nil, fmt.Errorf("train: hierarchical softmax enabled but no Huffman codes given")
	}
	if cfg.Negative > 0 && table == nil {
		return nil, fmt.Errorf("train: negative sampling enabled but no sampling table given")
	}

	n := v.Size()
	e := &Engine{
		cfg:           cfg,
		vocab:         v,
		codes:         codes,
		table:         table,
		sig:           kernels.NewSigmoidTable(kernels.TableSize, kernels.MaxExp),
		trainFile:     trainFile,
		fileSize:      info.Size(),
		trainWords:    v.TrainWords(),
		startingAlpha: cfg.Alpha,
		reporter:      reporter,
		workers:       make([]WorkerInfo, cfg.Threads),
	}
	e.alphaBits.Store(math.Float64bits(cfg.Alpha))

	e.inVec = params.NewMatrix(n, cfg.Size, cfg.RowAlign)
	params.InitUniform(e.inVec, 1)
	if cfg.HierarchicalSoftmax {
		e.hsVec = params.NewMatrix(n, cfg.Size, cfg.RowAlign)
	}
	if cfg.Negative > 0 {
		e.negVec = params.NewMatrix(n, cfg.Size, cfg.RowAlign)
	}
	for i := range e.workers {
		e.workers[i] = WorkerInfo{ID: i, Status: WorkerIdle}
	}
	return e, nil
}

// InVec returns the trained input-embedding matrix.
func (e *Engine) InVec() *params.Matrix { return e.inVec }

// Vocab returns the vocabulary the engine was built with.
func (e *Engine) Vocab() *vocab.Vocabulary { return e.vocab }

// WorkerInfos returns a snapshot of every worker's current status.
func (e *Engine) WorkerInfos() []WorkerInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]WorkerInfo, len(e.workers))
	copy(out, e.workers)
	return out
}

// SetLossHook installs a callback invoked with each processed token
// position's approximate binary cross-entropy loss against its HS/NEG
// labels. Production training never sets one; it exists so tests can
// validate spec property 7 (loss decreases over the course of training)
// without threading a loss value through the return path of every worker.
func (e *Engine) SetLossHook(fn func(float32)) {
	e.lossHook = fn
}

// Run spawns cfg.Threads worker goroutines, each seeking its own shard of
// the corpus and training until it exhausts cfg.Iterations epochs over its
// share of train_words, then waits for all of them. It returns the first
// worker error encountered (spec §7: a partial-worker failure must never be
// reported as a clean run).
func (e *Engine) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, e.cfg.Threads)
	for k := 0; k < e.cfg.Threads; k++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := e.runWorker(ctx, id); err != nil {
				errs[id] = fmt.Errorf("worker %d: %w", id, err)
			}
		}(k)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) setStatus(id int, s WorkerStatus) {
	e.mu.Lock()
	e.workers[id].Status = s
	e.mu.Unlock()
}

func (e *Engine) recordProgress(id int, wordCount uint64) {
	e.mu.Lock()
	e.workers[id].WordCount = wordCount
	e.mu.Unlock()
	if e.reporter != nil {
		e.reporter.Report(Heartbeat{
			WorkerID:       id,
			WordCount:      wordCount,
			TotalWordCount: e.wordCountActual.Load(),
			Alpha:          e.currentAlpha(),
		})
	}
}

func (e *Engine) currentAlpha() float64 {
	return math.Float64frombits(e.alphaBits.Load())
}

// updateAlpha evaluates the learning-rate schedule from spec §4.7:
// alpha = max(starting_alpha * (1 - word_count_actual/(iter*train_words+1)),
// starting_alpha * 0.0001).
func (e *Engine) updateAlpha() {
	wca := float64(e.wordCountActual.Load())
	denom := float64(e.cfg.Iterations)*float64(e.trainWords) + 1
	alpha := e.startingAlpha * (1 - wca/denom)
	floor := e.startingAlpha * 0.0001
	if alpha < floor {
		alpha = floor
	}
	e.alphaBits.Store(math.Float64bits(alpha))
}

// runWorker implements one worker's loop from spec §4.7: re-open the
// corpus, seek to this worker's shard, repeatedly assemble sentences and
// train every position in them, until EOF or the per-worker token budget is
// reached — then decrement the local iteration counter and restart from the
// shard offset, or exit once it hits zero.
func (e *Engine) runWorker(ctx context.Context, id int) error {
	e.setStatus(id, WorkerBusy)
	defer e.setStatus(id, WorkerStopped)

	reader, err := corpus.Open(e.trainFile)
	if err != nil {
		return err
	}
	defer reader.Close()

	offset := e.fileSize * int64(id) / int64(e.cfg.Threads)
	if err := reader.Seek(offset); err != nil {
		return err
	}

	random := rng.New(uint64(id))
	h := make([]float32, e.cfg.Size)
	errVec := make([]float32, e.cfg.Size)

	var wordCount, lastWordCount uint64
	localIter := e.cfg.Iterations
	perWorkerBudget := e.trainWords / uint64(e.cfg.Threads)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sentence, consumed, readErr := corpus.NextSentence(reader, e.vocab, e.trainWords, e.cfg.Sample, random)
		wordCount += uint64(consumed)

		if wordCount-lastWordCount > 10000 {
			e.wordCountActual.Add(wordCount - lastWordCount)
			lastWordCount = wordCount
			e.updateAlpha()
			e.recordProgress(id, wordCount)
		}

		eof := errors.Is(readErr, io.EOF)
		if readErr != nil && !eof {
			return readErr
		}

		if eof || wordCount > perWorkerBudget {
			e.wordCountActual.Add(wordCount - lastWordCount)
			localIter--
			if localIter <= 0 {
				break
			}
			wordCount, lastWordCount = 0, 0
			if err := reader.Seek(offset); err != nil {
				return err
			}
			continue
		}

		for pos := range sentence {
			alpha := float32(e.currentAlpha())
			if e.cfg.CBOW {
				e.trainCBOW(sentence, pos, h, errVec, alpha, random)
			} else {
				e.trainSkipGram(sentence, pos, errVec, alpha, random)
			}
		}
	}

	e.recordProgress(id, wordCount)
	return nil
}
