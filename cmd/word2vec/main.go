// Command word2vec trains CBOW or skip-gram embeddings with hierarchical
// softmax and/or negative sampling over a text corpus, matching the
// reference tool's flat flag surface (spec.md §6.1) rather than the
// teacher's subcommand shape — there is exactly one action here.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vecforge/internal/cluster"
	"vecforge/internal/config"
	"vecforge/internal/corpus"
	"vecforge/internal/huffman"
	"vecforge/internal/metrics"
	"vecforge/internal/model"
	"vecforge/internal/sampling"
	"vecforge/internal/train"
	"vecforge/internal/vocab"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "word2vec: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cbow := flag.Bool("cbow", true, "use continuous bag-of-words (1) or skip-gram (0)")
	trainFile := flag.String("train", "", "training corpus file")
	outputFile := flag.String("output", "", "output vectors/classes file")
	saveVocab := flag.String("save-vocab", "", "save learned vocabulary to this file")
	readVocab := flag.String("read-vocab", "", "read vocabulary from this file instead of learning it")
	size := flag.Int("size", 0, "embedding dimension (0 = architecture default)")
	window := flag.Int("window", 0, "max context window radius (0 = architecture default)")
	sample := flag.Float64("sample", -1, "subsampling threshold (negative = architecture default)")
	hs := flag.Bool("hs", false, "use hierarchical softmax")
	negative := flag.Int("negative", -1, "negative samples per target (negative = architecture default, 0 disables)")
	threads := flag.Int("threads", 0, "worker goroutine count (0 = architecture default)")
	iter := flag.Int("iter", 0, "training iterations over the corpus (0 = architecture default)")
	minCount := flag.Uint64("min-count", 0, "drop vocabulary entries occurring fewer times than this (0 = architecture default)")
	alpha := flag.Float64("alpha", -1, "starting learning rate (negative = architecture default)")
	classes := flag.Int("classes", 0, "run K-means into N clusters instead of writing raw vectors")
	debug := flag.Int("debug", 2, "debug verbosity")
	binary := flag.Bool("binary", false, "write vectors in binary format")
	align := flag.Int("align", 0, "parameter row byte alignment, power of two >= 16 (0 = architecture default)")
	metricsDB := flag.String("metrics-db", "", "optional SQLite run-ledger path (disabled when empty)")
	flag.Parse()

	cfg := config.Default(*cbow)
	cfg.TrainFile = *trainFile
	cfg.OutputFile = *outputFile
	cfg.SaveVocabFile = *saveVocab
	cfg.ReadVocabFile = *readVocab
	cfg.HierarchicalSoftmax = *hs
	cfg.Classes = *classes
	cfg.Debug = *debug
	cfg.Binary = *binary
	cfg.MetricsDB = *metricsDB
	if *size > 0 {
		cfg.Size = *size
	}
	if *window > 0 {
		cfg.Window = *window
	}
	if *sample >= 0 {
		cfg.Sample = *sample
	}
	if *negative >= 0 {
		cfg.Negative = *negative
	}
	if *threads > 0 {
		cfg.Threads = *threads
	}
	if *iter > 0 {
		cfg.Iterations = *iter
	}
	if *minCount > 0 {
		cfg.MinCount = *minCount
	}
	if *alpha >= 0 {
		cfg.Alpha = *alpha
	}
	if *align > 0 {
		cfg.RowAlign = *align
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var rec *metrics.Recorder
	if cfg.MetricsDB != "" {
		r, err := metrics.Open(metrics.DefaultConfig(cfg.MetricsDB))
		if err != nil {
			return fmt.Errorf("open metrics db: %w", err)
		}
		defer r.Close()
		rec = r
	}

	v, err := buildVocabulary(cfg)
	if err != nil {
		return fmt.Errorf("build vocabulary: %w", err)
	}
	if cfg.Debug > 0 {
		fmt.Fprintf(os.Stderr, "Vocab size: %d\nWords in train file: %d\n", v.Size(), v.TrainWords())
	}

	if cfg.SaveVocabFile != "" {
		if err := saveVocabFile(cfg.SaveVocabFile, v); err != nil {
			return fmt.Errorf("save vocab: %w", err)
		}
	}

	if rec != nil {
		var trainHash, vocabHash string
		if h, err := metrics.HashFile(cfg.TrainFile); err == nil {
			trainHash = h
		}
		vocabPath := cfg.SaveVocabFile
		if vocabPath == "" {
			vocabPath = cfg.ReadVocabFile
		}
		if vocabPath != "" {
			if h, err := metrics.HashFile(vocabPath); err == nil {
				vocabHash = h
			}
		}
		if err := rec.RecordRun(ctx, metrics.ParamsFromConfig(cfg), trainHash, vocabHash); err != nil {
			fmt.Fprintf(os.Stderr, "word2vec: record run: %v\n", err)
		}
		rec.Start(ctx)
	}

	var codes []huffman.Code
	if cfg.HierarchicalSoftmax {
		codes, err = huffman.Build(countsOf(v))
		if err != nil {
			return fmt.Errorf("build huffman codes: %w", err)
		}
	}

	var table *sampling.Table
	if cfg.Negative > 0 {
		size := cfg.UnigramTable
		if size == 0 {
			size = sampling.DefaultSize
		}
		table = sampling.Build(countsOf(v), size)
	}

	var reporter train.Reporter
	if rec != nil {
		reporter = rec
	} else if cfg.Debug > 1 {
		reporter = train.NewStderrReporter(os.Stderr, v.TrainWords(), cfg.Iterations)
	}

	engine, err := train.NewEngine(cfg, v, codes, table, cfg.TrainFile, reporter)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	if err := engine.Run(ctx); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if cfg.Debug > 0 {
		fmt.Fprintln(os.Stderr)
	}

	out, err := os.Create(cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	if cfg.Classes > 0 {
		clusterOf := cluster.Assign(engine.InVec(), cfg.Classes)
		if err := model.WriteClusters(out, v, clusterOf); err != nil {
			return fmt.Errorf("write clusters: %w", err)
		}
	} else {
		if err := model.WriteVectors(out, v, engine.InVec(), cfg.Binary); err != nil {
			return fmt.Errorf("write vectors: %w", err)
		}
	}

	return nil
}

// buildVocabulary either loads a previously saved vocabulary (-read-vocab)
// or learns one from scratch by streaming the training corpus once,
// matching the reference's LearnVocabFromTrainFile pass.
func buildVocabulary(cfg config.Config) (*vocab.Vocabulary, error) {
	if cfg.ReadVocabFile != "" {
		f, err := os.Open(cfg.ReadVocabFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return vocab.Load(f, vocab.DefaultHashSize)
	}

	r, err := corpus.Open(cfg.TrainFile)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	v := vocab.New(vocab.DefaultHashSize)
	for {
		word, err := r.ReadWord()
		if err != nil {
			break
		}
		if word == vocab.EndOfSentence {
			continue
		}
		v.Add(word)
	}
	v.SortAndPrune(cfg.MinCount)
	return v, nil
}

func saveVocabFile(path string, v *vocab.Vocabulary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return v.Save(f)
}

func countsOf(v *vocab.Vocabulary) []uint64 {
	counts := make([]uint64, v.Size())
	for i := range counts {
		counts[i] = v.Entry(i).Count
	}
	return counts
}
