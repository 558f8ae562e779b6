// Command word2phrase is the companion bigram-merging preprocessor
// (SPEC_FULL §6.3): a two-pass tool that learns a unigram+bigram
// vocabulary from a corpus, then rewrites the corpus joining statistically
// significant adjacent token pairs with `_`.
package main

import (
	"flag"
	"fmt"
	"os"

	"vecforge/internal/phrase"
	"vecforge/internal/vocab"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "word2phrase: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	trainFile := flag.String("train", "", "input corpus file")
	outputFile := flag.String("output", "", "rewritten corpus file")
	minCount := flag.Uint64("min-count", 5, "drop unigram/bigram entries occurring fewer times than this")
	threshold := flag.Float64("threshold", 100, "bigram join score threshold")
	debug := flag.Int("debug", 2, "debug verbosity")
	flag.Parse()

	if *trainFile == "" {
		return fmt.Errorf("-train is required")
	}
	if *outputFile == "" {
		return fmt.Errorf("-output is required")
	}

	cfg := phrase.Config{MinCount: *minCount, Threshold: *threshold}

	v := vocab.New(vocab.DefaultHashSize)

	in, err := os.Open(*trainFile)
	if err != nil {
		return fmt.Errorf("open train file: %w", err)
	}
	trainWords, err := phrase.LearnVocab(in, v)
	in.Close()
	if err != nil {
		return fmt.Errorf("learn vocab: %w", err)
	}

	v.SortAndPrune(cfg.MinCount)

	if *debug > 0 {
		fmt.Fprintf(os.Stderr, "Vocab size (unigrams + bigrams): %d\nWords in train file: %d\n", v.Size(), trainWords)
	}

	in, err = os.Open(*trainFile)
	if err != nil {
		return fmt.Errorf("reopen train file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(*outputFile)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	if err := phrase.Rewrite(in, out, v, trainWords, cfg); err != nil {
		return fmt.Errorf("rewrite: %w", err)
	}

	return nil
}
