// Package phrase implements the companion phrase-merging preprocessor
// specified at its interface only in spec.md §1/§6 ("out of scope") but
// supplemented here per SPEC_FULL §6.3, grounded directly in
// original_source/word2phrase.c: a two-pass bigram scorer that rewrites a
// corpus joining statistically significant adjacent token pairs with `_`.
package phrase

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"vecforge/internal/vocab"
)

// Config holds the phrase-merge pass's tunables (spec SPEC_FULL §6.3).
type Config struct {
	MinCount  uint64
	Threshold float64
}

// DefaultConfig matches word2phrase.c's defaults.
func DefaultConfig() Config {
	return Config{MinCount: 5, Threshold: 100}
}

// LearnVocab runs the first pass over r: a unigram+bigram vocabulary, built
// exactly the way original_source/word2phrase.c's LearnVocabFromTrainFile
// does — every adjacent pair (last, cur) within a sentence also gets an
// entry "last_cur", so the second pass can look up a candidate bigram's
// count directly. v must already contain the </s> sentinel at index 0 (as
// vocab.New guarantees).
//
// It returns trainWords, the count of non-</s> tokens read — tracked
// separately from the vocabulary's own entry counts because the vocabulary
// now holds unigram AND bigram entries together; summing all of their
// counts (what vocab.SortAndPrune computes) would double-count tokens
// against every bigram they participate in, which the reference's
// dedicated train_words counter never does.
func LearnVocab(r io.Reader, v *vocab.Vocabulary) (trainWords uint64, err error) {
	br := bufio.NewReaderSize(r, 1<<16)
	last := ""
	start := true

	for {
		tok, err := readToken(br)
		if err != nil {
			if err == io.EOF {
				return trainWords, nil
			}
			return trainWords, err
		}
		if tok == vocab.EndOfSentence {
			start = true
			last = ""
			continue
		}

		trainWords++
		v.Add(tok)

		if !start {
			v.Add(last + "_" + tok)
		}
		start = false
		last = tok
	}
}

// Rewrite runs the second pass over r, writing w with statistically
// significant adjacent pairs joined by `_`. It walks the token stream the
// same way original_source/word2phrase.c's TrainModel does: pa/pb carry the
// previous and current unigram's counts forward from iteration to
// iteration, rather than being freshly looked up from a "last" string. A
// </s> token writes a newline and resets last and pa, so the first token of
// the next sentence is never scored against the previous sentence and no
// pair spanning a sentence boundary is joined. A forced join (score >
// threshold) zeroes pb for the next iteration: the joined token must not
// itself be treated as eligible to start a further bigram. v must be the vocabulary LearnVocab built (after a
// SortAndPrune(cfg.MinCount) pass); trainWords is the value LearnVocab
// returned.
func Rewrite(r io.Reader, w io.Writer, v *vocab.Vocabulary, trainWords uint64, cfg Config) error {
	br := bufio.NewReaderSize(r, 1<<16)
	bw := bufio.NewWriter(w)

	last := ""
	var pa uint64

	for {
		word, err := readToken(br)
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}

		if word == vocab.EndOfSentence {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
			last = word
			pa = 0
			continue
		}

		oov := last == "" || last == vocab.EndOfSentence

		var pb uint64
		if idx, ok := v.Find(word); ok {
			pb = v.Entry(idx).Count
		} else {
			oov = true
		}
		if pa < cfg.MinCount || pb < cfg.MinCount {
			oov = true
		}

		var s float64
		if !oov {
			if idx, ok := v.Find(last + "_" + word); ok {
				cuv := v.Entry(idx).Count
				if cuv >= cfg.MinCount {
					s = float64(cuv-cfg.MinCount) / float64(pa) / float64(pb) * float64(trainWords)
				}
			}
		}

		if s > cfg.Threshold {
			if _, err := fmt.Fprintf(bw, "_%s", word); err != nil {
				return err
			}
			pb = 0
		} else {
			if _, err := fmt.Fprintf(bw, " %s", word); err != nil {
				return err
			}
		}

		last = word
		pa = pb
	}

	return bw.Flush()
}

// readToken reads the next whitespace-delimited token from br, emitting
// vocab.EndOfSentence on a literal newline, matching internal/corpus's
// tokenizer (phrase preprocessing shares its token definition with the
// training corpus reader, spec §4.3's note that phrase.go "shares the
// vocabulary store design of §4.3").
func readToken(br *bufio.Reader) (string, error) {
	var buf []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			if len(buf) > 0 {
				return string(buf), nil
			}
			return "", err
		}
		switch b {
		case '\r':
			continue
		case '\n':
			if len(buf) == 0 {
				return vocab.EndOfSentence, nil
			}
			_ = br.UnreadByte()
			return string(buf), nil
		case ' ', '\t':
			if len(buf) == 0 {
				continue
			}
			return string(buf), nil
		default:
			buf = append(buf, b)
		}
	}
}

// JoinedToken reports whether s contains the `_` phrase-merge marker this
// package introduces, a small helper for tests and cmd/word2phrase's own
// smoke output.
func JoinedToken(s string) bool {
	return strings.Contains(s, "_")
}
