package corpus

import (
	"errors"
	"io"
	"math"

	"vecforge/internal/rng"
	"vecforge/internal/vocab"
)

// KeepProbability computes the subsampling keep-probability for a token
// occurring c times out of trainWords total tokens, at the given sample
// threshold (spec §4.6): p_keep = (sqrt(c/t) + 1) * t / c, where
// t = sample * trainWords. A non-positive sample threshold disables
// subsampling (always keep).
func KeepProbability(count uint64, trainWords uint64, sample float64) float64 {
	if sample <= 0 {
		return 1
	}
	t := sample * float64(trainWords)
	c := float64(count)
	if c == 0 {
		return 1
	}
	return (math.Sqrt(c/t)+1)*t/c
}

// NextSentence assembles the next training sentence: token indices pulled
// from the reader until </s> or MaxSentenceLength is reached, skipping OOV
// tokens and subsampling frequent ones using the worker's own PRNG stream
// (spec §4.6, shared with window-shrink and negative-sample draws per
// §4.7's single-stream design).
//
// It also returns consumed, the number of in-vocabulary tokens read off the
// reader while assembling the sentence — including the terminating </s> and
// any token subsampling dropped. This matches the reference's word_count,
// which increments on every resolved vocabulary lookup regardless of
// whether the token survives subsampling into the returned sentence; the
// training engine's learning-rate schedule and per-worker epoch boundary
// are both keyed off this count, not len(sentence).
//
// It returns io.EOF once the underlying file is exhausted with no tokens
// collected; a partial sentence read right before EOF is still returned
// with a nil error, and the next call returns io.EOF.
func NextSentence(r *Reader, v *vocab.Vocabulary, trainWords uint64, sample float64, random *rng.LCG) (sentence []int32, consumed int, err error) {
	for len(sentence) < MaxSentenceLength {
		idx, err := r.ReadIndex(v)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(sentence) > 0 {
					return sentence, consumed, nil
				}
				return nil, consumed, io.EOF
			}
			return nil, consumed, err
		}
		if idx == oovIndex {
			continue
		}
		consumed++
		if int(idx) == 0 {
			// </s>: end the sentence (unless it's the very first token,
			// in which case skip it and keep reading).
			if len(sentence) == 0 {
				continue
			}
			break
		}
		if sample > 0 {
			entry := v.Entry(int(idx))
			p := KeepProbability(entry.Count, trainWords, sample)
			if random.Float64() > p {
				continue
			}
		}
		sentence = append(sentence, idx)
	}
	return sentence, consumed, nil
}
