package corpus

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"vecforge/internal/rng"
	"vecforge/internal/vocab"
)

func writeTempCorpus(t *testing.T, text string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestReadWordTokenizesAndEmitsEndOfSentence(t *testing.T) {
	path := writeTempCorpus(t, "the quick brown\nfox jumps\r\n")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	var got []string
	for {
		w, err := r.ReadWord()
		if err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("ReadWord: %v", err)
		}
		got = append(got, w)
	}

	want := []string{"the", "quick", "brown", vocab.EndOfSentence, "fox", "jumps", vocab.EndOfSentence}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReadWordTruncatesLongTokens(t *testing.T) {
	long := make([]byte, MaxWordLength+50)
	for i := range long {
		long[i] = 'a'
	}
	path := writeTempCorpus(t, string(long)+"\n")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	w, err := r.ReadWord()
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if len(w) != MaxWordLength {
		t.Errorf("token length = %d, want %d", len(w), MaxWordLength)
	}
}

func TestSeekStartsAtShardOffset(t *testing.T) {
	path := writeTempCorpus(t, "aaa bbb ccc ddd\n")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if err := r.Seek(8); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	w, err := r.ReadWord()
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if w != "ccc" {
		t.Errorf("first word after seek = %q, want %q", w, "ccc")
	}
}

func TestNextSentenceSkipsOOVAndRespectsBoundary(t *testing.T) {
	v := vocab.New(1024)
	for _, tok := range []string{"the", "the", "the", "fox", "fox"} {
		v.Add(tok)
	}
	v.SortAndPrune(1)

	path := writeTempCorpus(t, "the unknown fox\nthe fox\n")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	random := rng.New(1)
	sentence, consumed, err := NextSentence(r, v, v.TrainWords(), 0, random)
	if err != nil {
		t.Fatalf("NextSentence: %v", err)
	}
	if len(sentence) != 2 {
		t.Fatalf("sentence = %v, want 2 tokens (OOV skipped)", sentence)
	}
	for _, idx := range sentence {
		if int(idx) < 0 {
			t.Errorf("sentence contains OOV sentinel: %v", sentence)
		}
	}
	// "the", "unknown" (OOV, not counted), "fox", then the terminating
	// </s> — 3 in-vocabulary tokens consumed even though only 2 entered
	// the sentence.
	if consumed != 3 {
		t.Errorf("consumed = %d, want 3", consumed)
	}
}

func TestKeepProbabilityMonotonicAboveThreshold(t *testing.T) {
	trainWords := uint64(1_000_000)
	sample := 1e-3
	threshold := sample * float64(trainWords)

	prev := KeepProbability(uint64(threshold), trainWords, sample)
	if prev != 1 {
		t.Errorf("p_keep at threshold = %v, want 1", prev)
	}
	for _, c := range []uint64{uint64(threshold) * 2, uint64(threshold) * 10, uint64(threshold) * 100} {
		p := KeepProbability(c, trainWords, sample)
		if p >= prev {
			t.Errorf("p_keep(%d) = %v not less than p_keep at smaller count %v", c, p, prev)
		}
		prev = p
	}
}

func TestKeepProbabilityDisabledWhenSampleZero(t *testing.T) {
	if p := KeepProbability(1_000_000, 1_000_000, 0); p != 1 {
		t.Errorf("KeepProbability with sample=0 = %v, want 1", p)
	}
}
