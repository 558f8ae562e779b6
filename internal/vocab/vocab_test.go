package vocab

import (
	"bytes"
	"fmt"
	"sort"
	"testing"
)

func countMultiset(v *Vocabulary) map[string]uint64 {
	m := make(map[string]uint64)
	for i := 0; i < v.Size(); i++ {
		e := v.Entry(i)
		m[e.Text] = e.Count
	}
	return m
}

func TestVocabularyRoundTrip(t *testing.T) {
	v := New(1024)
	tokens := []string{"the", "quick", "brown", "fox", "the", "the", "fox", "jumps"}
	for _, tok := range tokens {
		v.Add(tok)
	}
	v.SortAndPrune(1)

	before := countMultiset(v)

	var buf bytes.Buffer
	if err := v.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(&buf, 1024)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	after := countMultiset(loaded)

	if len(before) != len(after) {
		t.Fatalf("size mismatch: before=%d after=%d", len(before), len(after))
	}
	for tok, c := range before {
		if after[tok] != c {
			t.Errorf("token %q: before count=%d after count=%d", tok, c, after[tok])
		}
	}
}

func TestHashIndexIntegrity(t *testing.T) {
	v := New(4096)
	tokens := []string{"a", "b", "c", "d", "e", "a", "b", "a"}
	for _, tok := range tokens {
		v.Add(tok)
	}

	for i := 0; i < v.Size(); i++ {
		text := v.Entry(i).Text
		idx, ok := v.Find(text)
		if !ok || idx != i {
			t.Errorf("Find(%q) = (%d, %v), want (%d, true)", text, idx, ok, i)
		}
	}

	if _, ok := v.Find("never-inserted-token"); ok {
		t.Error("Find on never-inserted token should return not-found")
	}

	if v.LoadFactor() >= 0.7 {
		t.Errorf("load factor %v should stay below 0.7", v.LoadFactor())
	}
}

func TestSortAndPruneOrdering(t *testing.T) {
	v := New(1024)
	for i := 0; i < 5; i++ {
		v.Add("rare")
	}
	for i := 0; i < 50; i++ {
		v.Add("common")
	}
	for i := 0; i < 20; i++ {
		v.Add("medium")
	}
	v.SortAndPrune(1)

	if v.Entry(0).Text != EndOfSentence {
		t.Fatalf("entry 0 = %q, want %q", v.Entry(0).Text, EndOfSentence)
	}

	var counts []uint64
	for i := 1; i < v.Size(); i++ {
		counts = append(counts, v.Entry(i).Count)
	}
	if !sort.SliceIsSorted(counts, func(i, j int) bool { return counts[i] > counts[j] }) {
		t.Errorf("counts not sorted descending: %v", counts)
	}
}

func TestSortAndPruneDropsBelowMinCount(t *testing.T) {
	v := New(1024)
	for i := 0; i < 3; i++ {
		v.Add("rare")
	}
	for i := 0; i < 10; i++ {
		v.Add("common")
	}
	v.SortAndPrune(5)

	if _, ok := v.Find("rare"); ok {
		t.Error("rare token should have been pruned")
	}
	if _, ok := v.Find("common"); !ok {
		t.Error("common token should survive pruning")
	}
}

func TestReduceKeepsEndOfSentence(t *testing.T) {
	v := New(1024)
	for i := 0; i < 100; i++ {
		v.Add(fmt.Sprintf("tok%d", i))
	}
	v.Reduce(1000) // aggressive: would remove everything except </s>
	if v.Size() != 1 {
		t.Fatalf("Size = %d, want 1 (only </s> survives)", v.Size())
	}
	if v.Entry(0).Text != EndOfSentence {
		t.Errorf("entry 0 = %q, want %q", v.Entry(0).Text, EndOfSentence)
	}
}

func TestIncrementSaturates(t *testing.T) {
	v := New(16)
	idx := v.Add("x")
	v.entries[idx].Count = MaxCount
	v.Increment(idx)
	if v.entries[idx].Count != MaxCount {
		t.Errorf("count = %d, want saturated at %d", v.entries[idx].Count, MaxCount)
	}
}
