// Package vocab implements the streaming vocabulary builder: a token-to-
// index map backed by an open-addressing hash index with linear probing,
// frequency counts, and the sort/prune pass that turns a raw token stream
// into the frequency-sorted vocabulary the Huffman builder and sampling
// table depend on (spec §4.3).
package vocab

import "math"

// EndOfSentence is the distinguished </s> token. It is always index 0 and
// is never pruned regardless of count (spec §3).
const EndOfSentence = "</s>"

// DefaultHashSize matches the reference's vocab_hash_size (2^25), sized so
// that even a multi-million-token vocabulary keeps the load factor below
// 0.7 without growing the table.
const DefaultHashSize = 1 << 25

// MaxCount is the saturating ceiling for an entry's occurrence count.
const MaxCount = math.MaxUint64 / 2

// Entry is a single vocabulary entry: a token and its occurrence count.
// Unlike the reference's packed C struct (which steals a bit of the count
// field to flag an inline "short" string), a plain struct is sufficient —
// Go's string header is already a small fixed-size value, so there is no
// cache-density case to be made for a manual short-string union (spec §9).
type Entry struct {
	Text  string
	Count uint64
}

// Vocabulary is the ordered sequence of entries plus the hash index used to
// look tokens up in expected O(1) time.
type Vocabulary struct {
	entries   []Entry
	hash      []int32 // token hash -> entry index, -1 = empty
	hashSize  int
	minReduce uint64
	trainWords uint64
}

// New creates an empty vocabulary with entry 0 seeded as </s>, and a hash
// index of the given size (must be a power of two). Pass DefaultHashSize
// for reference-matching behavior; tests may use a far smaller size.
func New(hashSize int) *Vocabulary {
	v := &Vocabulary{
		hashSize:  hashSize,
		minReduce: 1,
	}
	v.hash = make([]int32, hashSize)
	for i := range v.hash {
		v.hash[i] = -1
	}
	v.addEntry(EndOfSentence)
	return v
}

// hashToken implements spec's hash function: h <- 1; for each byte b:
// h <- h*257 + b; h <- h mod H.
func (v *Vocabulary) hashToken(token string) uint64 {
	h := uint64(1)
	for i := 0; i < len(token); i++ {
		h = h*257 + uint64(token[i])
	}
	return h % uint64(v.hashSize)
}

// addEntry appends a new entry with count 1 and inserts it into the hash
// index via linear probing, without checking whether it already exists.
// Callers that need dedup should call Find first (Add does this).
func (v *Vocabulary) addEntry(token string) int {
	idx := int32(len(v.entries))
	v.entries = append(v.entries, Entry{Text: token, Count: 1})

	h := v.hashToken(token)
	for v.hash[h] != -1 {
		h = (h + 1) % uint64(v.hashSize)
	}
	v.hash[h] = idx
	return int(idx)
}

// Find returns the index of token, or false if it has never been inserted.
// Expected O(1) probes as long as the load factor stays below 0.7 (spec
// property 2).
func (v *Vocabulary) Find(token string) (int, bool) {
	h := v.hashToken(token)
	for {
		e := v.hash[h]
		if e == -1 {
			return 0, false
		}
		if v.entries[e].Text == token {
			return int(e), true
		}
		h = (h + 1) % uint64(v.hashSize)
	}
}

// Add inserts token if it's new (count 1) or increments its count if it
// already exists, returning its index either way. It also triggers a Reduce
// pass whenever the load factor would otherwise exceed 0.7, matching the
// reference's ReduceVocab trigger.
func (v *Vocabulary) Add(token string) int {
	if idx, ok := v.Find(token); ok {
		v.Increment(idx)
		return idx
	}
	idx := v.addEntry(token)
	if float64(len(v.entries)) > float64(v.hashSize)*0.7 {
		v.Reduce(v.minReduce)
		v.minReduce++
	}
	return idx
}

// Increment bumps an entry's count by one, saturating at MaxCount.
func (v *Vocabulary) Increment(index int) {
	if v.entries[index].Count < MaxCount {
		v.entries[index].Count++
	}
}

// Size returns the number of live entries, including </s>.
func (v *Vocabulary) Size() int { return len(v.entries) }

// Entry returns entry i by value.
func (v *Vocabulary) Entry(i int) Entry { return v.entries[i] }

// TrainWords returns the sum of counts computed by the last SortAndPrune
// call or by Load (0 before either has run).
func (v *Vocabulary) TrainWords() uint64 { return v.trainWords }

// Reduce removes every entry with Count <= minUsage (entry 0, </s>, is
// always kept) and rebuilds the hash index from scratch. This is how the
// vocabulary stays under the 0.7 load-factor bound while it's still
// growing from a token stream, before the final sort/prune pass.
func (v *Vocabulary) Reduce(minUsage uint64) {
	kept := v.entries[:0:0]
	for i, e := range v.entries {
		if i != 0 && e.Count <= minUsage {
			continue
		}
		kept = append(kept, e)
	}
	v.entries = kept
	v.rebuildHash()
}

// SortAndPrune sorts entries [1..) by descending count, drops those with
// Count < minCount, rebuilds the hash index, and recomputes TrainWords as
// the sum of surviving counts (spec §4.3).
func (v *Vocabulary) SortAndPrune(minCount uint64) {
	rest := v.entries[1:]
	// Insertion sort would be too slow for real vocabularies; use the
	// standard library's sort, which is what the rest of the pack reaches
	// for whenever it needs ordering (e.g. internal/search's sort.Slice).
	sortByCountDesc(rest)

	kept := v.entries[:1]
	for _, e := range rest {
		if e.Count < minCount {
			continue
		}
		kept = append(kept, e)
	}
	v.entries = kept

	var total uint64
	for _, e := range v.entries {
		total += e.Count
	}
	v.trainWords = total

	v.rebuildHash()
}

func (v *Vocabulary) rebuildHash() {
	for i := range v.hash {
		v.hash[i] = -1
	}
	for i, e := range v.entries {
		h := v.hashToken(e.Text)
		for v.hash[h] != -1 {
			h = (h + 1) % uint64(v.hashSize)
		}
		v.hash[h] = int32(i)
	}
}

// LoadFactor reports the current entries/hashSize ratio, exposed for tests
// validating property 2 (hash-index integrity requires load < 0.7).
func (v *Vocabulary) LoadFactor() float64 {
	return float64(len(v.entries)) / float64(v.hashSize)
}
