// Package sampling builds the unigram noise distribution table negative
// sampling draws from: a flat array of vocabulary indices whose density
// approximates each word's count raised to the 0.75 power, letting a draw
// be a single uniform pick over the table instead of a weighted-draw
// structure (spec §4.5, grounded on InitUnigramTable).
package sampling

import "math"

// DefaultSize matches the reference's table size (2^27). Tests use a
// much smaller size; real training runs should use the default so the
// per-entry density approximates the power-law distribution closely enough
// to match reference training dynamics.
const DefaultSize = 1 << 27

// power is the exponent applied to each count before building the
// cumulative distribution (word2vec's well-known 0.75 smoothing).
const power = 0.75

// Table holds a flattened sample of the unigram^0.75 distribution over a
// vocabulary's indices.
type Table struct {
	indices []int32
}

// Build constructs a Table of the given size from vocabulary counts
// (indexed the same way as the vocabulary itself; entry 0, </s>, is
// included like any other entry). size must be positive.
func Build(counts []uint64, size int) *Table {
	if size <= 0 {
		panic("sampling: table size must be positive")
	}

	var totalPow float64
	for _, c := range counts {
		totalPow += math.Pow(float64(c), power)
	}

	indices := make([]int32, size)
	i := 0
	d1 := math.Pow(float64(counts[0]), power) / totalPow
	for a := 0; a < size; a++ {
		indices[a] = int32(i)
		if float64(a)/float64(size) > d1 {
			i++
			if i >= len(counts) {
				i = len(counts) - 1
			} else {
				d1 += math.Pow(float64(counts[i]), power) / totalPow
			}
		}
	}

	return &Table{indices: indices}
}

// Size returns the number of slots in the table.
func (t *Table) Size() int { return len(t.indices) }

// At returns the vocabulary index stored at slot i.
func (t *Table) At(i int) int32 { return t.indices[i] }

// Sample draws a vocabulary index using the top bits of a raw 64-bit random
// value, matching the reference's `(next_random >> 16) % table_size`
// extraction so callers sharing one rng.LCG stream reproduce reference
// draw sequences.
func (t *Table) Sample(random uint64) int32 {
	idx := (random >> 16) % uint64(len(t.indices))
	return t.indices[idx]
}
