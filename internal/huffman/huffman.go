// Package huffman builds the binary codes and inner-node paths hierarchical
// softmax needs: the classic two-queue construction that exploits an
// already frequency-sorted vocabulary to build the tree in a single linear
// pass, without a heap (spec §4.4).
//
// A heap-based construction (see the Huffman coder referenced in
// DESIGN.md) would also produce a valid prefix code, but not the exact tree
// the reference builds — and property 3's entropy bound, plus the
// leaves-before-internal-nodes tie-break this package documents, depend on
// matching the reference's two-pointer walk exactly.
package huffman

import "fmt"

// MaxCodeLength caps the code/point length per entry, matching the
// reference's fixed-size vocab_code buffers.
const MaxCodeLength = 40

// hugeCount stands in for the reference's 1e15 sentinel used to seed
// not-yet-created internal nodes so they never look smaller than a real
// leaf during the two-pointer scan.
const hugeCount = uint64(1) << 60

// Code holds one vocabulary entry's Huffman code and path, per spec §3.
type Code struct {
	// Code[k] is the edge bit taken at level k, root-adjacent first.
	Code []uint8
	// Point[k] indexes an inner node (0..N-2) for k < len(Code); Point[0]
	// is always N-2 (the root). Point[len(Code)] is the leaf's own index
	// offset by -N and is never used to index a parameter row.
	Point []int32
}

// Build runs the two-queue Huffman construction over counts, which must
// list entry 0 (</s>) at index 0 and entries 1..N-1 in non-increasing count
// order (spec §3/§4.4 — the precondition SortAndPrune establishes). It
// returns one Code per entry, indexed the same way as counts.
func Build(counts []uint64) ([]Code, error) {
	n := len(counts)
	if n < 2 {
		return nil, fmt.Errorf("huffman: need at least 2 vocabulary entries, got %d", n)
	}

	total := 2*n - 1
	count := make([]uint64, total)
	copy(count, counts)
	for i := n; i < total; i++ {
		count[i] = hugeCount
	}

	binary := make([]uint8, total)
	parent := make([]int32, total)

	pos1 := n - 1
	pos2 := n
	for a := 0; a < n-1; a++ {
		min1i := nextMin(count, &pos1, &pos2)
		min2i := nextMin(count, &pos1, &pos2)
		count[n+a] = count[min1i] + count[min2i]
		parent[min1i] = int32(n + a)
		parent[min2i] = int32(n + a)
		binary[min2i] = 1
	}

	root := int32(total - 1) // 2N-2

	codes := make([]Code, n)
	for leaf := 0; leaf < n; leaf++ {
		var pathCode []uint8
		var pathPoint []int32

		b := int32(leaf)
		for {
			pathCode = append(pathCode, binary[b])
			pathPoint = append(pathPoint, b)
			b = parent[b]
			if b == root {
				break
			}
			if len(pathCode) >= MaxCodeLength {
				return nil, fmt.Errorf("huffman: code length exceeded %d for leaf %d", MaxCodeLength, leaf)
			}
		}

		length := len(pathCode)
		code := make([]uint8, length)
		point := make([]int32, length+1)
		point[0] = int32(n - 2)
		for b := 0; b < length; b++ {
			code[length-b-1] = pathCode[b]
			point[length-b] = pathPoint[b] - int32(n)
		}

		codes[leaf] = Code{Code: code, Point: point}
	}

	return codes, nil
}

// nextMin pops the smaller of the two queue heads (leaves queue, indexed by
// pos1 walking down from n-1, and internals queue, indexed by pos2 walking
// up from n), preferring the leaves queue on ties, and advances whichever
// pointer it took from.
func nextMin(count []uint64, pos1, pos2 *int) int32 {
	if *pos1 >= 0 {
		if count[*pos1] <= count[*pos2] {
			i := *pos1
			*pos1--
			return int32(i)
		}
		i := *pos2
		*pos2++
		return int32(i)
	}
	i := *pos2
	*pos2++
	return int32(i)
}
