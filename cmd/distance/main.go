// Command distance is the nearest-neighbor query tool: it loads a trained
// model, then repeatedly reads a whitespace-separated phrase from stdin and
// prints the top 40 cosine neighbors of the summed, renormalized query
// vector, excluding the query's own tokens; each row's L2 norm is computed
// and divided out per query rather than once at load
// (original_source/distance.c, spec.md §6's consumer contract).
package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"vecforge/internal/model"
)

// topN matches the reference's fixed N = 40.
const topN = 40

// cacheSize bounds the query-result cache so an interactive session
// re-ranking the same phrase repeatedly skips rescanning the whole
// vocabulary (SPEC_FULL §6.2) — this is the first concrete home this
// module gives the teacher's otherwise-unwired golang-lru dependency.
const cacheSize = 256

type neighbor struct {
	Word string
	Cos  float64
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "distance: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: distance <model-file>")
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		return fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	vectors, err := model.ReadVectors(f, true)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}

	index := make(map[string]int, len(vectors.Tokens))
	for i, tok := range vectors.Tokens {
		index[tok] = i
	}

	cache, err := lru.New[string, []neighbor](cacheSize)
	if err != nil {
		return fmt.Errorf("build query cache: %w", err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Enter word or sentence (EXIT to break): ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "EXIT" {
			return nil
		}
		if line == "" {
			continue
		}

		if cached, ok := cache.Get(line); ok {
			printNeighbors(cached)
			continue
		}

		results, err := nearest(line, vectors, index)
		if err != nil {
			fmt.Println(err)
			continue
		}
		cache.Add(line, results)
		printNeighbors(results)
	}
}

// normalize computes the L2 norm of every row without mutating the rows
// themselves (cosine similarity divides by the product of norms at query
// time, matching the reference's deferred normalization via a separate
// norm[] array rather than prenormalizing M in place).
func normalize(v *model.Vectors) []float64 {
	norms := make([]float64, len(v.Rows))
	for i, row := range v.Rows {
		var sum float64
		for _, f := range row {
			sum += float64(f) * float64(f)
		}
		norms[i] = math.Sqrt(sum)
	}
	return norms
}

// nearest sums the input vectors of every token in phrase, renormalizes the
// sum, and ranks every vocabulary row by cosine similarity against it,
// excluding the phrase's own tokens.
func nearest(phrase string, v *model.Vectors, index map[string]int) ([]neighbor, error) {
	tokens := strings.Fields(phrase)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty query")
	}

	excluded := make(map[int]bool, len(tokens))
	sum := make([]float64, v.Dim)
	found := 0
	for _, tok := range tokens {
		idx, ok := index[tok]
		if !ok {
			fmt.Printf("Word: %s  Position in vocabulary: -1\nOut of dictionary word!\n", tok)
			continue
		}
		fmt.Printf("Word: %s  Position in vocabulary: %d\n", tok, idx)
		excluded[idx] = true
		found++
		for i, f := range v.Rows[idx] {
			sum[i] += float64(f)
		}
	}
	if found == 0 {
		return nil, fmt.Errorf("no in-vocabulary tokens in query")
	}

	var norm float64
	for _, f := range sum {
		norm += f * f
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil, fmt.Errorf("query vector is zero")
	}
	for i := range sum {
		sum[i] /= norm
	}

	norms := normalize(v)

	best := make([]neighbor, 0, topN)
	for c, row := range v.Rows {
		if excluded[c] {
			continue
		}
		if norms[c] == 0 {
			continue
		}
		var dot float64
		for i, f := range row {
			dot += sum[i] * float64(f)
		}
		cos := dot / norms[c]
		best = insertRanked(best, neighbor{Word: v.Tokens[c], Cos: cos}, topN)
	}
	return best, nil
}

// insertRanked keeps best sorted by descending Cos, capped at topN entries,
// the Go equivalent of the reference's memmove-shifted bestd/bestw arrays.
func insertRanked(best []neighbor, n neighbor, cap int) []neighbor {
	i := 0
	for i < len(best) && best[i].Cos >= n.Cos {
		i++
	}
	if i >= cap {
		return best
	}
	best = append(best, neighbor{})
	copy(best[i+1:], best[i:])
	best[i] = n
	if len(best) > cap {
		best = best[:cap]
	}
	return best
}

func printNeighbors(results []neighbor) {
	fmt.Println("\n                                              Word       Cosine distance")
	fmt.Println("------------------------------------------------------------------------")
	for _, r := range results {
		fmt.Printf("%50s\t\t%f\n", r.Word, r.Cos)
	}
}
