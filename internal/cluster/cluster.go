// Package cluster implements the cosine K-means post-clustering that
// cmd/word2vec runs when `-classes N` is given instead of writing raw
// vectors (spec.md §6, SPEC_FULL §6.4), ported from the inline K-means
// block in original_source/word2vec-avxexp.c's TrainModel.
package cluster

import (
	"math"

	"vecforge/internal/params"
)

// Iterations is the fixed number of Lloyd's-algorithm passes the reference
// runs; K-means convergence isn't checked, matching the original exactly.
const Iterations = 10

// Assign runs cosine K-means over mat's rows into classes clusters,
// returning one cluster id per row. classes must be positive and no larger
// than mat.Rows().
func Assign(mat *params.Matrix, classes int) []int {
	rows := mat.Rows()
	dim := mat.Dim()

	cl := make([]int, rows)
	for i := range cl {
		cl[i] = i % classes
	}

	centroid := make([][]float32, classes)
	for i := range centroid {
		centroid[i] = make([]float32, dim)
	}
	count := make([]int, classes)

	for iter := 0; iter < Iterations; iter++ {
		for k := range centroid {
			for i := range centroid[k] {
				centroid[k][i] = 0
			}
			count[k] = 1 // the reference seeds centcn at 1, not 0
		}

		for r := 0; r < rows; r++ {
			row := mat.Row(r)
			c := centroid[cl[r]]
			for i, v := range row {
				c[i] += v
			}
			count[cl[r]]++
		}

		for k := range centroid {
			var norm float64
			for i := range centroid[k] {
				centroid[k][i] /= float32(count[k])
				norm += float64(centroid[k][i]) * float64(centroid[k][i])
			}
			norm = math.Sqrt(norm)
			if norm == 0 {
				continue
			}
			for i := range centroid[k] {
				centroid[k][i] /= float32(norm)
			}
		}

		for r := 0; r < rows; r++ {
			row := mat.Row(r)
			best := 0
			bestScore := float32(-10)
			for k := range centroid {
				var x float32
				c := centroid[k]
				for i, v := range row {
					x += c[i] * v
				}
				if x > bestScore {
					bestScore = x
					best = k
				}
			}
			cl[r] = best
		}
	}

	return cl
}
