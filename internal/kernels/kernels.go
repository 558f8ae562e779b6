// Package kernels provides the numeric inner loop the training engine
// spends most of its time in: dot product, scaled-add, and vector-add over
// contiguous float32 slices. The scalar formulas are authoritative; callers
// must not rely on bit-exact results across builds (see spec §4.1).
package kernels

// Dot returns the dot product of a and b. Both slices must have equal
// length; behavior is undefined (panics) if they don't, mirroring the
// "n known at call" contract in spec §4.1.
func Dot(a, b []float32) float32 {
	n := len(a)
	var sum float32
	i := 0
	// Unroll by 4 to give the compiler a shot at auto-vectorizing; this is
	// the closest Go idiom to the reference's alignment-gated AVX paths
	// without hand-written SIMD (see DESIGN.md for why we don't pull in a
	// SIMD library for this).
	for ; i+4 <= n; i += 4 {
		sum += a[i]*b[i] + a[i+1]*b[i+1] + a[i+2]*b[i+2] + a[i+3]*b[i+3]
	}
	for ; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// AddScaled computes y[i] += c * x[i] for every i. y and x must have equal
// length; they may be the same slice but must never partially overlap.
func AddScaled(y []float32, c float32, x []float32) {
	n := len(y)
	i := 0
	for ; i+4 <= n; i += 4 {
		y[i] += c * x[i]
		y[i+1] += c * x[i+1]
		y[i+2] += c * x[i+2]
		y[i+3] += c * x[i+3]
	}
	for ; i < n; i++ {
		y[i] += c * x[i]
	}
}

// Add computes y[i] += x[i] for every i.
func Add(y, x []float32) {
	n := len(y)
	i := 0
	for ; i+4 <= n; i += 4 {
		y[i] += x[i]
		y[i+1] += x[i+1]
		y[i+2] += x[i+2]
		y[i+3] += x[i+3]
	}
	for ; i < n; i++ {
		y[i] += x[i]
	}
}
