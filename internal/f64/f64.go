// Package f64 holds small float64 vector helpers used in the CFR hot loop.
//
// Adapted from timpalpant/go-cfr's internal/f32 package, widened to
// float64 since the information-state store accumulates regret and
// strategy mass in float64 (the concurrency contract requires 64-bit
// compare-and-swap slots).
package f64

// ScalUnitary is
//
//	for i := range x {
//		x[i] *= alpha
//	}
func ScalUnitary(alpha float64, x []float64) {
	for i := range x {
		x[i] *= alpha
	}
}

// ScalUnitaryTo is
//
//	for i, v := range x {
//		dst[i] = alpha * v
//	}
func ScalUnitaryTo(dst []float64, alpha float64, x []float64) {
	for i, v := range x {
		dst[i] = alpha * v
	}
}

// Add is
//
//	for i, v := range s {
//		dst[i] += v
//	}
func Add(dst, s []float64) {
	for i, v := range s {
		dst[i] += v
	}
}

// AddConst is
//
//	for i := range x {
//		x[i] += alpha
//	}
func AddConst(alpha float64, x []float64) {
	for i := range x {
		x[i] += alpha
	}
}

// Sum is
//
//	var sum float64
//	for i := range x {
//		sum += x[i]
//	}
func Sum(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum
}

// DotUnitary is
//
//	var sum float64
//	for i, v := range x {
//		sum += v * y[i]
//	}
func DotUnitary(x, y []float64) float64 {
	var sum float64
	for i, v := range x {
		sum += v * y[i]
	}
	return sum
}

// L1Diff returns sum(|x[i] - y[i]|). x and y must be the same length.
func L1Diff(x, y []float64) float64 {
	var sum float64
	for i, v := range x {
		d := v - y[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}

// MakeNonNegative clamps every negative entry of v to zero, in place.
func MakeNonNegative(v []float64) {
	for i := range v {
		if v[i] < 0 {
			v[i] = 0.0
		}
	}
}

// HasNonFinite reports whether any entry of v is NaN or +/-Inf.
func HasNonFinite(v []float64) bool {
	for _, x := range v {
		if x != x || x > maxFinite || x < -maxFinite {
			return true
		}
	}
	return false
}

const maxFinite = 1.7976931348623157e+308
