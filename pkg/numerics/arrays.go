package numerics

import "golang.org/x/exp/constraints"

// Number covers the numeric types the accumulation helpers operate on.
type Number interface {
	constraints.Integer | constraints.Float
}

// IsPermutationOf reports whether a and b hold the same elements with the
// same multiplicities, regardless of order.
func IsPermutationOf[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[T]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}

// Unique returns the distinct elements of xs in first-seen order.
func Unique[T comparable](xs []T) []T {
	seen := make(map[T]struct{}, len(xs))
	out := make([]T, 0, len(xs))
	for _, v := range xs {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// IsSorted reports whether xs is in non-decreasing order.
func IsSorted[T constraints.Ordered](xs []T) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] < xs[i-1] {
			return false
		}
	}
	return true
}

// CumulativeSum returns the running sums of xs: out[i] is the sum of
// xs[0..i]. The result has the same length as xs.
func CumulativeSum[T Number](xs []T) []T {
	out := make([]T, len(xs))
	var sum T
	for i, v := range xs {
		sum += v
		out[i] = sum
	}
	return out
}
