package numerics

// LimitProgressive allocates a bounded total across the given amounts,
// visiting them in the supplied priority order. Each amount is granted in
// full while the running sum stays within total; the first amount that would
// exceed total is truncated to the remainder and every later amount in the
// order receives zero. The returned slice is indexed like amounts, not like
// order.
//
// order must be a permutation of the indices of amounts. The order is a
// caller decision (configuration priority, nearest-first, ...); this function
// never reorders on its own.
func LimitProgressive(amounts []float64, total float64, order []int) []float64 {
	limits := make([]float64, len(amounts))
	sum := 0.0
	for i, j := range order {
		a := amounts[j]
		if sum+a <= total {
			limits[j] = a
			sum += a
			continue
		}
		// Truncate this amount to the remaining headroom; everything
		// after it in the order gets nothing.
		limits[j] = total - sum
		for _, k := range order[i+1:] {
			limits[k] = 0
		}
		break
	}
	return limits
}
