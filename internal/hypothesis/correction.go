package hypothesis

import (
	"sort"
)

// BenjaminiHochberg applies the BH step-up FDR correction to a family of
// raw p-values and returns adjusted p-values in the input order.
//
// Adjusted values are monotone under the step-up ordering and each is >= its
// raw p-value: q_(i) = min_{j>=i} ( p_(j) * m / j ), clamped to 1.
func BenjaminiHochberg(pValues []float64) []float64 {
	m := len(pValues)
	if m == 0 {
		return nil
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return pValues[order[a]] < pValues[order[b]]
	})

	adjusted := make([]float64, m)
	runningMin := 1.0
	for rank := m; rank >= 1; rank-- {
		idx := order[rank-1]
		q := pValues[idx] * float64(m) / float64(rank)
		if q < runningMin {
			runningMin = q
		}
		adjusted[idx] = runningMin
	}

	return adjusted
}
