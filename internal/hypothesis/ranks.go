package hypothesis

import (
	"sort"
)

// Ranks converts values to 1-based ranks, averaging ties.
func Ranks(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return []float64{}
	}

	type pair struct {
		value float64
		index int
	}

	pairs := make([]pair, n)
	for i, val := range data {
		pairs[i] = pair{value: val, index: i}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	ranks := make([]float64, n)

	i := 0
	for i < n {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}

		groupSize := j - i
		avgRank := float64(i+1) + float64(groupSize-1)/2.0

		for k := i; k < j; k++ {
			ranks[pairs[k].index] = avgRank
		}

		i = j
	}

	return ranks
}

// tieGroups returns the size of every group of tied values.
func tieGroups(data []float64) []int {
	if len(data) == 0 {
		return nil
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	var groups []int
	i := 0
	for i < len(sorted) {
		j := i + 1
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		groups = append(groups, j-i)
		i = j
	}
	return groups
}

// tieCorrectionSum computes sum(t^3 - t) over tie groups, the shared term
// in rank-test variance corrections.
func tieCorrectionSum(data []float64) float64 {
	sum := 0.0
	for _, t := range tieGroups(data) {
		tf := float64(t)
		sum += tf*tf*tf - tf
	}
	return sum
}

// hasTies reports whether any value repeats.
func hasTies(data []float64) bool {
	for _, t := range tieGroups(data) {
		if t > 1 {
			return true
		}
	}
	return false
}
