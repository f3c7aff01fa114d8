package hypothesis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution helpers shared by every test in this package. All p-values
// are exact CDF evaluations, not table lookups.

// TTestPValue computes the two-sided p-value for a t-statistic using
// Student's t-distribution.
func TTestPValue(tStatistic float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}

	df := float64(degreesOfFreedom)
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}

	return 2 * (1 - tDist.CDF(math.Abs(tStatistic)))
}

// CorrelationPValue computes the two-sided p-value for a correlation
// coefficient via the t transform: t = r * sqrt((n-2)/(1-r^2)).
func CorrelationPValue(correlation float64, sampleSize int) float64 {
	if sampleSize < 3 {
		return 1.0
	}
	if math.Abs(correlation) >= 1 {
		return 0.0
	}

	df := float64(sampleSize - 2)
	tStatistic := correlation * math.Sqrt(df/(1-correlation*correlation))

	return TTestPValue(tStatistic, sampleSize-2)
}

// ChiSquarePValue computes the upper-tail p-value for a chi-square statistic.
func ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}

	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return 1 - chiDist.CDF(chiSquare)
}

// NormalCDF computes the standard normal CDF.
func NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// wilcoxonExactTwoSidedPValue computes the exact two-sided p-value for the
// signed-rank statistic W+ over n tie-free nonzero differences, by dynamic
// programming over the 2^n sign assignments.
func wilcoxonExactTwoSidedPValue(wPlus float64, n int) float64 {
	wObs := int(math.Round(wPlus))
	if wObs < 0 {
		wObs = 0
	}

	totalRankSum := n * (n + 1) / 2
	if wObs > totalRankSum {
		wObs = totalRankSum
	}

	// Two-sided p-value uses symmetry: P(W+ <= w) with w = min(W+, total-W+), then *2.
	w := wObs
	if totalRankSum-wObs < w {
		w = totalRankSum - wObs
	}

	// dp[s] = number of sign assignments producing W+ = s.
	dp := make([]uint64, totalRankSum+1)
	dp[0] = 1
	for r := 1; r <= n; r++ {
		for s := totalRankSum; s >= r; s-- {
			dp[s] += dp[s-r]
		}
	}

	totalOutcomes := uint64(1) << uint(n)
	var cum uint64
	for s := 0; s <= w; s++ {
		cum += dp[s]
	}

	pOneSide := float64(cum) / float64(totalOutcomes)
	pTwoSide := 2 * pOneSide
	if pTwoSide > 1.0 {
		pTwoSide = 1.0
	}
	return pTwoSide
}
