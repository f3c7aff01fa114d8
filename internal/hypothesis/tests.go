package hypothesis

import (
	"math"

	"grestat/internal/errors"
)

// Tests in this package operate on complete observations: callers drop
// missing values (pairwise, as a unit) before calling.

// SpearmanResult is a rank correlation with its t-transform p-value.
type SpearmanResult struct {
	Rho        float64
	PValue     float64
	SampleSize int
}

// Spearman computes Spearman's rank correlation between two equal-length
// complete samples. Ties receive averaged ranks, so rho is the Pearson
// correlation of the rank vectors rather than the 6*sum(d^2) shortcut.
func Spearman(x, y []float64) (SpearmanResult, error) {
	if len(x) != len(y) {
		return SpearmanResult{}, errors.InternalError("spearman requires equal-length samples")
	}
	if len(x) < 3 {
		return SpearmanResult{}, errors.InsufficientSample("spearman requires at least 3 pairs")
	}

	xRanks := Ranks(x)
	yRanks := Ranks(y)

	rho := pearson(xRanks, yRanks)
	if math.IsNaN(rho) {
		return SpearmanResult{}, errors.InsufficientSample("spearman undefined for constant input")
	}

	return SpearmanResult{
		Rho:        rho,
		PValue:     CorrelationPValue(rho, len(x)),
		SampleSize: len(x),
	}, nil
}

// PairedTTestResult carries the paired-test statistic and the mean of the
// pairwise differences.
type PairedTTestResult struct {
	Statistic  float64
	PValue     float64
	MeanDiff   float64
	SampleSize int
}

// PairedTTest runs a two-sided paired Student's t-test on complete pairs.
func PairedTTest(x, y []float64) (PairedTTestResult, error) {
	if len(x) != len(y) {
		return PairedTTestResult{}, errors.InternalError("paired t-test requires equal-length samples")
	}
	n := len(x)
	if n < 2 {
		return PairedTTestResult{}, errors.InsufficientSample("paired t-test requires at least 2 pairs")
	}

	diffs := make([]float64, n)
	for i := range x {
		diffs[i] = x[i] - y[i]
	}

	meanDiff := mean(diffs)
	sd := math.Sqrt(sampleVariance(diffs, meanDiff))
	if sd == 0 {
		// All differences identical. A zero mean difference is maximal
		// evidence for H0; anything else is degenerate.
		if meanDiff == 0 {
			return PairedTTestResult{Statistic: 0, PValue: 1, MeanDiff: 0, SampleSize: n}, nil
		}
		return PairedTTestResult{}, errors.InsufficientSample("paired differences have zero variance")
	}

	t := meanDiff / (sd / math.Sqrt(float64(n)))

	return PairedTTestResult{
		Statistic:  t,
		PValue:     TTestPValue(t, n-1),
		MeanDiff:   meanDiff,
		SampleSize: n,
	}, nil
}

// WilcoxonResult carries the signed-rank statistic W+ over nonzero
// differences.
type WilcoxonResult struct {
	Statistic  float64
	PValue     float64
	SampleSize int // nonzero differences used
	Exact      bool
}

// exactWilcoxonMaxN bounds the dynamic-programming exact p-value; beyond it
// the normal approximation is accurate and far cheaper.
const exactWilcoxonMaxN = 25

// WilcoxonSignedRank runs a two-sided Wilcoxon signed-rank test on complete
// pairs. Zero differences are dropped and tied absolute differences receive
// averaged ranks, per the standard signed-rank convention.
func WilcoxonSignedRank(x, y []float64) (WilcoxonResult, error) {
	if len(x) != len(y) {
		return WilcoxonResult{}, errors.InternalError("wilcoxon requires equal-length samples")
	}

	absDiffs := make([]float64, 0, len(x))
	signs := make([]float64, 0, len(x))
	for i := range x {
		d := x[i] - y[i]
		if d == 0 {
			continue
		}
		absDiffs = append(absDiffs, math.Abs(d))
		if d > 0 {
			signs = append(signs, 1)
		} else {
			signs = append(signs, -1)
		}
	}

	n := len(absDiffs)
	if n < 1 {
		return WilcoxonResult{}, errors.InsufficientSample("wilcoxon has no nonzero differences")
	}

	ranks := Ranks(absDiffs)
	wPlus := 0.0
	for i, r := range ranks {
		if signs[i] > 0 {
			wPlus += r
		}
	}

	if n <= exactWilcoxonMaxN && !hasTies(absDiffs) {
		return WilcoxonResult{
			Statistic:  wPlus,
			PValue:     wilcoxonExactTwoSidedPValue(wPlus, n),
			SampleSize: n,
			Exact:      true,
		}, nil
	}

	// Normal approximation with tie correction on the variance.
	nf := float64(n)
	meanW := nf * (nf + 1) / 4.0
	variance := nf*(nf+1)*(2*nf+1)/24.0 - tieCorrectionSum(absDiffs)/48.0
	if variance <= 0 {
		return WilcoxonResult{}, errors.InsufficientSample("wilcoxon variance degenerate under ties")
	}

	z := (wPlus - meanW) / math.Sqrt(variance)
	return WilcoxonResult{
		Statistic:  wPlus,
		PValue:     2 * (1 - NormalCDF(math.Abs(z))),
		SampleSize: n,
		Exact:      false,
	}, nil
}

// MannWhitneyResult carries the U statistic of the first sample.
type MannWhitneyResult struct {
	Statistic float64
	PValue    float64
	N1        int
	N2        int
}

// MannWhitneyU runs a two-sided Mann-Whitney U test on two independent
// complete samples, using the normal approximation with tie correction.
func MannWhitneyU(a, b []float64) (MannWhitneyResult, error) {
	n1, n2 := len(a), len(b)
	if n1 < 1 || n2 < 1 {
		return MannWhitneyResult{}, errors.InsufficientSample("mann-whitney requires both groups nonempty")
	}

	pooled := make([]float64, 0, n1+n2)
	pooled = append(pooled, a...)
	pooled = append(pooled, b...)
	ranks := Ranks(pooled)

	r1 := 0.0
	for i := 0; i < n1; i++ {
		r1 += ranks[i]
	}
	u1 := r1 - float64(n1*(n1+1))/2.0

	nf1, nf2 := float64(n1), float64(n2)
	nTotal := nf1 + nf2
	meanU := nf1 * nf2 / 2.0
	variance := nf1 * nf2 / 12.0 * ((nTotal + 1) - tieCorrectionSum(pooled)/(nTotal*(nTotal-1)))
	if variance <= 0 {
		return MannWhitneyResult{}, errors.InsufficientSample("mann-whitney variance degenerate under ties")
	}

	z := (u1 - meanU) / math.Sqrt(variance)
	return MannWhitneyResult{
		Statistic: u1,
		PValue:    2 * (1 - NormalCDF(math.Abs(z))),
		N1:        n1,
		N2:        n2,
	}, nil
}

// KruskalWallisResult carries the omnibus H statistic across groups.
type KruskalWallisResult struct {
	Statistic  float64
	PValue     float64
	Groups     int
	SampleSize int
}

// KruskalWallis runs the one-way Kruskal-Wallis test across k independent
// complete groups, with tie correction and a chi-square approximation on
// k-1 degrees of freedom.
func KruskalWallis(groups [][]float64) (KruskalWallisResult, error) {
	k := len(groups)
	if k < 2 {
		return KruskalWallisResult{}, errors.InsufficientSample("kruskal-wallis requires at least 2 groups")
	}

	total := 0
	for _, g := range groups {
		if len(g) < 1 {
			return KruskalWallisResult{}, errors.InsufficientSample("kruskal-wallis requires nonempty groups")
		}
		total += len(g)
	}
	if total <= k {
		return KruskalWallisResult{}, errors.InsufficientSample("kruskal-wallis requires more observations than groups")
	}

	pooled := make([]float64, 0, total)
	for _, g := range groups {
		pooled = append(pooled, g...)
	}
	ranks := Ranks(pooled)

	nTotal := float64(total)
	h := 0.0
	offset := 0
	for _, g := range groups {
		rankSum := 0.0
		for i := range g {
			rankSum += ranks[offset+i]
		}
		offset += len(g)
		h += rankSum * rankSum / float64(len(g))
	}
	h = 12.0/(nTotal*(nTotal+1))*h - 3*(nTotal+1)

	// Tie correction divides H by 1 - sum(t^3 - t) / (N^3 - N).
	correction := 1 - tieCorrectionSum(pooled)/(nTotal*nTotal*nTotal-nTotal)
	if correction <= 0 {
		return KruskalWallisResult{}, errors.InsufficientSample("kruskal-wallis degenerate: all values tied")
	}
	h /= correction

	return KruskalWallisResult{
		Statistic:  h,
		PValue:     ChiSquarePValue(h, k-1),
		Groups:     k,
		SampleSize: total,
	}, nil
}

// pearson computes the Pearson correlation of two equal-length samples,
// returning NaN when either is constant.
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	meanX := mean(x)
	meanY := mean(y)

	numerator := 0.0
	sumXX := 0.0
	sumYY := 0.0
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		numerator += dx * dy
		sumXX += dx * dx
		sumYY += dy * dy
	}

	if sumXX == 0 || sumYY == 0 || n < 2 {
		return math.NaN()
	}

	r := numerator / math.Sqrt(sumXX*sumYY)
	// Clamp for floating point precision.
	if r > 1.0 {
		r = 1.0
	} else if r < -1.0 {
		r = -1.0
	}
	return r
}

func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func sampleVariance(data []float64, mean float64) float64 {
	if len(data) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(len(data)-1)
}
