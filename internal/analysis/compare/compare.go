package compare

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"

	"grestat/domain/core"
	"grestat/domain/stats"
	"grestat/domain/survey"
	"grestat/internal/config"
	"grestat/internal/describe"
	"grestat/internal/errors"
	"grestat/internal/hypothesis"
)

// Analyzer runs the per-section practice-vs-real battery: bootstrap
// normality screen, Spearman correlations, paired t-tests with BH
// correction, and the pooled Wilcoxon for the small AW sample.
type Analyzer struct {
	analysis  config.AnalysisConfig
	bootstrap config.BootstrapConfig
}

// NewAnalyzer creates a comparative analyzer.
func NewAnalyzer(analysis config.AnalysisConfig, bootstrap config.BootstrapConfig) *Analyzer {
	return &Analyzer{analysis: analysis, bootstrap: bootstrap}
}

// SectionReport is the battery output for one section.
type SectionReport struct {
	Section      survey.Section            `json:"section"`
	Screens      []stats.ScreenOutcome     `json:"screens"`
	Correlations []stats.CorrelationResult `json:"correlations"`
	PairedTests  []stats.TestResult        `json:"paired_tests"`
}

// AnalyzeSection runs the parametric battery for the quant or verbal
// section. The same procedure serves both; only the view differs.
func (a *Analyzer) AnalyzeSection(view *survey.Table, section survey.Section) (*SectionReport, error) {
	real := view.MustColumn(survey.RealScoreColumn(section))
	report := &SectionReport{Section: section}

	surviving := make([]core.ColumnLabel, 0)
	for _, label := range survey.SectionPracticeColumns(section) {
		col := view.MustColumn(label)
		outcome := a.screenColumn(label, col)
		report.Screens = append(report.Screens, outcome)
		if outcome.Excluded {
			log.Info().
				Str("section", string(section)).
				Str("column", string(label)).
				Str("reason", outcome.Reason).
				Msg("excluded practice column from parametric battery")
			continue
		}
		surviving = append(surviving, label)
	}

	for _, label := range surviving {
		practice, realPaired := survey.PairedComplete(view.MustColumn(label), real)

		corr, err := hypothesis.Spearman(practice, realPaired)
		switch {
		case err == nil:
			report.Correlations = append(report.Correlations, stats.CorrelationResult{
				VariableX:  label,
				VariableY:  survey.RealScoreColumn(section),
				Rho:        corr.Rho,
				PValue:     corr.PValue,
				SampleSize: corr.SampleSize,
			})
		case errors.HasCode(err, errors.CodeInsufficientSample):
			// Correlation is descriptive here; too-small overlap simply
			// yields no row.
		default:
			return nil, err
		}

		result := a.pairedTest(label, survey.RealScoreColumn(section), practice, realPaired)
		report.PairedTests = append(report.PairedTests, result)
	}

	a.adjustFamily(report.PairedTests)
	for i := range report.PairedTests {
		report.PairedTests[i].Decide()
	}

	log.Info().
		Str("section", string(section)).
		Int("screened_out", len(report.Screens)-len(surviving)).
		Int("tests", len(report.PairedTests)).
		Msg("comparative battery complete")

	return report, nil
}

// pairedTest runs one two-sided paired t-test, mapping insufficient samples
// to an inconclusive result instead of an error.
func (a *Analyzer) pairedTest(practiceLabel, realLabel core.ColumnLabel, practice, real []float64) stats.TestResult {
	result := stats.TestResult{
		TestType:  stats.TestPairedTTest,
		VariableX: practiceLabel,
		VariableY: realLabel,
		Alpha:     a.analysis.Alpha,
	}

	if len(practice) < a.analysis.MinSamplePaired {
		result.Inconclusive = true
		result.PValue = 1
		result.SampleSize = len(practice)
		result.Note = fmt.Sprintf("only %d complete pairs, need %d", len(practice), a.analysis.MinSamplePaired)
		return result
	}

	tt, err := hypothesis.PairedTTest(practice, real)
	if err != nil {
		result.Inconclusive = true
		result.PValue = 1
		result.SampleSize = len(practice)
		result.Note = err.Error()
		return result
	}

	result.Statistic = tt.Statistic
	result.PValue = tt.PValue
	result.MeanDiff = tt.MeanDiff
	result.SampleSize = tt.SampleSize
	return result
}

// adjustFamily applies the BH step-up correction jointly across the
// section's conclusive tests.
func (a *Analyzer) adjustFamily(tests []stats.TestResult) {
	idx := make([]int, 0, len(tests))
	raw := make([]float64, 0, len(tests))
	for i, t := range tests {
		if t.Inconclusive {
			continue
		}
		idx = append(idx, i)
		raw = append(raw, t.PValue)
	}
	if len(raw) == 0 {
		return
	}

	adjusted := hypothesis.BenjaminiHochberg(raw)
	for j, i := range idx {
		tests[i].AdjustedP = adjusted[j]
		tests[i].Adjusted = true
	}
}

// AnalyzeWriting runs the single pooled Wilcoxon signed-rank test for the
// AW section: each respondent's one or two practice AW sub-scores are
// flattened into (practice, real) pairs and tested jointly. One test, so no
// family correction.
func (a *Analyzer) AnalyzeWriting(view *survey.Table) (stats.TestResult, error) {
	real := view.MustColumn(survey.ColGREWriting)

	var practiceFlat, realFlat []float64
	for _, label := range survey.WritingPracticeColumns {
		col := view.MustColumn(label)
		p, r := survey.PairedComplete(col, real)
		practiceFlat = append(practiceFlat, p...)
		realFlat = append(realFlat, r...)
	}

	result := stats.TestResult{
		TestType:   stats.TestWilcoxon,
		VariableX:  "writing_practice_pooled",
		VariableY:  survey.ColGREWriting,
		Alpha:      a.analysis.Alpha,
		SampleSize: len(practiceFlat),
	}

	if len(practiceFlat) < a.analysis.MinSampleWilcoxon {
		result.Inconclusive = true
		result.PValue = 1
		result.Note = fmt.Sprintf("only %d practice/real pairs, need %d", len(practiceFlat), a.analysis.MinSampleWilcoxon)
		result.Decide()
		return result, nil
	}

	wil, err := hypothesis.WilcoxonSignedRank(practiceFlat, realFlat)
	if err != nil {
		if errors.HasCode(err, errors.CodeInsufficientSample) {
			result.Inconclusive = true
			result.PValue = 1
			result.Note = err.Error()
			result.Decide()
			return result, nil
		}
		return stats.TestResult{}, err
	}

	result.Statistic = wil.Statistic
	result.PValue = wil.PValue
	result.SampleSize = wil.SampleSize
	if wil.Exact {
		result.Note = "exact signed-rank distribution"
	} else {
		result.Note = "normal approximation with tie correction"
	}
	result.Decide()
	return result, nil
}

// screenColumn builds the bootstrap sampling distribution of the mean
// (subsamples without replacement) and excludes the column when the
// distribution's shape breaks the configured skewness/kurtosis bounds.
// This replaces the source's visual screen with named thresholds.
func (a *Analyzer) screenColumn(label core.ColumnLabel, col []float64) stats.ScreenOutcome {
	values := survey.NonMissing(col)
	outcome := stats.ScreenOutcome{Variable: label}

	if len(values) < a.bootstrap.MinObservationsToDraw {
		outcome.Reason = fmt.Sprintf("screen skipped: %d observations below minimum %d",
			len(values), a.bootstrap.MinObservationsToDraw)
		return outcome
	}

	drawSize := int(a.bootstrap.SubsampleFraction * float64(len(values)))
	if drawSize < 2 {
		drawSize = 2
	}
	if drawSize > len(values) {
		drawSize = len(values)
	}

	rng := rand.New(rand.NewSource(a.bootstrap.Seed + int64(hashLabel(label))))
	means := make([]float64, a.bootstrap.Resamples)
	for i := range means {
		perm := rng.Perm(len(values))
		sum := 0.0
		for _, j := range perm[:drawSize] {
			sum += values[j]
		}
		means[i] = sum / float64(drawSize)
	}

	outcome.Resamples = a.bootstrap.Resamples
	outcome.SubsampleSize = drawSize
	outcome.Skewness = describe.Skewness(means)
	outcome.ExcessKurtosis = describe.ExcessKurtosis(means)

	if math.Abs(outcome.Skewness) > a.bootstrap.MaxAbsSkewness {
		outcome.Excluded = true
		outcome.Reason = fmt.Sprintf("resampled-mean |skewness| %.3f above bound %.3f",
			math.Abs(outcome.Skewness), a.bootstrap.MaxAbsSkewness)
		return outcome
	}
	if math.Abs(outcome.ExcessKurtosis) > a.bootstrap.MaxAbsExcessKurtosis {
		outcome.Excluded = true
		outcome.Reason = fmt.Sprintf("resampled-mean |excess kurtosis| %.3f above bound %.3f",
			math.Abs(outcome.ExcessKurtosis), a.bootstrap.MaxAbsExcessKurtosis)
		return outcome
	}

	return outcome
}

// hashLabel derives a per-column seed offset so screen results do not
// depend on column ordering (djb2).
func hashLabel(label core.ColumnLabel) uint32 {
	var hash uint32 = 5381
	for _, c := range string(label) {
		hash = ((hash << 5) + hash) + uint32(c)
	}
	return hash
}
