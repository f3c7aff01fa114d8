package studyeffect

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"grestat/domain/core"
	"grestat/domain/stats"
	"grestat/domain/survey"
	"grestat/internal/config"
	"grestat/internal/errors"
	"grestat/internal/hypothesis"
)

// Analyzer asks whether studying more (hours, practice tests taken) moves
// real scores: equal-frequency buckets, a Kruskal-Wallis omnibus per
// (section, grouping), and uncorrected pairwise follow-ups flagged as
// exploratory.
type Analyzer struct {
	cfg config.AnalysisConfig
}

// NewAnalyzer creates a study-effect analyzer.
func NewAnalyzer(cfg config.AnalysisConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Bucket is one equal-frequency group of respondents along a study variable.
type Bucket struct {
	Index     int     `json:"index"` // 1-based, ascending study amount
	Low       float64 `json:"low"`   // observed edge, not a theoretical cut
	High      float64 `json:"high"`
	Size      int     `json:"size"` // respondents with a real score in this bucket
	MeanScore float64 `json:"mean_score"`
	// Correlation is the within-bucket Spearman rho of the study variable
	// against the score; nil when the bucket is too small or degenerate.
	Correlation *stats.CorrelationResult `json:"correlation,omitempty"`
}

// GroupingResult is the study-effect analysis for one (section, grouping).
type GroupingResult struct {
	Section     survey.Section           `json:"section"`
	GroupedBy   core.ColumnLabel         `json:"grouped_by"`
	Buckets     []Bucket                 `json:"buckets"`
	Correlation *stats.CorrelationResult `json:"correlation,omitempty"`
	Omnibus     stats.TestResult         `json:"omnibus"`
	// PostHoc holds uncorrected pairwise Mann-Whitney tests, run only when
	// the omnibus rejects. Exploratory: p-values are not family-adjusted.
	PostHoc []stats.TestResult `json:"post_hoc,omitempty"`
}

// groupingColumns are the study variables the stage buckets on.
var groupingColumns = []core.ColumnLabel{
	survey.ColHoursStudied,
	survey.ColTestsTaken,
}

// scoredSections are the sections large enough for group comparisons. AW is
// analyzed only by the pooled Wilcoxon in the comparative stage.
var scoredSections = []survey.Section{
	survey.SectionVerbal,
	survey.SectionQuant,
}

// Analyze runs the full grid: each scored section against each study
// variable, four groupings in a fixed order.
func (a *Analyzer) Analyze(cleaned *survey.Table) ([]GroupingResult, error) {
	results := make([]GroupingResult, 0, len(scoredSections)*len(groupingColumns))

	for _, groupCol := range groupingColumns {
		for _, section := range scoredSections {
			result, err := a.analyzeGrouping(cleaned, section, groupCol)
			if err != nil {
				return nil, errors.Wrapf(err, "grouping %s by %s", section, groupCol)
			}
			results = append(results, result)
		}
	}

	log.Info().Int("groupings", len(results)).Msg("study-effect analysis complete")
	return results, nil
}

func (a *Analyzer) analyzeGrouping(cleaned *survey.Table, section survey.Section, groupCol core.ColumnLabel) (GroupingResult, error) {
	scoreCol := survey.RealScoreColumn(section)
	groupVals := cleaned.MustColumn(groupCol)
	scoreVals := cleaned.MustColumn(scoreCol)

	result := GroupingResult{
		Section:   section,
		GroupedBy: groupCol,
		Omnibus: stats.TestResult{
			TestType:  stats.TestKruskalWallis,
			VariableX: groupCol,
			VariableY: scoreCol,
			Alpha:     a.cfg.Alpha,
		},
	}

	// Rank correlation of the raw study variable against the score,
	// pairwise complete; reported alongside the bucketed view.
	gPaired, sPaired := survey.PairedComplete(groupVals, scoreVals)
	if corr, err := hypothesis.Spearman(gPaired, sPaired); err == nil {
		result.Correlation = &stats.CorrelationResult{
			VariableX:  groupCol,
			VariableY:  scoreCol,
			Rho:        corr.Rho,
			PValue:     corr.PValue,
			SampleSize: corr.SampleSize,
		}
	} else if !errors.HasCode(err, errors.CodeInsufficientSample) {
		return GroupingResult{}, err
	}

	buckets, groups := a.bucketize(gPaired, sPaired)
	result.Buckets = buckets

	for _, g := range groups {
		if len(g) < a.cfg.MinBucketSize {
			result.Omnibus.Inconclusive = true
			result.Omnibus.PValue = 1
			result.Omnibus.Note = fmt.Sprintf("a bucket holds %d scored respondents, need %d", len(g), a.cfg.MinBucketSize)
			result.Omnibus.Decide()
			return result, nil
		}
	}
	if len(groups) < 2 {
		result.Omnibus.Inconclusive = true
		result.Omnibus.PValue = 1
		result.Omnibus.Note = "too few respondents to form buckets"
		result.Omnibus.Decide()
		return result, nil
	}

	kw, err := hypothesis.KruskalWallis(groups)
	if err != nil {
		if errors.HasCode(err, errors.CodeInsufficientSample) {
			result.Omnibus.Inconclusive = true
			result.Omnibus.PValue = 1
			result.Omnibus.Note = err.Error()
			result.Omnibus.Decide()
			return result, nil
		}
		return GroupingResult{}, err
	}

	result.Omnibus.Statistic = kw.Statistic
	result.Omnibus.PValue = kw.PValue
	result.Omnibus.SampleSize = kw.SampleSize
	result.Omnibus.Decide()

	if result.Omnibus.Decision == stats.DecisionReject {
		result.PostHoc = a.postHoc(groupCol, groups)
		log.Info().
			Str("section", string(section)).
			Str("grouped_by", string(groupCol)).
			Float64("h", kw.Statistic).
			Int("pairwise_tests", len(result.PostHoc)).
			Msg("omnibus rejected, ran exploratory pairwise follow-ups")
	}

	return result, nil
}

// bucketize splits respondents into equal-frequency buckets along the study
// variable (ascending, ties kept adjacent) and collects each bucket's scores.
// Inputs are already pairwise complete.
func (a *Analyzer) bucketize(groupVals, scoreVals []float64) ([]Bucket, [][]float64) {
	n := len(groupVals)
	if n == 0 {
		return nil, nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return groupVals[order[i]] < groupVals[order[j]]
	})

	k := a.cfg.BucketCount
	if k > n {
		k = n
	}
	base := n / k
	remainder := n % k

	buckets := make([]Bucket, 0, k)
	groups := make([][]float64, 0, k)

	start := 0
	for b := 0; b < k; b++ {
		size := base
		if b < remainder {
			size++
		}
		members := order[start : start+size]
		start += size

		scores := make([]float64, 0, size)
		studyVals := make([]float64, 0, size)
		scoreSum := 0.0
		for _, idx := range members {
			scores = append(scores, scoreVals[idx])
			studyVals = append(studyVals, groupVals[idx])
			scoreSum += scoreVals[idx]
		}

		bucket := Bucket{
			Index: b + 1,
			Low:   groupVals[members[0]],
			High:  groupVals[members[len(members)-1]],
			Size:  len(scores),
		}
		if len(scores) > 0 {
			bucket.MeanScore = scoreSum / float64(len(scores))
		}
		if corr, err := hypothesis.Spearman(studyVals, scores); err == nil {
			bucket.Correlation = &stats.CorrelationResult{
				Rho:        corr.Rho,
				PValue:     corr.PValue,
				SampleSize: corr.SampleSize,
			}
		}

		buckets = append(buckets, bucket)
		groups = append(groups, scores)
	}

	return buckets, groups
}

// postHoc runs an uncorrected Mann-Whitney U test for every bucket pair.
// These follow a rejected omnibus and are labeled exploratory in the report.
func (a *Analyzer) postHoc(groupCol core.ColumnLabel, groups [][]float64) []stats.TestResult {
	var out []stats.TestResult

	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			result := stats.TestResult{
				TestType:  stats.TestMannWhitney,
				VariableX: core.ColumnLabel(fmt.Sprintf("%s_bucket_%d", groupCol, i+1)),
				VariableY: core.ColumnLabel(fmt.Sprintf("%s_bucket_%d", groupCol, j+1)),
				Alpha:     a.cfg.Alpha,
				Note:      "exploratory, uncorrected",
			}

			mw, err := hypothesis.MannWhitneyU(groups[i], groups[j])
			if err != nil {
				result.Inconclusive = true
				result.PValue = 1
				result.Note = err.Error()
				result.Decide()
				out = append(out, result)
				continue
			}

			result.Statistic = mw.Statistic
			result.PValue = mw.PValue
			result.SampleSize = mw.N1 + mw.N2
			result.Decide()
			out = append(out, result)
		}
	}

	return out
}
