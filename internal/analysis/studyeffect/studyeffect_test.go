package studyeffect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grestat/domain/core"
	"grestat/domain/stats"
	"grestat/domain/survey"
	"grestat/internal/config"
)

func testConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		Alpha:             0.05,
		BucketCount:       3,
		MinSamplePaired:   3,
		MinSampleWilcoxon: 5,
		MinBucketSize:     3,
	}
}

// studyTable builds a cleaned table where verbal scores climb with hours
// studied while quant scores repeat the same distribution in every hours
// tertile. Tests-taken mirrors hours so both groupings are populated.
func studyTable(t *testing.T, n int) *survey.Table {
	t.Helper()

	labels := []core.ColumnLabel{
		survey.ColGREVerbal,
		survey.ColGREQuant,
		survey.ColHoursStudied,
		survey.ColTestsTaken,
	}

	records := make([][]float64, n)
	for i := 0; i < n; i++ {
		hours := float64(i)
		tertile := i / (n / 3)
		verbal := 150 + 8*float64(tertile) + 0.1*float64(i%10)
		quant := 150 + float64(i%10)

		records[i] = []float64{verbal, quant, hours, float64(i % 12)}
	}

	table, err := survey.NewTable(labels, records)
	require.NoError(t, err)
	return table
}

func findGrouping(results []GroupingResult, section survey.Section, groupedBy core.ColumnLabel) (GroupingResult, bool) {
	for _, r := range results {
		if r.Section == section && r.GroupedBy == groupedBy {
			return r, true
		}
	}
	return GroupingResult{}, false
}

func TestAnalyze_RunsFullGrid(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())

	results, err := analyzer.Analyze(studyTable(t, 30))
	require.NoError(t, err)

	require.Len(t, results, 4)
	for _, r := range results {
		assert.Len(t, r.Buckets, 3)
		assert.NoError(t, r.Omnibus.Validate())
	}
}

func TestAnalyze_HoursShiftVerbalNotQuant(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())

	results, err := analyzer.Analyze(studyTable(t, 30))
	require.NoError(t, err)

	verbal, ok := findGrouping(results, survey.SectionVerbal, survey.ColHoursStudied)
	require.True(t, ok)
	assert.Equal(t, stats.DecisionReject, verbal.Omnibus.Decision)
	assert.NotEmpty(t, verbal.PostHoc, "rejected omnibus must carry pairwise follow-ups")
	require.NotNil(t, verbal.Correlation)
	assert.Greater(t, verbal.Correlation.Rho, 0.7)

	// Each hours tertile carries the same quant distribution.
	quant, ok := findGrouping(results, survey.SectionQuant, survey.ColHoursStudied)
	require.True(t, ok)
	assert.Equal(t, stats.DecisionDoNotReject, quant.Omnibus.Decision)
	assert.Empty(t, quant.PostHoc, "follow-ups only after a rejected omnibus")
}

func TestAnalyze_PostHocCoversAllBucketPairs(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())

	results, err := analyzer.Analyze(studyTable(t, 30))
	require.NoError(t, err)

	verbal, ok := findGrouping(results, survey.SectionVerbal, survey.ColHoursStudied)
	require.True(t, ok)

	// 3 buckets -> 3 unordered pairs, every one uncorrected.
	require.Len(t, verbal.PostHoc, 3)
	for _, ph := range verbal.PostHoc {
		assert.Equal(t, stats.TestMannWhitney, ph.TestType)
		assert.False(t, ph.Adjusted)
		assert.NoError(t, ph.Validate())
	}
	// Tertiles are fully separated, so every pair rejects.
	for _, ph := range verbal.PostHoc {
		assert.Equal(t, stats.DecisionReject, ph.Decision)
	}
}

func TestAnalyze_MeanScoresClimbWithHours(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())

	results, err := analyzer.Analyze(studyTable(t, 30))
	require.NoError(t, err)

	verbal, ok := findGrouping(results, survey.SectionVerbal, survey.ColHoursStudied)
	require.True(t, ok)

	require.Len(t, verbal.Buckets, 3)
	assert.Less(t, verbal.Buckets[0].MeanScore, verbal.Buckets[1].MeanScore)
	assert.Less(t, verbal.Buckets[1].MeanScore, verbal.Buckets[2].MeanScore)
	for i, b := range verbal.Buckets {
		assert.Equal(t, i+1, b.Index)
		assert.LessOrEqual(t, b.Low, b.High)
		assert.Equal(t, 10, b.Size)
	}
}

func TestBucketize_RemainderSpreadsToLowBuckets(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())

	group := []float64{5, 2, 9, 1, 7, 3, 8, 4, 6, 0}
	score := make([]float64, len(group))

	buckets, groups := analyzer.bucketize(group, score)

	require.Len(t, buckets, 3)
	assert.Equal(t, []int{4, 3, 3}, []int{len(groups[0]), len(groups[1]), len(groups[2])})
	assert.Equal(t, 0.0, buckets[0].Low)
	assert.Equal(t, 3.0, buckets[0].High)
	assert.Equal(t, 9.0, buckets[2].High)
}

func TestAnalyze_MissingStudyValuesExcluded(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())

	// Knock out one hours value: that respondent leaves the hours grouping.
	table := studyTable(t, 30)
	labels := table.Labels()
	records := make([][]float64, table.Rows())
	for r := 0; r < table.Rows(); r++ {
		row := make([]float64, len(labels))
		for c, label := range labels {
			v, err := table.Value(r, label)
			require.NoError(t, err)
			row[c] = v
		}
		records[r] = row
	}
	records[0][2] = survey.Missing()
	mutated, err := survey.NewTable(labels, records)
	require.NoError(t, err)

	results, err := analyzer.Analyze(mutated)
	require.NoError(t, err)

	verbal, ok := findGrouping(results, survey.SectionVerbal, survey.ColHoursStudied)
	require.True(t, ok)
	totalBucketed := 0
	for _, b := range verbal.Buckets {
		totalBucketed += b.Size
	}
	assert.Equal(t, 29, totalBucketed)
}

func TestAnalyze_TinyTableInconclusive(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())

	results, err := analyzer.Analyze(studyTable(t, 6))
	require.NoError(t, err)

	for _, r := range results {
		assert.True(t, r.Omnibus.Inconclusive, "%s by %s", r.Section, r.GroupedBy)
		assert.Equal(t, stats.DecisionInconclusive, r.Omnibus.Decision)
		assert.Empty(t, r.PostHoc)
	}
}
