package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grestat/domain/core"
	"grestat/domain/stats"
	"grestat/domain/survey"
	"grestat/internal/analysis/studyeffect"
	"grestat/internal/config"
	"grestat/internal/testkit"
)

func pipelineConfig(t *testing.T) (*config.Config, *testkit.Generator) {
	t.Helper()

	dir := t.TempDir()
	input := filepath.Join(dir, "survey.csv")
	generator := testkit.NewGenerator(1, 72)
	require.NoError(t, generator.WriteCSV(input))

	return &config.Config{
		Input:  config.InputConfig{Path: input, MissingToken: "NA"},
		Output: config.OutputConfig{Dir: filepath.Join(dir, "report"), Figures: true},
		Cleaning: config.CleaningConfig{
			MaxTestsTaken: 15,
			MinHours:      0,
			MaxHours:      200,
		},
		Analysis: config.AnalysisConfig{
			Alpha:             0.05,
			BucketCount:       3,
			MinSamplePaired:   3,
			MinSampleWilcoxon: 5,
			MinBucketSize:     3,
		},
		Bootstrap: config.BootstrapConfig{
			Seed:                  1,
			Resamples:             1000,
			SubsampleFraction:     0.6,
			MaxAbsSkewness:        0.5,
			MaxAbsExcessKurtosis:  1.0,
			MinObservationsToDraw: 10,
		},
	}, generator
}

func findPaired(tests []stats.TestResult, x core.ColumnLabel) (stats.TestResult, bool) {
	for _, t := range tests {
		if t.VariableX == x {
			return t, true
		}
	}
	return stats.TestResult{}, false
}

func findScreen(screens []stats.ScreenOutcome, x core.ColumnLabel) (stats.ScreenOutcome, bool) {
	for _, s := range screens {
		if s.Variable == x {
			return s, true
		}
	}
	return stats.ScreenOutcome{}, false
}

func TestPipeline_EndToEnd(t *testing.T) {
	cfg, generator := pipelineConfig(t)

	result, err := NewPipeline(cfg).Run()
	require.NoError(t, err)

	assert.Equal(t, generator.Rows(), result.Manifest.RowsLoaded)
	assert.Equal(t, generator.ValidRows(), result.Manifest.RowsCleaned)
	assert.Equal(t, testkit.InvalidRows, result.Cleaning.RowsDropped)

	for _, name := range []string{"report.md", "report.html", "tables.xlsx"} {
		_, err := os.Stat(filepath.Join(cfg.Output.Dir, name))
		assert.NoError(t, err, "%s must exist", name)
	}
	assert.NotEmpty(t, result.Figures)
	for _, fig := range result.Figures {
		_, err := os.Stat(filepath.Join(cfg.Output.Dir, fig))
		assert.NoError(t, err, "figure %s must exist", fig)
	}
}

func TestPipeline_QuantBatteryOutcomes(t *testing.T) {
	cfg, _ := pipelineConfig(t)

	result, err := NewPipeline(cfg).Run()
	require.NoError(t, err)

	// Exactly balanced noise around the real score: no evidence against H0
	// for either PowerPrep test.
	for _, label := range []core.ColumnLabel{survey.ColPowerPrep1Quant, survey.ColPowerPrep2Quant} {
		balanced, ok := findPaired(result.Quant.PairedTests, label)
		require.True(t, ok, "%s must be tested", label)
		assert.Equal(t, stats.DecisionDoNotReject, balanced.Decision, "%s", label)
	}

	// The six other surviving columns run systematically low: reject even
	// after BH.
	for _, label := range []core.ColumnLabel{
		survey.ColManhattanQuant,
		survey.ColKaplanQuant,
		survey.ColPrincetonQuant,
		survey.ColBarronsQuant,
		survey.ColMcGrawQuant,
		survey.ColCrunchPrepQuant,
	} {
		shifted, ok := findPaired(result.Quant.PairedTests, label)
		require.True(t, ok, "%s must be tested", label)
		assert.Equal(t, stats.DecisionReject, shifted.Decision, "%s", label)
		assert.True(t, shifted.Adjusted)
	}

	// The planted outlier makes the resampled-mean distribution bimodal.
	screen, ok := findScreen(result.Quant.Screens, survey.ColMagooshQuant)
	require.True(t, ok)
	assert.True(t, screen.Excluded)
	_, tested := findPaired(result.Quant.PairedTests, survey.ColMagooshQuant)
	assert.False(t, tested, "excluded columns never reach the battery")

	for _, test := range result.Quant.PairedTests {
		assert.NoError(t, test.Validate())
	}
}

func TestPipeline_VerbalBatteryOutcomes(t *testing.T) {
	cfg, _ := pipelineConfig(t)

	result, err := NewPipeline(cfg).Run()
	require.NoError(t, err)

	screen, ok := findScreen(result.Verbal.Screens, survey.ColMcGrawVerbal)
	require.True(t, ok)
	assert.True(t, screen.Excluded)

	// All 8 surviving verbal columns sit well below the real score.
	require.Len(t, result.Verbal.PairedTests, 8)
	for _, test := range result.Verbal.PairedTests {
		assert.False(t, test.Inconclusive, "%s", test.VariableX)
		assert.Equal(t, stats.DecisionReject, test.Decision, "%s", test.VariableX)
		assert.Less(t, test.MeanDiff, 0.0)
	}
}

func TestPipeline_WritingRejects(t *testing.T) {
	cfg, _ := pipelineConfig(t)

	result, err := NewPipeline(cfg).Run()
	require.NoError(t, err)

	assert.Equal(t, stats.TestWilcoxon, result.Writing.TestType)
	assert.Equal(t, stats.DecisionReject, result.Writing.Decision)
	assert.Equal(t, 32, result.Writing.SampleSize) // 24 + 8 pooled pairs
}

func TestPipeline_HoursMoveVerbalNotQuant(t *testing.T) {
	cfg, _ := pipelineConfig(t)

	result, err := NewPipeline(cfg).Run()
	require.NoError(t, err)

	var verbalByHours, quantByHours *studyeffect.GroupingResult
	for i := range result.StudyEffect {
		g := &result.StudyEffect[i]
		if g.GroupedBy != survey.ColHoursStudied {
			continue
		}
		switch g.Section {
		case survey.SectionVerbal:
			verbalByHours = g
		case survey.SectionQuant:
			quantByHours = g
		}
	}

	require.NotNil(t, verbalByHours)
	require.NotNil(t, quantByHours)
	assert.Equal(t, stats.DecisionReject, verbalByHours.Omnibus.Decision)
	assert.Equal(t, stats.DecisionDoNotReject, quantByHours.Omnibus.Decision)
	assert.Empty(t, quantByHours.PostHoc)

	// The verbal jump lives in the top bucket only: the follow-ups separate
	// bucket 3 from the other two but find nothing between buckets 1 and 2.
	require.Len(t, verbalByHours.PostHoc, 3)
	for _, pair := range verbalByHours.PostHoc {
		want := stats.DecisionReject
		if pair.VariableX == "hours_studied_bucket_1" && pair.VariableY == "hours_studied_bucket_2" {
			want = stats.DecisionDoNotReject
		}
		assert.Equal(t, want, pair.Decision, "%s vs %s", pair.VariableX, pair.VariableY)
	}
}

func TestPipeline_ParticipationRanking(t *testing.T) {
	cfg, _ := pipelineConfig(t)

	result, err := NewPipeline(cfg).Run()
	require.NoError(t, err)

	participation := result.Summary.Participation
	require.NotEmpty(t, participation)

	top := participation[0]
	assert.InDelta(t, 0.75, top.Proportion, 1e-9)
	assert.Contains(t,
		[]core.ColumnLabel{survey.ColPowerPrep1Verbal, survey.ColPowerPrep1Quant},
		top.Label)
}

func TestPipeline_MalformedInputAborts(t *testing.T) {
	cfg, _ := pipelineConfig(t)
	require.NoError(t, os.WriteFile(cfg.Input.Path, []byte("not,a,survey\n1,2,3\n"), 0o644))

	_, err := NewPipeline(cfg).Run()

	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(cfg.Output.Dir, "report.md"))
	assert.True(t, os.IsNotExist(statErr), "failed runs must leave no partial report")
}

func TestPipeline_FiguresCanBeDisabled(t *testing.T) {
	cfg, _ := pipelineConfig(t)
	cfg.Output.Figures = false

	result, err := NewPipeline(cfg).Run()
	require.NoError(t, err)

	assert.Empty(t, result.Figures)
	_, statErr := os.Stat(filepath.Join(cfg.Output.Dir, "report.md"))
	assert.NoError(t, statErr)
}
