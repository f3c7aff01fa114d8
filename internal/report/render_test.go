package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"grestat/domain/stats"
	"grestat/domain/survey"
	"grestat/internal/analysis/compare"
	"grestat/internal/analysis/studyeffect"
	"grestat/internal/config"
	"grestat/internal/describe"
)

func sampleInput() Input {
	manifest := stats.NewRunManifest("survey.csv", 1, 0.05)
	manifest.RowsLoaded = 60
	manifest.RowsCleaned = 55

	cfg := &config.Config{
		Cleaning: config.CleaningConfig{MaxTestsTaken: 15, MinHours: 0, MaxHours: 200},
		Analysis: config.AnalysisConfig{Alpha: 0.05, BucketCount: 3, MinSamplePaired: 3, MinSampleWilcoxon: 5, MinBucketSize: 3},
		Bootstrap: config.BootstrapConfig{
			Seed: 1, Resamples: 10000, SubsampleFraction: 0.6,
			MaxAbsSkewness: 0.5, MaxAbsExcessKurtosis: 1.0, MinObservationsToDraw: 10,
		},
	}

	summary := &describe.Summary{
		Percentiles: []describe.PercentileRow{
			{Label: survey.ColGREVerbal, SampleSize: 55, P0: 142, P20: 152, P40: 156, P60: 160, P80: 164, P100: 170},
		},
		Participation: []describe.ParticipationRow{
			{Label: survey.ColPowerPrep1Quant, Reported: 41, Total: 55, Proportion: 0.745},
			{Label: survey.ColKaplanQuant, Reported: 12, Total: 55, Proportion: 0.218},
		},
	}

	quant := &compare.SectionReport{
		Section: survey.SectionQuant,
		Screens: []stats.ScreenOutcome{
			{Variable: survey.ColPowerPrep1Quant, Resamples: 10000, SubsampleSize: 24, Skewness: 0.1, ExcessKurtosis: 0.2},
			{Variable: survey.ColMagooshQuant, Resamples: 10000, SubsampleSize: 20, Skewness: 1.4, Excluded: true, Reason: "resampled-mean |skewness| 1.400 above bound 0.500"},
		},
		Correlations: []stats.CorrelationResult{
			{VariableX: survey.ColPowerPrep1Quant, VariableY: survey.ColGREQuant, Rho: 0.82, PValue: 3.1e-9, SampleSize: 40},
		},
		PairedTests: []stats.TestResult{
			{
				TestType: stats.TestPairedTTest, VariableX: survey.ColPowerPrep1Quant, VariableY: survey.ColGREQuant,
				Statistic: -4.2, PValue: 0.00015, AdjustedP: 0.0012, Adjusted: true,
				MeanDiff: -2.1, SampleSize: 40, Alpha: 0.05, Decision: stats.DecisionReject,
			},
			{
				TestType: stats.TestPairedTTest, VariableX: survey.ColKaplanQuant, VariableY: survey.ColGREQuant,
				PValue: 1, SampleSize: 2, Alpha: 0.05, Inconclusive: true,
				Decision: stats.DecisionInconclusive, Note: "only 2 complete pairs, need 3",
			},
		},
	}

	writing := stats.TestResult{
		TestType: stats.TestWilcoxon, VariableX: "writing_practice_pooled", VariableY: survey.ColGREWriting,
		Statistic: 31, PValue: 0.042, SampleSize: 14, Alpha: 0.05,
		Decision: stats.DecisionReject, Note: "exact signed-rank distribution",
	}

	studyEffect := []studyeffect.GroupingResult{
		{
			Section:   survey.SectionVerbal,
			GroupedBy: survey.ColHoursStudied,
			Buckets: []studyeffect.Bucket{
				{Index: 1, Low: 2, High: 40, Size: 18, MeanScore: 153.2},
				{Index: 2, Low: 41, High: 90, Size: 18, MeanScore: 156.8},
				{Index: 3, Low: 92, High: 190, Size: 19, MeanScore: 160.1},
			},
			Correlation: &stats.CorrelationResult{
				VariableX: survey.ColHoursStudied, VariableY: survey.ColGREVerbal,
				Rho: 0.41, PValue: 0.0019, SampleSize: 55,
			},
			Omnibus: stats.TestResult{
				TestType: stats.TestKruskalWallis, VariableX: survey.ColHoursStudied, VariableY: survey.ColGREVerbal,
				Statistic: 9.8, PValue: 0.0074, SampleSize: 55, Alpha: 0.05, Decision: stats.DecisionReject,
			},
			PostHoc: []stats.TestResult{
				{
					TestType: stats.TestMannWhitney, VariableX: "hours_studied_bucket_1", VariableY: "hours_studied_bucket_3",
					Statistic: 61, PValue: 0.0031, SampleSize: 37, Alpha: 0.05,
					Decision: stats.DecisionReject, Note: "exploratory, uncorrected",
				},
			},
		},
	}

	return Input{
		Manifest:    manifest,
		Config:      cfg,
		Summary:     summary,
		Quant:       quant,
		Writing:     writing,
		StudyEffect: studyEffect,
		Figures:     []string{"box_hours_studied.png"},
	}
}

func TestRender_WritesDocumentSet(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, NewRenderer(dir).Render(sampleInput()))

	for _, name := range []string{"report.md", "report.html", "tables.xlsx"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "%s must exist", name)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestRender_MarkdownCarriesManifestAndDecisions(t *testing.T) {
	dir := t.TempDir()
	in := sampleInput()

	require.NoError(t, NewRenderer(dir).Render(in))

	raw, err := os.ReadFile(filepath.Join(dir, "report.md"))
	require.NoError(t, err)
	doc := string(raw)

	assert.Contains(t, doc, string(in.Manifest.RunID))
	assert.Contains(t, doc, "Bootstrap seed: 1")
	assert.Contains(t, doc, "ETS PowerPrep 1 (Q)")
	assert.Contains(t, doc, "reject")
	assert.Contains(t, doc, "exploratory, uncorrected")
	assert.Contains(t, doc, "inconclusive")
	assert.Contains(t, doc, "![box_hours_studied.png](box_hours_studied.png)")
	// Small p-values render in scientific notation.
	assert.Contains(t, doc, "1.50e-04")
}

func TestRender_HTMLIsCompletePage(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, NewRenderer(dir).Render(sampleInput()))

	raw, err := os.ReadFile(filepath.Join(dir, "report.html"))
	require.NoError(t, err)
	doc := string(raw)

	assert.Contains(t, doc, "<html")
	assert.Contains(t, doc, "<table")
	assert.Contains(t, doc, "GRE Survey Analysis")
}

func TestRender_WorkbookSheets(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, NewRenderer(dir).Render(sampleInput()))

	f, err := excelize.OpenFile(filepath.Join(dir, "tables.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{"Percentiles", "Participation", "Screens", "Correlations", "Tests", "StudyEffect"} {
		assert.Contains(t, sheets, want)
	}

	rows, err := f.GetRows("Tests")
	require.NoError(t, err)
	// Header + 2 paired + writing + omnibus + 1 post-hoc.
	assert.Len(t, rows, 6)
}

func TestFormatP_ScientificBelowOneThousandth(t *testing.T) {
	assert.Equal(t, "3.10e-09", formatP(3.1e-9))
	assert.Equal(t, "0.042", formatP(0.042))
	assert.Equal(t, "1", formatP(1))
	assert.Equal(t, "0", formatP(0))
}
