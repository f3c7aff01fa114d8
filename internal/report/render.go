package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"grestat/domain/stats"
	"grestat/domain/survey"
	"grestat/internal/analysis/compare"
	"grestat/internal/analysis/studyeffect"
	"grestat/internal/config"
	"grestat/internal/describe"
	"grestat/internal/errors"
)

// Input collects every stage's output for rendering.
type Input struct {
	Manifest    stats.RunManifest
	Config      *config.Config
	Summary     *describe.Summary
	Verbal      *compare.SectionReport
	Quant       *compare.SectionReport
	Writing     stats.TestResult
	StudyEffect []studyeffect.GroupingResult
	Figures     []string
}

// Renderer writes the report document set: report.md, report.html and
// tables.xlsx, all in one directory.
type Renderer struct {
	dir string
}

// NewRenderer creates a renderer writing into dir.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

// Render writes the full document set.
func (r *Renderer) Render(in Input) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return errors.RenderError("creating report directory", err)
	}

	doc := r.buildMarkdown(in)

	mdPath := filepath.Join(r.dir, "report.md")
	if err := os.WriteFile(mdPath, []byte(doc), 0o644); err != nil {
		return errors.RenderError("writing report.md", err)
	}

	if err := r.renderHTML(doc); err != nil {
		return err
	}
	if err := r.renderWorkbook(in); err != nil {
		return err
	}

	log.Info().Str("dir", r.dir).Msg("rendered report document set")
	return nil
}

// renderHTML converts the markdown document to a standalone HTML page.
func (r *Renderer) renderHTML(doc string) error {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.Tables)
	opts := html.RendererOptions{
		Title: "GRE Survey Analysis",
		Flags: html.CommonFlags | html.CompletePage,
	}
	rendered := markdown.ToHTML([]byte(doc), p, html.NewRenderer(opts))

	path := filepath.Join(r.dir, "report.html")
	if err := os.WriteFile(path, rendered, 0o644); err != nil {
		return errors.RenderError("writing report.html", err)
	}
	return nil
}

// --- markdown -----------------------------------------------------------

func (r *Renderer) buildMarkdown(in Input) string {
	var b strings.Builder

	b.WriteString("# GRE Survey Analysis\n\n")
	r.writeManifest(&b, in)
	r.writeDescriptive(&b, in.Summary)
	r.writeSection(&b, in.Verbal)
	r.writeSection(&b, in.Quant)
	r.writeWriting(&b, in.Writing)
	r.writeStudyEffect(&b, in.StudyEffect)
	r.writeFigures(&b, in.Figures)

	return b.String()
}

func (r *Renderer) writeManifest(b *strings.Builder, in Input) {
	m := in.Manifest
	b.WriteString("## Run\n\n")
	fmt.Fprintf(b, "- Run ID: `%s`\n", m.RunID)
	fmt.Fprintf(b, "- Created: %s\n", m.CreatedAt)
	fmt.Fprintf(b, "- Input: `%s`\n", m.InputPath)
	fmt.Fprintf(b, "- Fingerprint: `%s`\n", m.Fingerprint)
	fmt.Fprintf(b, "- Rows loaded: %d, rows after cleaning: %d\n", m.RowsLoaded, m.RowsCleaned)
	fmt.Fprintf(b, "- Bootstrap seed: %d\n", m.Seed)
	fmt.Fprintf(b, "- Alpha: %s\n", formatNumber(m.Alpha))

	if in.Config != nil {
		c := in.Config
		b.WriteString("\nThresholds used:\n\n")
		fmt.Fprintf(b, "- Cleaning: tests taken < %d, hours in (%s, %s]\n",
			c.Cleaning.MaxTestsTaken, formatNumber(c.Cleaning.MinHours), formatNumber(c.Cleaning.MaxHours))
		fmt.Fprintf(b, "- Normality screen: %d resamples of %s of each column, |skewness| <= %s, |excess kurtosis| <= %s\n",
			c.Bootstrap.Resamples,
			formatPercent(c.Bootstrap.SubsampleFraction),
			formatNumber(c.Bootstrap.MaxAbsSkewness),
			formatNumber(c.Bootstrap.MaxAbsExcessKurtosis))
		fmt.Fprintf(b, "- Minimum samples: %d paired, %d Wilcoxon pairs, %d per bucket\n",
			c.Analysis.MinSamplePaired, c.Analysis.MinSampleWilcoxon, c.Analysis.MinBucketSize)
	}
	b.WriteString("\n")
}

func (r *Renderer) writeDescriptive(b *strings.Builder, summary *describe.Summary) {
	if summary == nil {
		return
	}

	b.WriteString("## Score distributions\n\n")
	writeTableHeader(b, "Score", "n", "Min", "P20", "P40", "P60", "P80", "Max")
	for _, row := range summary.Percentiles {
		writeTableRow(b,
			survey.DisplayName(row.Label),
			strconv.Itoa(row.SampleSize),
			formatNumber(row.P0), formatNumber(row.P20), formatNumber(row.P40),
			formatNumber(row.P60), formatNumber(row.P80), formatNumber(row.P100))
	}
	b.WriteString("\n")

	b.WriteString("## Practice test participation\n\n")
	writeTableHeader(b, "Practice test", "Reported", "Of", "Share")
	for _, row := range summary.Participation {
		writeTableRow(b,
			survey.DisplayName(row.Label),
			strconv.Itoa(row.Reported),
			strconv.Itoa(row.Total),
			formatPercent(row.Proportion))
	}
	b.WriteString("\n")
}

func (r *Renderer) writeSection(b *strings.Builder, section *compare.SectionReport) {
	if section == nil {
		return
	}

	fmt.Fprintf(b, "## Practice vs real: %s\n\n", section.Section)

	b.WriteString("### Normality screen\n\n")
	writeTableHeader(b, "Practice test", "Resamples", "Skewness", "Excess kurtosis", "Kept")
	for _, s := range section.Screens {
		kept := "yes"
		if s.Excluded {
			kept = "no: " + s.Reason
		} else if s.Reason != "" {
			kept = "yes: " + s.Reason
		}
		writeTableRow(b,
			survey.DisplayName(s.Variable),
			strconv.Itoa(s.Resamples),
			formatNumber(s.Skewness),
			formatNumber(s.ExcessKurtosis),
			kept)
	}
	b.WriteString("\n")

	if len(section.Correlations) > 0 {
		b.WriteString("### Rank correlations with the real score\n\n")
		writeTableHeader(b, "Practice test", "rho", "p", "n")
		for _, c := range section.Correlations {
			writeTableRow(b,
				survey.DisplayName(c.VariableX),
				formatNumber(c.Rho),
				formatP(c.PValue),
				strconv.Itoa(c.SampleSize))
		}
		b.WriteString("\n")
	}

	b.WriteString("### Paired t-tests (BH-adjusted within section)\n\n")
	writeTableHeader(b, "Practice test", "Mean diff", "t", "p", "Adjusted p", "n", "Decision")
	for _, t := range section.PairedTests {
		writeTableRow(b,
			survey.DisplayName(t.VariableX),
			formatNumber(t.MeanDiff),
			formatNumber(t.Statistic),
			formatP(t.PValue),
			formatAdjusted(t),
			strconv.Itoa(t.SampleSize),
			formatDecision(t))
	}
	b.WriteString("\n")
}

func (r *Renderer) writeWriting(b *strings.Builder, result stats.TestResult) {
	b.WriteString("## Practice vs real: writing\n\n")
	if result.Inconclusive {
		fmt.Fprintf(b, "Pooled Wilcoxon signed-rank test was inconclusive (%s).\n\n", result.Note)
		return
	}
	fmt.Fprintf(b, "Pooled Wilcoxon signed-rank test over %d practice/real pairs: W+ = %s, p = %s (%s). Decision at alpha %s: **%s**.\n\n",
		result.SampleSize,
		formatNumber(result.Statistic),
		formatP(result.PValue),
		result.Note,
		formatNumber(result.Alpha),
		result.Decision)
}

func (r *Renderer) writeStudyEffect(b *strings.Builder, groupings []studyeffect.GroupingResult) {
	if len(groupings) == 0 {
		return
	}

	b.WriteString("## Does studying more help?\n\n")
	for _, g := range groupings {
		fmt.Fprintf(b, "### %s by %s\n\n",
			survey.DisplayName(survey.RealScoreColumn(g.Section)),
			survey.DisplayName(g.GroupedBy))

		writeTableHeader(b, "Bucket", "Range", "n", "Mean score", "Within-bucket rho")
		for _, bucket := range g.Buckets {
			rho := "-"
			if bucket.Correlation != nil {
				rho = formatNumber(bucket.Correlation.Rho)
			}
			writeTableRow(b,
				strconv.Itoa(bucket.Index),
				fmt.Sprintf("%s to %s", formatNumber(bucket.Low), formatNumber(bucket.High)),
				strconv.Itoa(bucket.Size),
				formatNumber(bucket.MeanScore),
				rho)
		}
		b.WriteString("\n")

		if g.Correlation != nil {
			fmt.Fprintf(b, "Spearman rho of %s against the score: %s (p = %s, n = %d).\n\n",
				survey.DisplayName(g.GroupedBy),
				formatNumber(g.Correlation.Rho),
				formatP(g.Correlation.PValue),
				g.Correlation.SampleSize)
		}

		if g.Omnibus.Inconclusive {
			fmt.Fprintf(b, "Kruskal-Wallis omnibus inconclusive: %s.\n\n", g.Omnibus.Note)
			continue
		}
		fmt.Fprintf(b, "Kruskal-Wallis omnibus: H = %s, p = %s. Decision at alpha %s: **%s**.\n\n",
			formatNumber(g.Omnibus.Statistic),
			formatP(g.Omnibus.PValue),
			formatNumber(g.Omnibus.Alpha),
			g.Omnibus.Decision)

		if len(g.PostHoc) > 0 {
			b.WriteString("Pairwise follow-ups (exploratory, uncorrected):\n\n")
			writeTableHeader(b, "Pair", "U", "p", "Decision")
			for _, ph := range g.PostHoc {
				writeTableRow(b,
					fmt.Sprintf("%s vs %s", ph.VariableX, ph.VariableY),
					formatNumber(ph.Statistic),
					formatP(ph.PValue),
					formatDecision(ph))
			}
			b.WriteString("\n")
		}
	}
}

func (r *Renderer) writeFigures(b *strings.Builder, figures []string) {
	if len(figures) == 0 {
		return
	}

	b.WriteString("## Figures\n\n")
	for _, name := range figures {
		fmt.Fprintf(b, "![%s](%s)\n\n", name, name)
	}
}

// --- workbook -----------------------------------------------------------

// renderWorkbook writes every table into tables.xlsx, one sheet per table.
func (r *Renderer) renderWorkbook(in Input) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Percentiles"); err != nil {
		return errors.RenderError("naming percentile sheet", err)
	}

	sheets := []struct {
		name string
		rows [][]interface{}
	}{
		{"Percentiles", percentileRows(in.Summary)},
		{"Participation", participationRows(in.Summary)},
		{"Screens", screenRows(in.Verbal, in.Quant)},
		{"Correlations", correlationRows(in)},
		{"Tests", testRows(in)},
		{"StudyEffect", studyEffectRows(in.StudyEffect)},
	}

	for _, sheet := range sheets {
		if sheet.name != "Percentiles" {
			if _, err := f.NewSheet(sheet.name); err != nil {
				return errors.RenderError(fmt.Sprintf("creating sheet %s", sheet.name), err)
			}
		}
		for i, row := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return errors.RenderError("computing cell coordinates", err)
			}
			if err := f.SetSheetRow(sheet.name, cell, &row); err != nil {
				return errors.RenderError(fmt.Sprintf("writing sheet %s", sheet.name), err)
			}
		}
	}

	path := filepath.Join(r.dir, "tables.xlsx")
	if err := f.SaveAs(path); err != nil {
		return errors.RenderError("saving tables.xlsx", err)
	}
	return nil
}

func percentileRows(summary *describe.Summary) [][]interface{} {
	rows := [][]interface{}{{"score", "n", "min", "p20", "p40", "p60", "p80", "max"}}
	if summary == nil {
		return rows
	}
	for _, p := range summary.Percentiles {
		rows = append(rows, []interface{}{
			string(p.Label), p.SampleSize, p.P0, p.P20, p.P40, p.P60, p.P80, p.P100,
		})
	}
	return rows
}

func participationRows(summary *describe.Summary) [][]interface{} {
	rows := [][]interface{}{{"practice_test", "reported", "total", "proportion"}}
	if summary == nil {
		return rows
	}
	for _, p := range summary.Participation {
		rows = append(rows, []interface{}{string(p.Label), p.Reported, p.Total, p.Proportion})
	}
	return rows
}

func screenRows(sections ...*compare.SectionReport) [][]interface{} {
	rows := [][]interface{}{{"section", "practice_test", "resamples", "subsample", "skewness", "excess_kurtosis", "excluded", "reason"}}
	for _, s := range sections {
		if s == nil {
			continue
		}
		for _, screen := range s.Screens {
			rows = append(rows, []interface{}{
				string(s.Section), string(screen.Variable), screen.Resamples, screen.SubsampleSize,
				screen.Skewness, screen.ExcessKurtosis, screen.Excluded, screen.Reason,
			})
		}
	}
	return rows
}

func correlationRows(in Input) [][]interface{} {
	rows := [][]interface{}{{"variable_x", "variable_y", "rho", "p_value", "n"}}
	appendCorr := func(corrs []stats.CorrelationResult) {
		for _, c := range corrs {
			rows = append(rows, []interface{}{
				string(c.VariableX), string(c.VariableY), c.Rho, c.PValue, c.SampleSize,
			})
		}
	}
	if in.Verbal != nil {
		appendCorr(in.Verbal.Correlations)
	}
	if in.Quant != nil {
		appendCorr(in.Quant.Correlations)
	}
	for _, g := range in.StudyEffect {
		if g.Correlation != nil {
			appendCorr([]stats.CorrelationResult{*g.Correlation})
		}
	}
	return rows
}

func testRows(in Input) [][]interface{} {
	rows := [][]interface{}{{"test_type", "variable_x", "variable_y", "statistic", "p_value", "adjusted_p", "mean_diff", "n", "decision", "note"}}
	appendTest := func(t stats.TestResult) {
		adjusted := interface{}(nil)
		if t.Adjusted {
			adjusted = t.AdjustedP
		}
		rows = append(rows, []interface{}{
			string(t.TestType), string(t.VariableX), string(t.VariableY),
			t.Statistic, t.PValue, adjusted, t.MeanDiff, t.SampleSize,
			string(t.Decision), t.Note,
		})
	}
	if in.Verbal != nil {
		for _, t := range in.Verbal.PairedTests {
			appendTest(t)
		}
	}
	if in.Quant != nil {
		for _, t := range in.Quant.PairedTests {
			appendTest(t)
		}
	}
	appendTest(in.Writing)
	for _, g := range in.StudyEffect {
		appendTest(g.Omnibus)
		for _, ph := range g.PostHoc {
			appendTest(ph)
		}
	}
	return rows
}

func studyEffectRows(groupings []studyeffect.GroupingResult) [][]interface{} {
	rows := [][]interface{}{{"section", "grouped_by", "bucket", "low", "high", "n", "mean_score", "within_bucket_rho"}}
	for _, g := range groupings {
		for _, b := range g.Buckets {
			rho := interface{}(nil)
			if b.Correlation != nil {
				rho = b.Correlation.Rho
			}
			rows = append(rows, []interface{}{
				string(g.Section), string(g.GroupedBy), b.Index, b.Low, b.High, b.Size, b.MeanScore, rho,
			})
		}
	}
	return rows
}

// --- formatting ---------------------------------------------------------

// formatNumber renders a value to three significant digits.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', 3, 64)
}

// formatP renders a p-value: scientific below 0.001, plain otherwise.
func formatP(p float64) string {
	if p > 0 && p < 0.001 {
		return strconv.FormatFloat(p, 'e', 2, 64)
	}
	return strconv.FormatFloat(p, 'g', 3, 64)
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(100*v, 'g', 3, 64) + "%"
}

func formatAdjusted(t stats.TestResult) string {
	if !t.Adjusted {
		return "-"
	}
	return formatP(t.AdjustedP)
}

func formatDecision(t stats.TestResult) string {
	if t.Inconclusive && t.Note != "" {
		return fmt.Sprintf("%s (%s)", t.Decision, t.Note)
	}
	return string(t.Decision)
}

func writeTableHeader(b *strings.Builder, cells ...string) {
	writeTableRow(b, cells...)
	seps := make([]string, len(cells))
	for i := range seps {
		seps[i] = "---"
	}
	writeTableRow(b, seps...)
}

func writeTableRow(b *strings.Builder, cells ...string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}
