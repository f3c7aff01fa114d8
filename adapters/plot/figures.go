package plot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"grestat/domain/core"
	"grestat/domain/survey"
	"grestat/internal/errors"
)

// Renderer draws the diagnostic figures into the report directory. Figures
// support the written findings; the report reads fine without them, so the
// whole stage can be toggled off.
type Renderer struct {
	dir string
}

// NewRenderer creates a figure renderer writing into dir.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

const (
	figureWidth  = 6 * vg.Inch
	figureHeight = 4 * vg.Inch
)

// studyFigures pairs each study variable with the real scores it is plotted
// against.
var studyFigures = []struct {
	study core.ColumnLabel
	score core.ColumnLabel
}{
	{survey.ColHoursStudied, survey.ColGREVerbal},
	{survey.ColHoursStudied, survey.ColGREQuant},
	{survey.ColTestsTaken, survey.ColGREVerbal},
	{survey.ColTestsTaken, survey.ColGREQuant},
}

// Render draws the full diagnostic set over the cleaned table and returns
// the figure filenames, relative to the report directory.
func (r *Renderer) Render(cleaned *survey.Table) ([]string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, errors.RenderError("creating figure directory", err)
	}

	var files []string

	for _, label := range []core.ColumnLabel{survey.ColHoursStudied, survey.ColTestsTaken} {
		name := fmt.Sprintf("box_%s.png", label)
		if err := r.boxPlot(cleaned.MustColumn(label), label, name); err != nil {
			return nil, err
		}
		files = append(files, name)
	}

	for _, fig := range studyFigures {
		name := fmt.Sprintf("scatter_%s_vs_%s.png", fig.study, fig.score)
		if err := r.scatter(cleaned, fig.study, fig.score, name); err != nil {
			return nil, err
		}
		files = append(files, name)
	}

	for _, label := range []core.ColumnLabel{survey.ColGREVerbal, survey.ColGREQuant} {
		name := fmt.Sprintf("qq_%s.png", label)
		if err := r.qqPlot(cleaned.MustColumn(label), label, name); err != nil {
			return nil, err
		}
		files = append(files, name)
	}

	log.Info().Int("figures", len(files)).Str("dir", r.dir).Msg("rendered diagnostic figures")
	return files, nil
}

// boxPlot draws a single box plot of one column's non-missing values. These
// are the plots the cleaning cutoffs were originally read from.
func (r *Renderer) boxPlot(col []float64, label core.ColumnLabel, name string) error {
	values := plotter.Values(survey.NonMissing(col))
	if len(values) == 0 {
		return errors.RenderError(fmt.Sprintf("no observations to plot for %s", label), nil)
	}

	p := plot.New()
	p.Title.Text = survey.DisplayName(label)
	p.Y.Label.Text = survey.DisplayName(label)
	p.NominalX(string(label))

	box, err := plotter.NewBoxPlot(vg.Points(40), 0, values)
	if err != nil {
		return errors.RenderError(fmt.Sprintf("building box plot for %s", label), err)
	}
	p.Add(box)

	if err := p.Save(figureWidth, figureHeight, filepath.Join(r.dir, name)); err != nil {
		return errors.RenderError(fmt.Sprintf("saving %s", name), err)
	}
	return nil
}

// qqPlot draws sample quantiles of one real score against standard normal
// quantiles, with the mean/sd reference line. Visual diagnostic only; nothing
// downstream gates on it.
func (r *Renderer) qqPlot(col []float64, label core.ColumnLabel, name string) error {
	values := survey.NonMissing(col)
	if len(values) < 3 {
		return errors.RenderError(fmt.Sprintf("too few observations for a Q-Q plot of %s", label), nil)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean, err := stats.Mean(sorted)
	if err != nil {
		return errors.RenderError(fmt.Sprintf("mean for Q-Q plot of %s", label), err)
	}
	sd, err := stats.StandardDeviationSample(sorted)
	if err != nil {
		return errors.RenderError(fmt.Sprintf("standard deviation for Q-Q plot of %s", label), err)
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	points := make(plotter.XYs, len(sorted))
	for i, v := range sorted {
		points[i].X = normal.Quantile((float64(i) + 0.5) / float64(len(sorted)))
		points[i].Y = v
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Normal Q-Q: %s", survey.DisplayName(label))
	p.X.Label.Text = "Theoretical quantile"
	p.Y.Label.Text = "Sample quantile"

	qq, err := plotter.NewScatter(points)
	if err != nil {
		return errors.RenderError(fmt.Sprintf("building Q-Q plot for %s", label), err)
	}

	ref, err := plotter.NewLine(plotter.XYs{
		{X: points[0].X, Y: mean + sd*points[0].X},
		{X: points[len(points)-1].X, Y: mean + sd*points[len(points)-1].X},
	})
	if err != nil {
		return errors.RenderError(fmt.Sprintf("building Q-Q reference line for %s", label), err)
	}

	p.Add(qq, ref, plotter.NewGrid())

	if err := p.Save(figureWidth, figureHeight, filepath.Join(r.dir, name)); err != nil {
		return errors.RenderError(fmt.Sprintf("saving %s", name), err)
	}
	return nil
}

// scatter draws one study variable against one real score over
// pairwise-complete respondents.
func (r *Renderer) scatter(cleaned *survey.Table, study, score core.ColumnLabel, name string) error {
	xs, ys := survey.PairedComplete(cleaned.MustColumn(study), cleaned.MustColumn(score))
	if len(xs) == 0 {
		return errors.RenderError(fmt.Sprintf("no complete pairs to plot for %s vs %s", study, score), nil)
	}

	points := make(plotter.XYs, len(xs))
	for i := range xs {
		points[i].X = xs[i]
		points[i].Y = ys[i]
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs %s", survey.DisplayName(score), survey.DisplayName(study))
	p.X.Label.Text = survey.DisplayName(study)
	p.Y.Label.Text = survey.DisplayName(score)

	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return errors.RenderError(fmt.Sprintf("building scatter for %s vs %s", study, score), err)
	}
	p.Add(scatter)
	p.Add(plotter.NewGrid())

	if err := p.Save(figureWidth, figureHeight, filepath.Join(r.dir, name)); err != nil {
		return errors.RenderError(fmt.Sprintf("saving %s", name), err)
	}
	return nil
}
