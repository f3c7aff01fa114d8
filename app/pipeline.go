package app

import (
	"github.com/rs/zerolog/log"

	"grestat/adapters/ingest"
	"grestat/adapters/plot"
	"grestat/domain/stats"
	"grestat/domain/survey"
	"grestat/internal/analysis/compare"
	"grestat/internal/analysis/studyeffect"
	"grestat/internal/cleaning"
	"grestat/internal/config"
	"grestat/internal/describe"
	"grestat/internal/errors"
	"grestat/internal/report"
)

// Pipeline runs the whole analysis: load, clean, describe, compare,
// study-effect, render. One invocation produces one report document set.
type Pipeline struct {
	cfg *config.Config
}

// NewPipeline creates a pipeline over a validated configuration.
func NewPipeline(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Result exposes every stage's output, mostly for inspection in tests; the
// rendered documents under the report directory are the real deliverable.
type Result struct {
	Manifest    stats.RunManifest
	Cleaning    *cleaning.Result
	Summary     *describe.Summary
	Verbal      *compare.SectionReport
	Quant       *compare.SectionReport
	Writing     stats.TestResult
	StudyEffect []studyeffect.GroupingResult
	Figures     []string
}

// Run executes the pipeline end to end.
func (p *Pipeline) Run() (*Result, error) {
	manifest := stats.NewRunManifest(p.cfg.Input.Path, p.cfg.Bootstrap.Seed, p.cfg.Analysis.Alpha)
	log.Info().
		Str("run_id", string(manifest.RunID)).
		Str("input", p.cfg.Input.Path).
		Msg("pipeline started")

	raw, err := ingest.NewReader(p.cfg.Input).Read()
	if err != nil {
		return nil, errors.Wrap(err, "loading survey")
	}
	manifest.RowsLoaded = raw.Rows()

	cleaned, err := cleaning.NewCleaner(p.cfg.Cleaning).Clean(raw)
	if err != nil {
		return nil, errors.Wrap(err, "cleaning survey")
	}
	manifest.RowsCleaned = cleaned.Cleaned.Rows()

	summary, err := describe.Summarize(cleaned.Cleaned)
	if err != nil {
		return nil, errors.Wrap(err, "describing survey")
	}

	analyzer := compare.NewAnalyzer(p.cfg.Analysis, p.cfg.Bootstrap)
	verbal, err := analyzer.AnalyzeSection(cleaned.Verbal, survey.SectionVerbal)
	if err != nil {
		return nil, errors.Wrap(err, "verbal battery")
	}
	quant, err := analyzer.AnalyzeSection(cleaned.Quant, survey.SectionQuant)
	if err != nil {
		return nil, errors.Wrap(err, "quant battery")
	}
	writing, err := analyzer.AnalyzeWriting(cleaned.Writing)
	if err != nil {
		return nil, errors.Wrap(err, "writing test")
	}

	studyEffect, err := studyeffect.NewAnalyzer(p.cfg.Analysis).Analyze(cleaned.Cleaned)
	if err != nil {
		return nil, errors.Wrap(err, "study-effect analysis")
	}

	var figures []string
	if p.cfg.Output.Figures {
		figures, err = plot.NewRenderer(p.cfg.Output.Dir).Render(cleaned.Cleaned)
		if err != nil {
			return nil, errors.Wrap(err, "rendering figures")
		}
	}

	renderer := report.NewRenderer(p.cfg.Output.Dir)
	err = renderer.Render(report.Input{
		Manifest:    manifest,
		Config:      p.cfg,
		Summary:     summary,
		Verbal:      verbal,
		Quant:       quant,
		Writing:     writing,
		StudyEffect: studyEffect,
		Figures:     figures,
	})
	if err != nil {
		return nil, errors.Wrap(err, "rendering report")
	}

	log.Info().
		Str("run_id", string(manifest.RunID)).
		Int("rows_loaded", manifest.RowsLoaded).
		Int("rows_cleaned", manifest.RowsCleaned).
		Str("report_dir", p.cfg.Output.Dir).
		Msg("pipeline finished")

	return &Result{
		Manifest:    manifest,
		Cleaning:    cleaned,
		Summary:     summary,
		Verbal:      verbal,
		Quant:       quant,
		Writing:     writing,
		StudyEffect: studyEffect,
		Figures:     figures,
	}, nil
}
