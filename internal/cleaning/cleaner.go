package cleaning

import (
	"github.com/rs/zerolog/log"

	"grestat/domain/core"
	"grestat/domain/survey"
	"grestat/internal/config"
	"grestat/internal/errors"
)

// Cleaner derives the analysis tables from the raw survey table. The raw
// table is never mutated; every output is a fresh derived table.
type Cleaner struct {
	cfg config.CleaningConfig
}

// NewCleaner creates a cleaner with explicit validity bounds.
func NewCleaner(cfg config.CleaningConfig) *Cleaner {
	return &Cleaner{cfg: cfg}
}

// Result bundles the filtered table and its per-section views.
type Result struct {
	Cleaned *survey.Table
	Verbal  *survey.Table
	Quant   *survey.Table
	Writing *survey.Table

	RowsIn      int
	RowsDropped int
}

// Clean filters implausible self-reports and partitions by section:
// keep rows with tests_taken < MaxTestsTaken and hours in
// (MinHours, MaxHours] or hours missing. The writing view additionally
// drops rows missing the real AW score.
func (c *Cleaner) Clean(raw *survey.Table) (*Result, error) {
	tests := raw.MustColumn(survey.ColTestsTaken)
	hours := raw.MustColumn(survey.ColHoursStudied)

	cleaned := raw.Filter(func(row int) bool {
		if !survey.IsMissing(tests[row]) && tests[row] >= float64(c.cfg.MaxTestsTaken) {
			return false
		}
		if survey.IsMissing(hours[row]) {
			return true
		}
		return hours[row] > c.cfg.MinHours && hours[row] <= c.cfg.MaxHours
	})

	verbal, err := c.sectionView(cleaned, survey.SectionVerbal)
	if err != nil {
		return nil, err
	}
	quant, err := c.sectionView(cleaned, survey.SectionQuant)
	if err != nil {
		return nil, err
	}
	writing, err := c.sectionView(cleaned, survey.SectionWriting)
	if err != nil {
		return nil, err
	}

	// Small AW sample: rows without a real AW score carry no information
	// for the paired writing analysis.
	awScore := writing.MustColumn(survey.ColGREWriting)
	writing = writing.Filter(func(row int) bool {
		return !survey.IsMissing(awScore[row])
	})

	result := &Result{
		Cleaned:     cleaned,
		Verbal:      verbal,
		Quant:       quant,
		Writing:     writing,
		RowsIn:      raw.Rows(),
		RowsDropped: raw.Rows() - cleaned.Rows(),
	}

	log.Info().
		Int("rows_in", result.RowsIn).
		Int("rows_kept", cleaned.Rows()).
		Int("rows_dropped", result.RowsDropped).
		Int("writing_rows", writing.Rows()).
		Msg("cleaned survey table")

	return result, nil
}

// sectionView restricts the cleaned table to one section's real score plus
// its practice columns.
func (c *Cleaner) sectionView(cleaned *survey.Table, section survey.Section) (*survey.Table, error) {
	labels := []core.ColumnLabel{survey.RealScoreColumn(section)}
	labels = append(labels, survey.SectionPracticeColumns(section)...)

	view, err := cleaned.Select(labels...)
	if err != nil {
		return nil, errors.Wrapf(err, "deriving %s section view", section)
	}
	return view, nil
}
