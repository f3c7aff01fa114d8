package describe

import (
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog/log"

	"grestat/domain/core"
	"grestat/domain/survey"
	"grestat/internal/errors"
)

// PercentileRow is the quantile summary of one real GRE score, missing
// values ignored.
type PercentileRow struct {
	Label      core.ColumnLabel `json:"label"`
	SampleSize int              `json:"sample_size"`
	P0         float64          `json:"p0"`
	P20        float64          `json:"p20"`
	P40        float64          `json:"p40"`
	P60        float64          `json:"p60"`
	P80        float64          `json:"p80"`
	P100       float64          `json:"p100"`
}

// ParticipationRow records how many respondents reported a practice test.
type ParticipationRow struct {
	Label      core.ColumnLabel `json:"label"`
	Reported   int              `json:"reported"`
	Total      int              `json:"total"`
	Proportion float64          `json:"proportion"`
}

// Summary is the descriptive stage output.
type Summary struct {
	Percentiles   []PercentileRow    `json:"percentiles"`
	Participation []ParticipationRow `json:"participation"`
}

// Percentiles computes the 0/20/40/60/80/100th percentile row for one score
// column, ignoring missing values.
func Percentiles(label core.ColumnLabel, col []float64) (PercentileRow, error) {
	values := survey.NonMissing(col)
	if len(values) < 2 {
		return PercentileRow{}, errors.InsufficientSample("too few observations for percentiles")
	}

	min, err := stats.Min(values)
	if err != nil {
		return PercentileRow{}, errors.Wrap(err, "percentile computation failed")
	}
	max, err := stats.Max(values)
	if err != nil {
		return PercentileRow{}, errors.Wrap(err, "percentile computation failed")
	}

	row := PercentileRow{Label: label, SampleSize: len(values), P0: min, P100: max}
	for _, q := range []struct {
		percent float64
		dst     *float64
	}{
		{20, &row.P20},
		{40, &row.P40},
		{60, &row.P60},
		{80, &row.P80},
	} {
		v, err := stats.Percentile(values, q.percent)
		if err != nil {
			return PercentileRow{}, errors.Wrap(err, "percentile computation failed")
		}
		*q.dst = v
	}

	return row, nil
}

// Participation tallies non-missing entries per practice column, sorted by
// proportion descending.
func Participation(table *survey.Table, columns []core.ColumnLabel) []ParticipationRow {
	total := table.Rows()
	rows := make([]ParticipationRow, 0, len(columns))

	for _, label := range columns {
		col, err := table.Column(label)
		if err != nil {
			continue
		}
		reported := len(survey.NonMissing(col))
		proportion := 0.0
		if total > 0 {
			proportion = float64(reported) / float64(total)
		}
		rows = append(rows, ParticipationRow{
			Label:      label,
			Reported:   reported,
			Total:      total,
			Proportion: proportion,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Proportion > rows[j].Proportion
	})
	return rows
}

// Summarize runs the full descriptive stage over the cleaned table.
func Summarize(cleaned *survey.Table) (*Summary, error) {
	summary := &Summary{}

	for _, label := range []core.ColumnLabel{
		survey.ColGREVerbal,
		survey.ColGREQuant,
		survey.ColGREWriting,
	} {
		col, err := cleaned.Column(label)
		if err != nil {
			return nil, err
		}
		row, err := Percentiles(label, col)
		if err != nil {
			if errors.HasCode(err, errors.CodeInsufficientSample) {
				log.Warn().Str("column", string(label)).Msg("skipping percentile row: too few observations")
				continue
			}
			return nil, err
		}
		summary.Percentiles = append(summary.Percentiles, row)
	}

	summary.Participation = Participation(cleaned, survey.PracticeColumns())

	log.Info().
		Int("percentile_rows", len(summary.Percentiles)).
		Int("participation_rows", len(summary.Participation)).
		Msg("computed descriptive summary")

	return summary, nil
}
