package testkit

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"grestat/domain/core"
	"grestat/domain/survey"
)

// Generator produces a synthetic survey with known effects baked in, so
// pipeline-level assertions have certain outcomes:
//
//   - powerprep1_quant and powerprep2_quant track the real quant score with
//     exactly balanced +1/-1 noise (their paired tests must not reject),
//   - the six other reported quant columns and all eight well-behaved verbal
//     columns run a few points below the real score (paired tests reject),
//   - magoosh_quant and mcgraw_verbal each carry one wild outlier, so the
//     resampled-mean screen excludes them,
//   - verbal scores jump in the top hours-studied tertile only: the
//     Kruskal-Wallis omnibus rejects, and pairwise follow-ups separate
//     bucket 3 from buckets 1 and 2 but not bucket 1 from bucket 2,
//   - quant scores repeat the same distribution in every hours tertile,
//   - powerprep1 has the highest participation (3 of every 4 respondents),
//   - the last two rows are implausible (500 hours, 20 practice tests) and
//     must fall to cleaning.
type Generator struct {
	seed int64
	n    int // valid respondents, rounded down to a multiple of 24
}

// InvalidRows is how many implausible respondents the generator appends.
const InvalidRows = 2

// NewGenerator creates a generator for n valid respondents. n is rounded
// down to a multiple of 24 (minimum 48) so the balanced noise columns hold
// an even number of observations and the hours tertiles carry identical
// score distributions where the design wants them identical.
func NewGenerator(seed int64, n int) *Generator {
	n -= n % 24
	if n < 48 {
		n = 48
	}
	return &Generator{seed: seed, n: n}
}

// Rows returns the total row count including the implausible tail.
func (g *Generator) Rows() int {
	return g.n + InvalidRows
}

// ValidRows returns the respondent count that survives cleaning.
func (g *Generator) ValidRows() int {
	return g.n
}

// Table builds the synthetic survey table.
func (g *Generator) Table() (*survey.Table, error) {
	return survey.NewTable(survey.ColumnLabels, g.records())
}

// WriteCSV writes the synthetic survey as a CSV file with NA missing tokens.
func (g *Generator) WriteCSV(path string) error {
	var b strings.Builder

	labels := make([]string, len(survey.ColumnLabels))
	for i, l := range survey.ColumnLabels {
		labels[i] = string(l)
	}
	b.WriteString(strings.Join(labels, ","))
	b.WriteString("\n")

	for _, record := range g.records() {
		cells := make([]string, len(record))
		for i, v := range record {
			if survey.IsMissing(v) {
				cells[i] = "NA"
			} else {
				cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteString("\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func (g *Generator) records() [][]float64 {
	rng := rand.New(rand.NewSource(g.seed))
	records := make([][]float64, 0, g.Rows())

	topTertile := 2 * g.n / 3
	balance := map[core.ColumnLabel]int{} // alternates balanced-noise signs

	balancedNoise := func(label core.ColumnLabel) float64 {
		noise := 1.0
		if balance[label]%2 == 1 {
			noise = -1.0
		}
		balance[label]++
		return noise
	}

	for i := 0; i < g.n; i++ {
		row := emptyRow()

		hours := 1 + 179*float64(i)/float64(g.n-1)
		// Tertile sizes are multiples of 8, so i%4 and i%8 cycle evenly:
		// the first two hours tertiles carry identical verbal multisets and
		// all three carry identical quant multisets.
		verbal := 150 + float64(i%4)
		if i >= topTertile {
			verbal += 8
		}
		quant := 158 + float64(i%8)
		writing := 3.0 + 0.5*float64(i%4)

		set(row, survey.ColTimestamp, 1496300000+float64(i)*60)
		set(row, survey.ColGREVerbal, verbal)
		set(row, survey.ColGREQuant, quant)
		set(row, survey.ColGREWriting, writing)
		set(row, survey.ColTestsTaken, float64(i%8))
		set(row, survey.ColHoursStudied, hours)
		set(row, survey.ColUndergradGPA, 2.8+rng.Float64()/2)

		// Highest participation, noise exactly balanced around the real score.
		if i%4 != 3 {
			set(row, survey.ColPowerPrep1Quant, quant+balancedNoise(survey.ColPowerPrep1Quant))
			set(row, survey.ColPowerPrep1Verbal, verbal-3-0.1*float64(i%5))
		}
		if i%2 == 0 {
			set(row, survey.ColPowerPrep2Quant, quant+balancedNoise(survey.ColPowerPrep2Quant))
		}

		// Every other quant column sits systematically below the real score.
		if i%2 == 0 {
			set(row, survey.ColMagooshQuant, quant-3-0.1*float64(i%5))
			set(row, survey.ColMcGrawQuant, quant-4.5-0.1*float64(i%5))
			set(row, survey.ColBarronsQuant, quant-3-0.1*float64(i%4))
		}
		if i%3 == 0 {
			set(row, survey.ColManhattanQuant, quant-5-0.1*float64(i%7))
			set(row, survey.ColKaplanQuant, quant-4-0.1*float64(i%5))
			set(row, survey.ColPrincetonQuant, quant-6-0.1*float64(i%3))
			set(row, survey.ColCrunchPrepQuant, quant-5.5-0.1*float64(i%6))
		}

		// Verbal practice columns all run low.
		if i%2 == 0 {
			set(row, survey.ColPowerPrep2Verbal, verbal-3.5-0.1*float64(i%4))
			set(row, survey.ColMagooshVerbal, verbal-3-0.1*float64(i%5))
			set(row, survey.ColPrincetonVerbal, verbal-4.2-0.1*float64(i%3))
			set(row, survey.ColMcGrawVerbal, verbal-4-0.1*float64(i%3))
		}
		if i%3 == 0 {
			set(row, survey.ColManhattanVerbal, verbal-4-0.1*float64(i%7))
			set(row, survey.ColKaplanVerbal, verbal-5-0.1*float64(i%5))
			set(row, survey.ColBarronsVerbal, verbal-2.5-0.1*float64(i%4))
			set(row, survey.ColCrunchPrepVerbal, verbal-3.8-0.1*float64(i%6))
		}

		// AW practice runs below the real score with strictly distinct gaps.
		if i%3 == 0 {
			set(row, survey.ColPowerPrepWriting, writing-0.8-0.001*float64(i))
		}
		if i%10 == 0 {
			set(row, survey.ColManhattanWriting, writing-0.5-0.002*float64(i))
		}

		records = append(records, row)
	}

	// One wild outlier each: the resampled-mean distribution goes bimodal
	// and the shape screen must exclude both columns.
	setAt(records, 0, survey.ColMagooshQuant, 360)
	setAt(records, 0, survey.ColMcGrawVerbal, 360)

	// Implausible tail, dropped by cleaning. Practice columns stay missing
	// so the engineered balance above is untouched.
	for i := 0; i < InvalidRows; i++ {
		row := emptyRow()
		set(row, survey.ColTimestamp, 1496400000+float64(i)*60)
		set(row, survey.ColGREVerbal, 150)
		set(row, survey.ColGREQuant, 160)
		set(row, survey.ColGREWriting, 4)
		if i == 0 {
			set(row, survey.ColHoursStudied, 500) // beyond any plausible prep
			set(row, survey.ColTestsTaken, 2)
		} else {
			set(row, survey.ColHoursStudied, 30)
			set(row, survey.ColTestsTaken, 20) // more tests than exist
		}
		records = append(records, row)
	}

	return records
}

func emptyRow() []float64 {
	row := make([]float64, survey.ColumnCount)
	for i := range row {
		row[i] = survey.Missing()
	}
	return row
}

var columnIndex = func() map[core.ColumnLabel]int {
	m := make(map[core.ColumnLabel]int, len(survey.ColumnLabels))
	for i, l := range survey.ColumnLabels {
		m[l] = i
	}
	return m
}()

func set(row []float64, label core.ColumnLabel, v float64) {
	i, ok := columnIndex[label]
	if !ok {
		panic(fmt.Sprintf("unknown column %q", label))
	}
	row[i] = v
}

func setAt(records [][]float64, row int, label core.ColumnLabel, v float64) {
	set(records[row], label, v)
}
