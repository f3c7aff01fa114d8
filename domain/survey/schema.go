package survey

import (
	"grestat/domain/core"
)

// Section identifies one of the three scored GRE sections.
type Section string

const (
	SectionVerbal  Section = "verbal"
	SectionQuant   Section = "quant"
	SectionWriting Section = "writing"
)

// Column labels for the fixed 29-column survey schema. The input file's
// header order must match ColumnLabels exactly; respondents self-report, so
// any cell may carry the "NA" missing token.
const (
	ColTimestamp    core.ColumnLabel = "timestamp"
	ColGREVerbal    core.ColumnLabel = "gre_verbal"
	ColGREQuant     core.ColumnLabel = "gre_quant"
	ColGREWriting   core.ColumnLabel = "gre_writing"
	ColTestsTaken   core.ColumnLabel = "tests_taken"
	ColHoursStudied core.ColumnLabel = "hours_studied"
	ColUndergradGPA core.ColumnLabel = "undergrad_gpa"
	ColOldGREVerbal core.ColumnLabel = "old_gre_verbal"
	ColOldGREQuant  core.ColumnLabel = "old_gre_quant"

	ColPowerPrep1Verbal core.ColumnLabel = "powerprep1_verbal"
	ColPowerPrep2Verbal core.ColumnLabel = "powerprep2_verbal"
	ColManhattanVerbal  core.ColumnLabel = "manhattan_verbal"
	ColKaplanVerbal     core.ColumnLabel = "kaplan_verbal"
	ColMagooshVerbal    core.ColumnLabel = "magoosh_verbal"
	ColPrincetonVerbal  core.ColumnLabel = "princeton_verbal"
	ColBarronsVerbal    core.ColumnLabel = "barrons_verbal"
	ColMcGrawVerbal     core.ColumnLabel = "mcgraw_verbal"
	ColCrunchPrepVerbal core.ColumnLabel = "crunchprep_verbal"

	ColPowerPrep1Quant core.ColumnLabel = "powerprep1_quant"
	ColPowerPrep2Quant core.ColumnLabel = "powerprep2_quant"
	ColManhattanQuant  core.ColumnLabel = "manhattan_quant"
	ColKaplanQuant     core.ColumnLabel = "kaplan_quant"
	ColMagooshQuant    core.ColumnLabel = "magoosh_quant"
	ColPrincetonQuant  core.ColumnLabel = "princeton_quant"
	ColBarronsQuant    core.ColumnLabel = "barrons_quant"
	ColMcGrawQuant     core.ColumnLabel = "mcgraw_quant"
	ColCrunchPrepQuant core.ColumnLabel = "crunchprep_quant"

	ColPowerPrepWriting core.ColumnLabel = "powerprep_writing"
	ColManhattanWriting core.ColumnLabel = "manhattan_writing"
)

// ColumnLabels is the fixed, ordered schema the loader maps headers onto.
var ColumnLabels = []core.ColumnLabel{
	ColTimestamp,
	ColGREVerbal,
	ColGREQuant,
	ColGREWriting,
	ColTestsTaken,
	ColHoursStudied,
	ColUndergradGPA,
	ColOldGREVerbal,
	ColOldGREQuant,
	ColPowerPrep1Verbal,
	ColPowerPrep2Verbal,
	ColManhattanVerbal,
	ColKaplanVerbal,
	ColMagooshVerbal,
	ColPrincetonVerbal,
	ColBarronsVerbal,
	ColMcGrawVerbal,
	ColCrunchPrepVerbal,
	ColPowerPrep1Quant,
	ColPowerPrep2Quant,
	ColManhattanQuant,
	ColKaplanQuant,
	ColMagooshQuant,
	ColPrincetonQuant,
	ColBarronsQuant,
	ColMcGrawQuant,
	ColCrunchPrepQuant,
	ColPowerPrepWriting,
	ColManhattanWriting,
}

// ColumnCount is the number of columns an input file must carry.
const ColumnCount = 29

// VerbalPracticeColumns lists practice-test columns predicting the verbal score.
var VerbalPracticeColumns = []core.ColumnLabel{
	ColPowerPrep1Verbal,
	ColPowerPrep2Verbal,
	ColManhattanVerbal,
	ColKaplanVerbal,
	ColMagooshVerbal,
	ColPrincetonVerbal,
	ColBarronsVerbal,
	ColMcGrawVerbal,
	ColCrunchPrepVerbal,
}

// QuantPracticeColumns lists practice-test columns predicting the quant score.
var QuantPracticeColumns = []core.ColumnLabel{
	ColPowerPrep1Quant,
	ColPowerPrep2Quant,
	ColManhattanQuant,
	ColKaplanQuant,
	ColMagooshQuant,
	ColPrincetonQuant,
	ColBarronsQuant,
	ColMcGrawQuant,
	ColCrunchPrepQuant,
}

// WritingPracticeColumns lists practice-test columns predicting the AW score.
var WritingPracticeColumns = []core.ColumnLabel{
	ColPowerPrepWriting,
	ColManhattanWriting,
}

// PracticeColumns lists every practice-test column across sections.
func PracticeColumns() []core.ColumnLabel {
	out := make([]core.ColumnLabel, 0,
		len(VerbalPracticeColumns)+len(QuantPracticeColumns)+len(WritingPracticeColumns))
	out = append(out, VerbalPracticeColumns...)
	out = append(out, QuantPracticeColumns...)
	out = append(out, WritingPracticeColumns...)
	return out
}

// RealScoreColumn returns the real GRE score column for a section.
func RealScoreColumn(s Section) core.ColumnLabel {
	switch s {
	case SectionVerbal:
		return ColGREVerbal
	case SectionQuant:
		return ColGREQuant
	case SectionWriting:
		return ColGREWriting
	}
	return ""
}

// SectionPracticeColumns returns the practice columns for a section.
func SectionPracticeColumns(s Section) []core.ColumnLabel {
	switch s {
	case SectionVerbal:
		return VerbalPracticeColumns
	case SectionQuant:
		return QuantPracticeColumns
	case SectionWriting:
		return WritingPracticeColumns
	}
	return nil
}

// displayNames maps schema labels to the names used in report tables.
var displayNames = map[core.ColumnLabel]string{
	ColGREVerbal:        "GRE Verbal",
	ColGREQuant:         "GRE Quantitative",
	ColGREWriting:       "GRE Analytical Writing",
	ColTestsTaken:       "Practice tests taken",
	ColHoursStudied:     "Hours studied",
	ColPowerPrep1Verbal: "ETS PowerPrep 1 (V)",
	ColPowerPrep2Verbal: "ETS PowerPrep 2 (V)",
	ColManhattanVerbal:  "Manhattan (V)",
	ColKaplanVerbal:     "Kaplan (V)",
	ColMagooshVerbal:    "Magoosh (V)",
	ColPrincetonVerbal:  "Princeton Review (V)",
	ColBarronsVerbal:    "Barron's (V)",
	ColMcGrawVerbal:     "McGraw-Hill (V)",
	ColCrunchPrepVerbal: "CrunchPrep (V)",
	ColPowerPrep1Quant:  "ETS PowerPrep 1 (Q)",
	ColPowerPrep2Quant:  "ETS PowerPrep 2 (Q)",
	ColManhattanQuant:   "Manhattan (Q)",
	ColKaplanQuant:      "Kaplan (Q)",
	ColMagooshQuant:     "Magoosh (Q)",
	ColPrincetonQuant:   "Princeton Review (Q)",
	ColBarronsQuant:     "Barron's (Q)",
	ColMcGrawQuant:      "McGraw-Hill (Q)",
	ColCrunchPrepQuant:  "CrunchPrep (Q)",
	ColPowerPrepWriting: "ETS PowerPrep (AW)",
	ColManhattanWriting: "Manhattan (AW)",
}

// DisplayName returns the human-readable name for a column label.
func DisplayName(label core.ColumnLabel) string {
	if name, ok := displayNames[label]; ok {
		return name
	}
	return string(label)
}
