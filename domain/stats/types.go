package stats

import (
	"fmt"

	"grestat/domain/core"
)

// TestType defines the statistical test performed
type TestType string

const (
	TestSpearman      TestType = "spearman"       // Spearman rank correlation
	TestPairedTTest   TestType = "paired_ttest"   // Paired Student's t-test
	TestWilcoxon      TestType = "wilcoxon"       // Wilcoxon signed-rank test
	TestMannWhitney   TestType = "mann_whitney"   // Mann-Whitney U test
	TestKruskalWallis TestType = "kruskal_wallis" // Kruskal-Wallis test
)

// Decision is the outcome of a hypothesis test at the configured alpha.
type Decision string

const (
	DecisionReject       Decision = "reject"
	DecisionDoNotReject  Decision = "do_not_reject"
	DecisionInconclusive Decision = "inconclusive"
)

// TestResult is the canonical output of one hypothesis test.
// INVARIANTS:
// - PValue always present (0.0 to 1.0)
// - AdjustedP, when set, is >= PValue and in [0, 1]
// - Inconclusive results never carry a reject decision
type TestResult struct {
	TestType     TestType         `json:"test_type"`
	VariableX    core.ColumnLabel `json:"variable_x"`
	VariableY    core.ColumnLabel `json:"variable_y"`
	Statistic    float64          `json:"statistic"`
	PValue       float64          `json:"p_value"`
	AdjustedP    float64          `json:"adjusted_p,omitempty"`
	Adjusted     bool             `json:"adjusted"` // whether AdjustedP is meaningful
	MeanDiff     float64          `json:"mean_diff,omitempty"`
	SampleSize   int              `json:"sample_size"`
	Alpha        float64          `json:"alpha"`
	Decision     Decision         `json:"decision"`
	Inconclusive bool             `json:"inconclusive"`
	Note         string           `json:"note,omitempty"`
}

// EffectivePValue returns the adjusted p-value when a family correction was
// applied and the raw p-value otherwise.
func (r TestResult) EffectivePValue() float64 {
	if r.Adjusted {
		return r.AdjustedP
	}
	return r.PValue
}

// Decide fills the decision field from the effective p-value. Inconclusive
// results are left untouched.
func (r *TestResult) Decide() {
	if r.Inconclusive {
		r.Decision = DecisionInconclusive
		return
	}
	if r.EffectivePValue() <= r.Alpha {
		r.Decision = DecisionReject
	} else {
		r.Decision = DecisionDoNotReject
	}
}

// Validate checks the TestResult invariants.
func (r TestResult) Validate() error {
	if r.PValue < 0 || r.PValue > 1 {
		return fmt.Errorf("p-value must be in [0,1], got %g", r.PValue)
	}
	if r.Adjusted {
		if r.AdjustedP < r.PValue {
			return fmt.Errorf("adjusted p %g below raw p %g", r.AdjustedP, r.PValue)
		}
		if r.AdjustedP > 1 {
			return fmt.Errorf("adjusted p must be <= 1, got %g", r.AdjustedP)
		}
	}
	if r.Inconclusive && r.Decision == DecisionReject {
		return fmt.Errorf("inconclusive result cannot reject")
	}
	return nil
}

// CorrelationResult is a rank correlation between a practice column and a
// real score, computed over pairwise-complete observations.
type CorrelationResult struct {
	VariableX  core.ColumnLabel `json:"variable_x"`
	VariableY  core.ColumnLabel `json:"variable_y"`
	Rho        float64          `json:"rho"`
	PValue     float64          `json:"p_value"`
	SampleSize int              `json:"sample_size"`
}

// ScreenOutcome records the bootstrap normality screen for one practice
// column: the shape of the resampled-mean distribution and whether the
// column stays in the parametric battery.
type ScreenOutcome struct {
	Variable       core.ColumnLabel `json:"variable"`
	Resamples      int              `json:"resamples"`
	SubsampleSize  int              `json:"subsample_size"`
	Skewness       float64          `json:"skewness"`
	ExcessKurtosis float64          `json:"excess_kurtosis"`
	Excluded       bool             `json:"excluded"`
	Reason         string           `json:"reason,omitempty"`
}

// RunManifest captures what a reader needs to reproduce a report run.
type RunManifest struct {
	RunID       core.RunID     `json:"run_id"`
	InputPath   string         `json:"input_path"`
	Fingerprint core.Hash      `json:"fingerprint"` // hash of the determinism inputs
	RowsLoaded  int            `json:"rows_loaded"`
	RowsCleaned int            `json:"rows_cleaned"`
	Seed        int64          `json:"seed"`
	Alpha       float64        `json:"alpha"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// NewRunManifest stamps a fresh manifest for one pipeline invocation. The
// fingerprint covers everything that determines the numbers in the report:
// the input file and the two knobs the analysis branches on.
func NewRunManifest(inputPath string, seed int64, alpha float64) RunManifest {
	return RunManifest{
		RunID:       core.RunID(core.NewID()),
		InputPath:   inputPath,
		Fingerprint: core.NewHash([]byte(fmt.Sprintf("%s|%d|%g", inputPath, seed, alpha))),
		Seed:        seed,
		Alpha:       alpha,
		CreatedAt:   core.Now(),
	}
}
