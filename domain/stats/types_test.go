package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide_UsesAdjustedPValueWhenPresent(t *testing.T) {
	result := TestResult{PValue: 0.01, AdjustedP: 0.09, Adjusted: true, Alpha: 0.05}
	result.Decide()

	assert.Equal(t, DecisionDoNotReject, result.Decision, "decision follows the corrected p-value")

	result = TestResult{PValue: 0.01, Alpha: 0.05}
	result.Decide()

	assert.Equal(t, DecisionReject, result.Decision)
}

func TestDecide_InconclusiveNeverRejects(t *testing.T) {
	result := TestResult{PValue: 0.0001, Alpha: 0.05, Inconclusive: true}
	result.Decide()

	assert.Equal(t, DecisionInconclusive, result.Decision)
	assert.NoError(t, result.Validate())
}

func TestValidate_RejectsAdjustedBelowRaw(t *testing.T) {
	result := TestResult{PValue: 0.04, AdjustedP: 0.01, Adjusted: true}

	assert.Error(t, result.Validate())
}

func TestValidate_RejectsOutOfRangePValue(t *testing.T) {
	assert.Error(t, TestResult{PValue: -0.1}.Validate())
	assert.Error(t, TestResult{PValue: 1.1}.Validate())
	assert.NoError(t, TestResult{PValue: 0.5}.Validate())
}

func TestNewRunManifest_StampsIdentityAndKnobs(t *testing.T) {
	manifest := NewRunManifest("survey.csv", 42, 0.05)

	assert.NotEmpty(t, manifest.RunID)
	assert.Equal(t, "survey.csv", manifest.InputPath)
	assert.Equal(t, int64(42), manifest.Seed)
	assert.Equal(t, 0.05, manifest.Alpha)
	assert.False(t, manifest.CreatedAt.Time().IsZero())
	assert.False(t, manifest.Fingerprint.IsEmpty())

	// Same determinism inputs, same fingerprint; the run ID still differs.
	again := NewRunManifest("survey.csv", 42, 0.05)
	assert.Equal(t, manifest.Fingerprint, again.Fingerprint)
	assert.NotEqual(t, manifest.RunID, again.RunID)

	other := NewRunManifest("survey.csv", 43, 0.05)
	assert.NotEqual(t, manifest.Fingerprint, other.Fingerprint)
}
