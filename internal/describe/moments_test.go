package describe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkewness_SymmetricDataNearZero(t *testing.T) {
	data := []float64{-3, -2, -1, 0, 1, 2, 3}

	assert.InDelta(t, 0.0, Skewness(data), 1e-12)
}

func TestSkewness_RightTailPositive(t *testing.T) {
	data := []float64{1, 1, 1, 1, 2, 2, 3, 50}

	assert.Greater(t, Skewness(data), 1.0)
}

func TestSkewness_DegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, Skewness([]float64{1, 2}))
	assert.Equal(t, 0.0, Skewness([]float64{5, 5, 5, 5}))
}

func TestExcessKurtosis_UniformIsPlatykurtic(t *testing.T) {
	data := make([]float64, 1000)
	for i := range data {
		data[i] = float64(i)
	}

	// A uniform distribution has excess kurtosis -1.2.
	assert.InDelta(t, -1.2, ExcessKurtosis(data), 0.05)
}

func TestExcessKurtosis_TwoPointIsExtreme(t *testing.T) {
	data := make([]float64, 100)
	for i := range data {
		if i < 50 {
			data[i] = 0
		} else {
			data[i] = 1
		}
	}

	// A balanced two-point distribution has excess kurtosis -2.
	assert.Less(t, ExcessKurtosis(data), -1.5)
}

func TestExcessKurtosis_DegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, ExcessKurtosis([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, ExcessKurtosis([]float64{5, 5, 5, 5, 5}))
}
