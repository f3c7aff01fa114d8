package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_UniqueAndNonEmpty(t *testing.T) {
	a := NewID()
	b := NewID()

	assert.False(t, a.IsEmpty())
	assert.NotEqual(t, a, b)
	assert.Len(t, a.String(), 36)
}

func TestParseRunID(t *testing.T) {
	id, err := ParseRunID("run-123")
	require.NoError(t, err)
	assert.Equal(t, RunID("run-123"), id)

	_, err = ParseRunID("   ")
	assert.Error(t, err)
}
