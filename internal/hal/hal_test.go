package hal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolarity(t *testing.T) {
	p, err := ParsePolarity("dir0_low")
	require.NoError(t, err)
	assert.Equal(t, Dir0Low, p)

	p, err = ParsePolarity("")
	require.NoError(t, err)
	assert.Equal(t, Dir0Low, p)

	p, err = ParsePolarity("dir0_high")
	require.NoError(t, err)
	assert.Equal(t, Dir0High, p)

	_, err = ParsePolarity("sideways")
	assert.Error(t, err)
}

func TestMockLinesTracksPulsesAndDirection(t *testing.T) {
	m := NewMockLines(Dir0Low)

	require.NoError(t, m.SetDirection(1))
	require.NoError(t, m.SetStep(true))
	require.NoError(t, m.SetStep(false))
	require.NoError(t, m.SetStep(true))
	require.NoError(t, m.SetStep(true)) // repeated high: not a new rising edge
	require.NoError(t, m.SetStep(false))

	assert.Equal(t, 2, m.Pulses())
	assert.Equal(t, 1, m.Direction())
	assert.Equal(t, []int{1}, m.DirectionChanges())

	require.NoError(t, m.Close())
	assert.True(t, m.Closed())
}
