package fatehist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/celltrack/pkg/analysis/markers"
	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/core/position"
	"github.com/matzehuels/celltrack/pkg/errors"
)

func pos(x float64, t int) position.Position { return position.New(x, 0, 0, t) }

func chain(t *testing.T, exp *experiment.Experiment, x float64, from, to int) {
	t.Helper()
	for tp := from; tp < to; tp++ {
		require.NoError(t, exp.Links.AddLink(pos(x, tp), pos(x, tp+1)))
	}
}

func divide(t *testing.T, exp *experiment.Experiment, mother, d1, d2 position.Position) {
	t.Helper()
	require.NoError(t, exp.Links.AddLink(mother, d1))
	require.NoError(t, exp.Links.AddLink(mother, d2))
}

func TestClassify(t *testing.T) {
	exp := experiment.New("hist")
	exp.Settings.DivisionLookaheadTimePoints = 10

	// The first division has no known cell cycle length and is skipped.
	chain(t, exp, 0, 0, 2)
	divide(t, exp, pos(0, 2), pos(-10, 3), pos(10, 3))

	// Cycle of 5: one daughter moves on, the other dies.
	chain(t, exp, -10, 3, 8)
	divide(t, exp, pos(-10, 8), pos(-11, 9), pos(-9, 9))
	chain(t, exp, -11, 9, 30)
	markers.SetEndMarker(exp.Links, pos(-9, 9), markers.Dead)

	// Cycle of 12: one daughter divides again after a cycle of 1, the
	// other is lost.
	chain(t, exp, 10, 3, 15)
	divide(t, exp, pos(10, 15), pos(9, 16), pos(11, 16))
	chain(t, exp, 9, 16, 17)
	divide(t, exp, pos(9, 17), pos(8, 18), pos(10, 18))

	bins, err := Classify(exp, 4)
	require.NoError(t, err)

	assert.Equal(t, []Bin{
		{MinTimePoint: 0, Unknown: 2},
		{MinTimePoint: 4, Nondividing: 2},
		{MinTimePoint: 12, Dividing: 1, Unknown: 1},
	}, bins)
	assert.Equal(t, 2, bins[2].Total())
	assert.InDelta(t, 0.5, bins[2].DividingFraction(), 1e-9)
	assert.InDelta(t, 1.0, bins[1].NondividingFraction(), 1e-9)
	assert.InDelta(t, 0.0, bins[0].DividingFraction(), 1e-9)
}

func TestClassifyErrors(t *testing.T) {
	exp := experiment.New("empty")
	_, err := Classify(exp, 10)
	assert.True(t, errors.Is(err, errors.ErrCodeNoLinks))

	chain(t, exp, 0, 0, 3)
	_, err = Classify(exp, 0)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	bins, err := Classify(exp, 10)
	require.NoError(t, err)
	assert.Empty(t, bins)
	assert.Zero(t, Bin{}.UnknownFraction())
}
