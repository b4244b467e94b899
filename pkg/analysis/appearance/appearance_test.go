package appearance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
)

func TestFindAppearedCells(t *testing.T) {
	l := links.New()
	require.NoError(t, l.AddLink(position.New(0, 0, 0, 0), position.New(0, 0, 0, 1)))
	require.NoError(t, l.AddLink(position.New(5, 0, 0, 3), position.New(5, 0, 0, 4)))
	require.NoError(t, l.AddLink(position.New(2, 0, 0, 1), position.New(2, 0, 0, 2)))

	got := FindAppearedCells(l, 0)
	assert.Equal(t, []position.Position{position.New(2, 0, 0, 1), position.New(5, 0, 0, 3)}, got)

	assert.Empty(t, FindAppearedCells(links.New(), 0))
}
