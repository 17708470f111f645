package ranking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hotelrec/internal/ranking"
)

func TestComputeMetrics(t *testing.T) {
	m := ranking.ComputeMetrics([]string{"1", "1", "2"})
	assert.Equal(t, 3, m.Count)
	assert.InDelta(t, 2.0/3.0, m.Diversity, 1e-9)
	assert.InDelta(t, 1.0/3.0, m.Repetition, 1e-9)

	empty := ranking.ComputeMetrics(nil)
	assert.Zero(t, empty.Diversity)
	assert.Zero(t, empty.Repetition)

	single := ranking.ComputeMetrics([]string{"a"})
	assert.Equal(t, 1.0, single.Diversity)
	assert.Zero(t, single.Repetition)

	blanks := ranking.ComputeMetrics([]string{"", "x", ""})
	assert.Equal(t, 1, blanks.Count)
}
