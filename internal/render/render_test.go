package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pts(xs ...float32) []Point {
	out := make([]Point, len(xs))
	for i, x := range xs {
		out[i] = Point{X: x}
	}
	return out
}

func TestPointBufferFIFO(t *testing.T) {
	b := NewPointBuffer()
	assert.Equal(t, 0, b.Len())

	b.AddPoints(pts(1, 2, 3))
	b.AddPoints(pts(4, 5))
	assert.Equal(t, 5, b.Len())

	// Pops come off the head, in insertion order.
	b.PopPoints(3)
	snap := b.Snapshot()
	require.Len(t, snap.Points, 2)
	assert.Equal(t, float32(4), snap.Points[0].X)
	assert.Equal(t, float32(5), snap.Points[1].X)

	b.PopPoints(10)
	assert.Equal(t, 0, b.Len())

	b.PopPoints(1) // popping empty is a no-op
	assert.Equal(t, 0, b.Len())
}

func TestPointBufferClear(t *testing.T) {
	b := NewPointBuffer()
	b.AddPoints(pts(1, 2))
	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Snapshot().Points)
}

func TestPointBufferSnapshot(t *testing.T) {
	b := NewPointBuffer()
	b.AddPoints(pts(1))
	b.SetAlpha(0.5)
	b.SetBillboardDimensions(0.02, 0.02)
	b.SetUsePoints(true)

	snap := b.Snapshot()
	assert.Equal(t, float32(0.5), snap.Alpha)
	assert.Equal(t, float32(0.02), snap.BillboardW)
	assert.Equal(t, float32(0.02), snap.BillboardH)
	assert.True(t, snap.UsePoints)
	assert.Equal(t, 1, snap.TotalPoints)

	// The snapshot is a copy: later mutation must not show through.
	b.AddPoints(pts(2))
	assert.Len(t, snap.Points, 1)
}

func TestPointBufferDefaults(t *testing.T) {
	snap := NewPointBuffer().Snapshot()
	assert.Equal(t, float32(1.0), snap.Alpha)
	assert.False(t, snap.UsePoints)
}
