package geometry

import (
	"testing"

	"github.com/go-drawboard/drawboard/internal/types"
	"github.com/stretchr/testify/assert"
)

func pt(x, y float64) types.Point {
	return types.Point{X: x, Y: y}
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 5.0, Distance(pt(0, 0), pt(3, 4)))
	assert.Equal(t, 0.0, Distance(pt(7, -2), pt(7, -2)))
}

func TestPointNearSegment(t *testing.T) {
	a, b := pt(0, 0), pt(10, 0)

	t.Run("projection inside segment", func(t *testing.T) {
		assert.True(t, PointNearSegment(pt(5, 3), a, b, 5))
		assert.False(t, PointNearSegment(pt(5, 6), a, b, 5))
	})

	t.Run("projection clamped to endpoint", func(t *testing.T) {
		// (15, 0) projects past b, so distance is measured to b itself
		assert.True(t, PointNearSegment(pt(13, 0), a, b, 5))
		assert.False(t, PointNearSegment(pt(16, 0), a, b, 5))
	})

	t.Run("degenerate zero-length segment", func(t *testing.T) {
		assert.True(t, PointNearSegment(pt(1, 1), a, a, 2))
		assert.False(t, PointNearSegment(pt(5, 5), a, a, 2))
	})
}

func TestPointInRect(t *testing.T) {
	assert.True(t, PointInRect(pt(5, 5), 0, 0, 10, 10))
	assert.True(t, PointInRect(pt(0, 10), 0, 0, 10, 10), "edges are inclusive")
	assert.False(t, PointInRect(pt(11, 5), 0, 0, 10, 10))

	// rectangle given by opposing corners with negative extents
	assert.True(t, PointInRect(pt(5, 5), 10, 10, -10, -10))
}

func TestPointInCircle(t *testing.T) {
	assert.True(t, PointInCircle(pt(3, 4), pt(0, 0), 5))
	assert.False(t, PointInCircle(pt(3, 5), pt(0, 0), 5))
}

func TestStrokeHit(t *testing.T) {
	eraser := []types.Point{pt(12, 10)}

	assert.True(t, StrokeHit([]types.Point{pt(10, 10)}, eraser, 20),
		"point within eraser width must be hit")
	assert.False(t, StrokeHit([]types.Point{pt(100, 100)}, eraser, 20),
		"distant stroke must not be hit")
	assert.False(t, StrokeHit(nil, eraser, 20))
}

func TestCutStroke(t *testing.T) {
	stroke := []types.Point{pt(0, 0), pt(10, 0), pt(20, 0), pt(30, 0), pt(40, 0)}

	t.Run("middle erased splits into two runs", func(t *testing.T) {
		segments := CutStroke(stroke, []types.Point{pt(20, 0)}, 5)
		assert.Len(t, segments, 2)
		assert.Equal(t, []types.Point{pt(0, 0), pt(10, 0)}, segments[0])
		assert.Equal(t, []types.Point{pt(30, 0), pt(40, 0)}, segments[1])
	})

	t.Run("no intersection keeps stroke whole", func(t *testing.T) {
		segments := CutStroke(stroke, []types.Point{pt(0, 100)}, 5)
		assert.Len(t, segments, 1)
		assert.Equal(t, stroke, segments[0])
	})

	t.Run("everything erased yields no runs", func(t *testing.T) {
		segments := CutStroke(stroke, []types.Point{pt(20, 0)}, 50)
		assert.Empty(t, segments)
	})

	t.Run("empty eraser path is a no-op", func(t *testing.T) {
		segments := CutStroke(stroke, nil, 5)
		assert.Equal(t, [][]types.Point{stroke}, segments)
	})
}
