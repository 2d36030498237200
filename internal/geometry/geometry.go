// Package geometry provides the pure hit-testing primitives used by the
// eraser. None of these functions hold state or allocate.
package geometry

import (
	"math"

	"github.com/go-drawboard/drawboard/internal/types"
)

// Distance returns the euclidean distance between two points.
func Distance(p1, p2 types.Point) float64 {
	return math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
}

// PointNearSegment reports whether p lies within tolerance of the segment ab.
// The projection of p onto the segment is clamped to the segment's endpoints.
func PointNearSegment(p, a, b types.Point, tolerance float64) bool {
	length := Distance(a, b)
	if length == 0 {
		return Distance(p, a) <= tolerance
	}

	t := ((p.X-a.X)*(b.X-a.X) + (p.Y-a.Y)*(b.Y-a.Y)) / (length * length)
	t = math.Max(0, math.Min(1, t))

	proj := types.Point{
		X: a.X + t*(b.X-a.X),
		Y: a.Y + t*(b.Y-a.Y),
	}

	return Distance(p, proj) <= tolerance
}

// PointInRect reports whether p is inside the axis-aligned rectangle with
// origin (x, y) and the given width and height. Negative extents are
// normalized so the caller may pass any two opposing corners.
func PointInRect(p types.Point, x, y, width, height float64) bool {
	if width < 0 {
		x, width = x+width, -width
	}
	if height < 0 {
		y, height = y+height, -height
	}
	return p.X >= x && p.X <= x+width && p.Y >= y && p.Y <= y+height
}

// PointInCircle reports whether p is within radius of center.
func PointInCircle(p, center types.Point, radius float64) bool {
	return Distance(p, center) <= radius
}

// StrokeHit reports whether any point of the stroke lies within eraserWidth of
// any point of the eraser path. This is the whole-object deletion policy: a
// single hit marks the entire stroke for removal.
func StrokeHit(strokePoints, eraserPath []types.Point, eraserWidth float64) bool {
	for _, sp := range strokePoints {
		for _, ep := range eraserPath {
			if Distance(sp, ep) <= eraserWidth {
				return true
			}
		}
	}
	return false
}

// CutStroke splits a stroke's point list into the runs of points that survive
// the eraser path, dropping every point within eraserWidth of it. It is the
// segment-cutting alternative to whole-object deletion and is not used by the
// event dispatcher; callers wanting partial erase can rebuild strokes from the
// returned runs.
func CutStroke(strokePoints, eraserPath []types.Point, eraserWidth float64) [][]types.Point {
	if len(strokePoints) == 0 || len(eraserPath) == 0 {
		return [][]types.Point{strokePoints}
	}

	var segments [][]types.Point
	var current []types.Point

	for _, sp := range strokePoints {
		erased := false
		for _, ep := range eraserPath {
			if Distance(sp, ep) <= eraserWidth {
				erased = true
				break
			}
		}

		if erased {
			if len(current) > 0 {
				segments = append(segments, current)
				current = nil
			}
			continue
		}
		current = append(current, sp)
	}

	if len(current) > 0 {
		segments = append(segments, current)
	}

	return segments
}
