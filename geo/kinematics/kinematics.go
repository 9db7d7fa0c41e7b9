/*
Package kinematics holds the planar geometry and motion primitives shared by the
trajectory reconstruction stages.
*/
package kinematics

import (
	"math"

	"github.com/paulmach/orb/planar"
	"github.com/rotblauer/trajd/types/position"
)

// DefaultTension is the Catmull-Rom tangent scale.
const DefaultTension = 0.5

// Distance is the Euclidean distance between two positions in normalized image units.
func Distance(a, b position.Position) float64 {
	return planar.Distance(a.Point(), b.Point())
}

// Velocity is the speed implied by moving from a to b, in units per second.
// Non-monotonic or duplicate timestamps yield 0.
func Velocity(a, b position.Position) float64 {
	dt := b.Timestamp - a.Timestamp
	if dt <= 0 {
		return 0
	}
	return Distance(a, b) / dt
}

// Lerp linearly interpolates all fields of a and b at parameter t.
func Lerp(a, b position.Position, t float64) position.Position {
	return position.Position{
		Timestamp: a.Timestamp + (b.Timestamp-a.Timestamp)*t,
		X:         a.X + (b.X-a.X)*t,
		Y:         a.Y + (b.Y-a.Y)*t,
	}
}

// Midpoint is Lerp at one half.
func Midpoint(a, b position.Position) position.Position {
	return Lerp(a, b, 0.5)
}

// CatmullRom interpolates between p1 and p2 at parameter t in [0,1],
// using p0 and p3 only to shape the tangents at p1 and p2.
// The timestamp is interpolated linearly between p1 and p2.
// At sequence boundaries callers pass the nearest endpoint as its own neighbor
// (p0 == p1, or p3 == p2), which flattens the tangent at that end.
func CatmullRom(p0, p1, p2, p3 position.Position, t, tension float64) position.Position {
	t2 := t * t
	t3 := t2 * t

	// Hermite basis.
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2

	hermite := func(v0, v1, v2, v3 float64) float64 {
		m1 := tension * (v2 - v0)
		m2 := tension * (v3 - v1)
		return h00*v1 + h10*m1 + h01*v2 + h11*m2
	}

	return position.Position{
		Timestamp: p1.Timestamp + (p2.Timestamp-p1.Timestamp)*t,
		X:         hermite(p0.X, p1.X, p2.X, p3.X),
		Y:         hermite(p0.Y, p1.Y, p2.Y, p3.Y),
	}
}

// SplineContext returns the four control points for the span ps[i]..ps[i+1],
// substituting the span's own endpoints where a neighbor is missing.
func SplineContext(ps []position.Position, i int) (p0, p1, p2, p3 position.Position) {
	p1, p2 = ps[i], ps[i+1]
	p0, p3 = p1, p2
	if i > 0 {
		p0 = ps[i-1]
	}
	if i+2 < len(ps) {
		p3 = ps[i+2]
	}
	return
}

// TurnAngle returns the angle in degrees between the displacement a->b and b->c.
// 0 means straight on, 180 means a full reversal.
// Degenerate (zero-length) segments yield 0.
func TurnAngle(a, b, c position.Position) float64 {
	v1x, v1y := b.X-a.X, b.Y-a.Y
	v2x, v2y := c.X-b.X, c.Y-b.Y
	n1 := math.Hypot(v1x, v1y)
	n2 := math.Hypot(v2x, v2y)
	if n1 == 0 || n2 == 0 {
		return 0
	}
	cos := (v1x*v2x + v1y*v2y) / (n1 * n2)
	// Rounding can push the cosine a hair outside [-1,1].
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
