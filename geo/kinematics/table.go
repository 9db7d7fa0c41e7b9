package kinematics

import (
	"github.com/rotblauer/trajd/types/position"
)

// Table is a read-only cache of per-index kinematics for one sequence.
// It is built once and shared by every consumer (e.g. outlier detectors),
// so no consumer rescans the sequence to recompute distances, velocities or angles.
type Table struct {
	positions []position.Position

	// steps[i] is the distance from i to i+1.
	steps []float64
	// velocities[i] is the speed from i to i+1.
	velocities []float64
	// turns[i] is the turn angle at interior point i, 0 at the ends.
	turns []float64
	// path[i] is the cumulative path length from 0 to i.
	path []float64
}

// NewTable precomputes the kinematics of ps. ps must not be mutated while the table is in use.
func NewTable(ps []position.Position) *Table {
	n := len(ps)
	t := &Table{
		positions: ps,
		turns:     make([]float64, n),
		path:      make([]float64, n),
	}
	if n > 1 {
		t.steps = make([]float64, n-1)
		t.velocities = make([]float64, n-1)
	}
	for i := 0; i+1 < n; i++ {
		t.steps[i] = Distance(ps[i], ps[i+1])
		t.velocities[i] = Velocity(ps[i], ps[i+1])
		t.path[i+1] = t.path[i] + t.steps[i]
	}
	for i := 1; i+1 < n; i++ {
		t.turns[i] = TurnAngle(ps[i-1], ps[i], ps[i+1])
	}
	return t
}

func (t *Table) Len() int {
	return len(t.positions)
}

func (t *Table) At(i int) position.Position {
	return t.positions[i]
}

// Step is the distance from i to i+1.
func (t *Table) Step(i int) float64 {
	return t.steps[i]
}

// StepVelocity is the speed from i to i+1.
func (t *Table) StepVelocity(i int) float64 {
	return t.velocities[i]
}

// Turn is the turn angle in degrees at interior index i.
func (t *Table) Turn(i int) float64 {
	return t.turns[i]
}

// PathLength is the distance travelled along the sequence from i to j (i <= j).
func (t *Table) PathLength(i, j int) float64 {
	return t.path[j] - t.path[i]
}

// Span is the elapsed time from i to j.
func (t *Table) Span(i, j int) float64 {
	return t.positions[j].Timestamp - t.positions[i].Timestamp
}

// WindowVelocity is the average speed along the path from i to j.
// A non-positive span yields 0, like Velocity.
func (t *Table) WindowVelocity(i, j int) float64 {
	span := t.Span(i, j)
	if span <= 0 {
		return 0
	}
	return t.PathLength(i, j) / span
}

// LocalVelocity is the mean step velocity over up to k steps ending at index i.
// Index 0 has no history and yields 0.
func (t *Table) LocalVelocity(i, k int) float64 {
	sum, n := 0.0, 0
	for j := i - 1; j >= 0 && n < k; j-- {
		sum += t.velocities[j]
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
