package kinematics

import (
	"math"
	"testing"

	"github.com/rotblauer/trajd/types/position"
)

const epsilon = 1e-9

func almost(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestDistance(t *testing.T) {
	a := position.Position{X: 0, Y: 0}
	b := position.Position{X: 0.3, Y: 0.4}
	if got := Distance(a, b); !almost(got, 0.5) {
		t.Errorf("Distance = %v, want 0.5", got)
	}
}

func TestVelocity(t *testing.T) {
	cases := []struct {
		name string
		a, b position.Position
		want float64
	}{
		{"forward", position.Position{Timestamp: 0, X: 0, Y: 0}, position.Position{Timestamp: 2, X: 0.3, Y: 0.4}, 0.25},
		{"duplicate timestamp", position.Position{Timestamp: 1, X: 0, Y: 0}, position.Position{Timestamp: 1, X: 0.3, Y: 0.4}, 0},
		{"backwards", position.Position{Timestamp: 2, X: 0, Y: 0}, position.Position{Timestamp: 1, X: 0.3, Y: 0.4}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Velocity(c.a, c.b); !almost(got, c.want) {
				t.Errorf("Velocity = %v, want %v", got, c.want)
			}
		})
	}
}

func TestLerp(t *testing.T) {
	a := position.Position{Timestamp: 0, X: 0, Y: 1}
	b := position.Position{Timestamp: 1, X: 1, Y: 0}
	got := Lerp(a, b, 0.25)
	if !almost(got.Timestamp, 0.25) || !almost(got.X, 0.25) || !almost(got.Y, 0.75) {
		t.Errorf("Lerp = %+v", got)
	}
}

func TestCatmullRom_Endpoints(t *testing.T) {
	p0 := position.Position{Timestamp: 0, X: 0.0, Y: 0.0}
	p1 := position.Position{Timestamp: 1, X: 0.1, Y: 0.2}
	p2 := position.Position{Timestamp: 2, X: 0.4, Y: 0.3}
	p3 := position.Position{Timestamp: 3, X: 0.5, Y: 0.6}

	start := CatmullRom(p0, p1, p2, p3, 0, DefaultTension)
	if start != p1 {
		t.Errorf("t=0 should equal p1, got %+v", start)
	}
	end := CatmullRom(p0, p1, p2, p3, 1, DefaultTension)
	if !almost(end.X, p2.X) || !almost(end.Y, p2.Y) || !almost(end.Timestamp, p2.Timestamp) {
		t.Errorf("t=1 should equal p2, got %+v", end)
	}
}

func TestCatmullRom_CollinearIsLinear(t *testing.T) {
	// Evenly spaced collinear control points make the spline a straight, evenly paced line.
	ps := []position.Position{
		{Timestamp: 0, X: 0.1, Y: 0.1},
		{Timestamp: 1, X: 0.2, Y: 0.2},
		{Timestamp: 2, X: 0.3, Y: 0.3},
		{Timestamp: 3, X: 0.4, Y: 0.4},
	}
	for _, tt := range []float64{0.1, 0.5, 0.9} {
		got := CatmullRom(ps[0], ps[1], ps[2], ps[3], tt, DefaultTension)
		want := Lerp(ps[1], ps[2], tt)
		if !almost(got.X, want.X) || !almost(got.Y, want.Y) {
			t.Errorf("t=%v: got %+v, want %+v", tt, got, want)
		}
	}
}

func TestSplineContext_Boundaries(t *testing.T) {
	ps := []position.Position{
		{Timestamp: 0, X: 0.1},
		{Timestamp: 1, X: 0.2},
	}
	p0, p1, p2, p3 := SplineContext(ps, 0)
	if p0 != p1 || p3 != p2 {
		t.Errorf("expected boundary fallback, got %v %v %v %v", p0, p1, p2, p3)
	}
	mid := CatmullRom(p0, p1, p2, p3, 0.5, DefaultTension)
	if math.IsNaN(mid.X) || math.IsNaN(mid.Y) {
		t.Error("boundary spline produced NaN")
	}
}

func TestTurnAngle(t *testing.T) {
	a := position.Position{X: 0, Y: 0}
	b := position.Position{X: 1, Y: 0}
	cases := []struct {
		name string
		c    position.Position
		want float64
	}{
		{"straight", position.Position{X: 2, Y: 0}, 0},
		{"right angle", position.Position{X: 1, Y: 1}, 90},
		{"reversal", position.Position{X: 0, Y: 0}, 180},
		{"degenerate", b, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := TurnAngle(a, b, c.c); math.Abs(got-c.want) > 1e-6 {
				t.Errorf("TurnAngle = %v, want %v", got, c.want)
			}
		})
	}
}

func TestTable(t *testing.T) {
	ps := []position.Position{
		{Timestamp: 0, X: 0, Y: 0},
		{Timestamp: 1, X: 0.3, Y: 0.4},
		{Timestamp: 2, X: 0.6, Y: 0.8},
		{Timestamp: 2, X: 0.6, Y: 0.9},
	}
	tab := NewTable(ps)
	if tab.Len() != 4 {
		t.Fatalf("Len = %d", tab.Len())
	}
	if !almost(tab.Step(0), 0.5) || !almost(tab.StepVelocity(0), 0.5) {
		t.Errorf("step 0 = %v @ %v", tab.Step(0), tab.StepVelocity(0))
	}
	if tab.StepVelocity(2) != 0 {
		t.Errorf("duplicate timestamp velocity = %v, want 0", tab.StepVelocity(2))
	}
	if !almost(tab.PathLength(0, 2), 1.0) {
		t.Errorf("PathLength(0,2) = %v", tab.PathLength(0, 2))
	}
	if !almost(tab.WindowVelocity(0, 2), 0.5) {
		t.Errorf("WindowVelocity(0,2) = %v", tab.WindowVelocity(0, 2))
	}
	if math.Abs(tab.Turn(1)) > 1e-5 {
		t.Errorf("Turn(1) = %v", tab.Turn(1))
	}
	if tab.Turn(0) != 0 || tab.Turn(3) != 0 {
		t.Error("end turns should be 0")
	}
	if tab.LocalVelocity(0, 3) != 0 {
		t.Error("LocalVelocity(0) should be 0")
	}
	if !almost(tab.LocalVelocity(2, 3), 0.5) {
		t.Errorf("LocalVelocity(2,3) = %v", tab.LocalVelocity(2, 3))
	}
}

func TestTable_Degenerate(t *testing.T) {
	for _, ps := range [][]position.Position{nil, {{Timestamp: 1}}} {
		tab := NewTable(ps)
		if tab.Len() != len(ps) {
			t.Errorf("Len = %d, want %d", tab.Len(), len(ps))
		}
	}
}
