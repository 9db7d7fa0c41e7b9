package outlier

import (
	"fmt"

	"github.com/rotblauer/trajd/geo/kinematics"
	"github.com/rotblauer/trajd/params"
)

// Detectors returns the standard detector set configured from c.
func Detectors(c *params.PipelineConfig) []Detector {
	oc := c.Outlier
	return []Detector{
		&FrameVelocity{MaxVelocity: c.MaxVelocity},
		&WindowVelocity{Steps: 2, MaxVelocity: c.MaxVelocity * oc.Window3VelocityFactor},
		&WindowVelocity{Steps: 4, MaxVelocity: c.MaxVelocity * oc.Window5VelocityFactor},
		&SharpTurn{MaxAngle: oc.SharpTurnAngle, MinSegment: oc.SharpTurnMinSegment},
		&PingPong{Ratio: oc.PingPongRatio, MinDistance: oc.PingPongMinDistance},
		&SustainedDeviation{
			MinWindow: oc.DeviationMinWindow,
			Distance:  oc.DeviationDistance,
			Interval:  oc.DeviationInterval,
		},
		&AdaptiveDistance{
			BaseDistance:   oc.AdaptiveBaseDistance,
			VelocityFactor: oc.AdaptiveVelocityFactor,
			MaxDistance:    oc.AdaptiveMaxDistance,
			History:        oc.AdaptiveHistory,
		},
	}
}

// FrameVelocity flags both ends of any adjacent pair moving faster than MaxVelocity.
type FrameVelocity struct {
	MaxVelocity float64
}

func (d *FrameVelocity) Name() string { return "frame-velocity" }

func (d *FrameVelocity) Flag(tab *kinematics.Table) IndexSet {
	out := IndexSet{}
	for i := 0; i+1 < tab.Len(); i++ {
		if tab.StepVelocity(i) > d.MaxVelocity {
			out[i] = struct{}{}
			out[i+1] = struct{}{}
		}
	}
	return out
}

// WindowVelocity flags the intermediate points of any span of Steps steps
// whose average path speed exceeds MaxVelocity.
// A single bad frame inflates the path length of every window containing it,
// even when each step on its own is borderline.
type WindowVelocity struct {
	Steps       int
	MaxVelocity float64
}

func (d *WindowVelocity) Name() string { return fmt.Sprintf("window%d-velocity", d.Steps+1) }

func (d *WindowVelocity) Flag(tab *kinematics.Table) IndexSet {
	out := IndexSet{}
	if d.Steps < 2 {
		return out
	}
	for i := 0; i+d.Steps < tab.Len(); i++ {
		if tab.WindowVelocity(i, i+d.Steps) > d.MaxVelocity {
			for j := i + 1; j < i+d.Steps; j++ {
				out[j] = struct{}{}
			}
		}
	}
	return out
}

// SharpTurn flags interior points where the trajectory turns by more than MaxAngle
// degrees and both adjoining segments are longer than MinSegment.
type SharpTurn struct {
	MaxAngle   float64
	MinSegment float64
}

func (d *SharpTurn) Name() string { return "sharp-turn" }

func (d *SharpTurn) Flag(tab *kinematics.Table) IndexSet {
	out := IndexSet{}
	for i := 1; i+1 < tab.Len(); i++ {
		if tab.Turn(i) > d.MaxAngle &&
			tab.Step(i-1) > d.MinSegment &&
			tab.Step(i) > d.MinSegment {
			out[i] = struct{}{}
		}
	}
	return out
}

// PingPong flags a point that jumped away from its predecessor but landed
// back near where the sequence was two frames earlier.
// The flag lands on the returning point; the excursion itself is caught
// by the velocity and turn detectors.
type PingPong struct {
	Ratio       float64
	MinDistance float64
}

func (d *PingPong) Name() string { return "ping-pong" }

func (d *PingPong) Flag(tab *kinematics.Table) IndexSet {
	out := IndexSet{}
	for i := 2; i < tab.Len(); i++ {
		oneBack := tab.Step(i - 1)
		if oneBack <= d.MinDistance {
			continue
		}
		twoBack := kinematics.Distance(tab.At(i), tab.At(i-2))
		if twoBack < d.Ratio*oneBack {
			out[i] = struct{}{}
		}
	}
	return out
}

// SustainedDeviation catches multi-frame excursions that no single-step test sees.
// For each window of at least MinWindow points, the midpoint of the first two points
// anchors the window. If one of the next two to four points lies farther than Distance
// from the anchor within Interval seconds of the window start, every index after the
// window start up to and including the deviating point is flagged.
type SustainedDeviation struct {
	MinWindow int
	Distance  float64
	Interval  float64
}

func (d *SustainedDeviation) Name() string { return "sustained-deviation" }

func (d *SustainedDeviation) Flag(tab *kinematics.Table) IndexSet {
	out := IndexSet{}
	for i := 0; i+d.MinWindow <= tab.Len(); i++ {
		anchor := kinematics.Midpoint(tab.At(i), tab.At(i+1))
		for k := i + 2; k <= i+4 && k < i+d.MinWindow; k++ {
			if tab.Span(i, k) > d.Interval {
				break
			}
			if kinematics.Distance(tab.At(k), anchor) > d.Distance {
				for j := i + 1; j <= k; j++ {
					out[j] = struct{}{}
				}
				break
			}
		}
	}
	return out
}

// AdaptiveDistance flags both ends of a step longer than a ceiling that grows
// with the recent speed of the ball: a ball already moving fast may legitimately
// cover more ground per frame than one at rest.
type AdaptiveDistance struct {
	BaseDistance   float64
	VelocityFactor float64
	MaxDistance    float64
	History        int
}

func (d *AdaptiveDistance) Name() string { return "adaptive-distance" }

func (d *AdaptiveDistance) Flag(tab *kinematics.Table) IndexSet {
	out := IndexSet{}
	for i := 0; i+1 < tab.Len(); i++ {
		local := tab.LocalVelocity(i, d.History)
		ceiling := kinematics.Clamp(d.BaseDistance+local*d.VelocityFactor, d.BaseDistance, d.MaxDistance)
		if tab.Step(i) > ceiling {
			out[i] = struct{}{}
			out[i+1] = struct{}{}
		}
	}
	return out
}
