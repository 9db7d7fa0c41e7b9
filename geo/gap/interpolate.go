/*
Package gap synthesizes samples where the tracker reported nothing.

Gaps longer than a couple of frames but shorter than the configured maximum are
bridged with a Catmull-Rom spline through the neighboring observations.
Longer gaps are left alone: the ball most likely left the frame.
*/
package gap

import (
	"log/slog"
	"math"

	"github.com/rotblauer/trajd/geo/kinematics"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/types/position"
)

// Interpolator bridges sampling gaps.
type Interpolator struct {
	// FrameInterval is the nominal time between samples.
	FrameInterval float64
	// MaxGap is the longest gap, in seconds, that will be bridged.
	MaxGap float64
	// Tension is the Catmull-Rom tangent scale.
	Tension float64

	logger *slog.Logger
}

func NewInterpolator(c *params.PipelineConfig) *Interpolator {
	return &Interpolator{
		FrameInterval: c.FrameInterval(),
		MaxGap:        c.MaxGapDuration,
		Tension:       kinematics.DefaultTension,
		logger:        slog.With("stage", "gap"),
	}
}

// Missing returns how many samples belong strictly inside a gap of dt seconds,
// or 0 when the gap is normal spacing or a discontinuity.
func (ip *Interpolator) Missing(dt float64) int {
	if !(ip.FrameInterval > 0) || dt <= params.GapIntervalFactor*ip.FrameInterval || dt > ip.MaxGap {
		return 0
	}
	n := int(math.Round(dt/ip.FrameInterval)) - 1
	if n < 0 {
		return 0
	}
	return n
}

// Apply returns in with synthesized samples inserted into each bridgeable gap,
// and the number of samples inserted. in must be sorted by timestamp; it is not modified.
// Every input element appears in the output unchanged and in order.
func (ip *Interpolator) Apply(in []position.Reconstructed) (out []position.Reconstructed, inserted int) {
	if len(in) < 2 {
		return append([]position.Reconstructed(nil), in...), 0
	}

	ps := position.Positions(in)
	out = make([]position.Reconstructed, 0, len(in))
	for i := range in {
		out = append(out, in[i])
		if i+1 == len(in) {
			break
		}
		dt := ps[i+1].Timestamp - ps[i].Timestamp
		n := ip.Missing(dt)
		if n == 0 {
			continue
		}
		p0, p1, p2, p3 := kinematics.SplineContext(ps, i)
		for k := 1; k <= n; k++ {
			t := float64(k) / float64(n+1)
			s := kinematics.CatmullRom(p0, p1, p2, p3, t, ip.Tension)
			// Overshoot never leaves the frame, unless the span itself does.
			s.X = kinematics.Clamp(s.X, math.Min(0, math.Min(p1.X, p2.X)), math.Max(1, math.Max(p1.X, p2.X)))
			s.Y = kinematics.Clamp(s.Y, math.Min(0, math.Min(p1.Y, p2.Y)), math.Max(1, math.Max(p1.Y, p2.Y)))
			out = append(out, position.Synthesized(s))
		}
		inserted += n
	}
	if inserted > 0 {
		ip.logger.Debug("Interpolated gaps", "in", len(in), "inserted", inserted)
	}
	return out, inserted
}
