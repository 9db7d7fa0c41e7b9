// Package smooth suppresses frame-level jitter with a centered, distance-weighted moving average.
package smooth

import (
	"log/slog"

	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/types/position"
)

type Smoother struct {
	// Window is the centered window size, odd and >= 1.
	Window int
	// Falloff scales how quickly a neighbor's weight drops with its distance in frames.
	Falloff float64

	logger *slog.Logger
}

func NewSmoother(c *params.PipelineConfig) *Smoother {
	return &Smoother{
		Window:  c.SmoothingWindow,
		Falloff: params.SmoothingFalloff,
		logger:  slog.With("stage", "smooth"),
	}
}

// Weight is the weight of a neighbor d frames away.
func (s *Smoother) Weight(d int) float64 {
	if d < 0 {
		d = -d
	}
	return 1 / (1 + float64(d)*s.Falloff)
}

// Apply returns a smoothed copy of in. Only X and Y change; timestamps and
// provenance pass through. An unusable window, or a sequence shorter than the
// window, yields an unmodified copy.
func (s *Smoother) Apply(in []position.Reconstructed) []position.Reconstructed {
	out := append([]position.Reconstructed(nil), in...)
	if s.Window < 1 || s.Window%2 == 0 || len(in) < s.Window {
		return out
	}
	half := s.Window / 2
	for i := range in {
		var sumX, sumY, sumW float64
		for j := max(0, i-half); j <= min(len(in)-1, i+half); j++ {
			w := s.Weight(j - i)
			sumX += in[j].X * w
			sumY += in[j].Y * w
			sumW += w
		}
		out[i] = in[i].WithXY(sumX/sumW, sumY/sumW)
	}
	s.logger.Debug("Smoothed", "len", len(in), "window", s.Window)
	return out
}
