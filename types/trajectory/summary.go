package trajectory

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/rotblauer/trajd/common"
	"github.com/rotblauer/trajd/geo/kinematics"
)

var nan = math.NaN()

// Summary holds kinematic statistics of a trajectory for downstream consumers.
// Distances are in normalized image units, speeds in units per second.
type Summary struct {
	Count             int     `json:"count"`
	Interpolated      int     `json:"interpolated"`
	InterpolatedShare float64 `json:"interpolatedShare"`
	Duration          float64 `json:"duration"`
	PathLength        float64 `json:"pathLength"`
	Displacement      float64 `json:"displacement"`
	SpeedMean         float64 `json:"speedMean"`
	SpeedMedian       float64 `json:"speedMedian"`
	SpeedMax          float64 `json:"speedMax"`
	SpeedP95          float64 `json:"speedP95"`
}

// Summarize computes the summary of t. Empty trajectories summarize to zeros.
func Summarize(t Trajectory) Summary {
	s := Summary{Count: len(t)}
	if len(t) == 0 {
		return s
	}
	for _, p := range t {
		if p.IsInterpolated {
			s.Interpolated++
		}
	}
	s.InterpolatedShare = common.DecimalToFixed(float64(s.Interpolated)/float64(len(t)), 4)

	first, last := t[0], t[len(t)-1]
	s.Duration = last.Timestamp - first.Timestamp
	s.Displacement = kinematics.Distance(first.Position, last.Position)

	speeds := make([]float64, 0, len(t)-1)
	for i := 1; i < len(t); i++ {
		s.PathLength += kinematics.Distance(t[i-1].Position, t[i].Position)
		if t[i].Timestamp > t[i-1].Timestamp {
			speeds = append(speeds, kinematics.Velocity(t[i-1].Position, t[i].Position))
		}
	}

	statsMustFloat := func(fn func() (float64, error)) float64 {
		out, err := fn()
		if err != nil || math.IsNaN(out) {
			return 0
		}
		return out
	}
	data := stats.Float64Data(speeds)
	s.SpeedMean = statsMustFloat(data.Mean)
	s.SpeedMedian = statsMustFloat(data.Median)
	s.SpeedMax = statsMustFloat(data.Max)
	s.SpeedP95 = statsMustFloat(func() (float64, error) {
		return stats.Percentile(data, 95)
	})
	return s
}
