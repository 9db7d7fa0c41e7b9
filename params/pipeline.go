package params

import "math"

// PipelineConfig configures trajectory reconstruction.
// All fields are optional on the wire; decode over DefaultPipelineConfig()
// to leave omitted fields at their defaults.
type PipelineConfig struct {
	// RemoveOutliers enables the outlier filter stage.
	RemoveOutliers bool `json:"removeOutliers" mapstructure:"remove-outliers"`

	// MaxVelocity is the fastest plausible ball speed, in normalized units per second.
	MaxVelocity float64 `json:"maxVelocity" mapstructure:"max-velocity"`

	// InterpolateGaps enables the gap interpolation stage.
	InterpolateGaps bool `json:"interpolateGaps" mapstructure:"interpolate-gaps"`

	// MaxGapDuration is the longest gap, in seconds, that will be bridged.
	// Longer gaps are discontinuities, eg. the ball left the frame.
	MaxGapDuration float64 `json:"maxGapDuration" mapstructure:"max-gap-duration"`

	// SmoothTrajectory enables the jitter smoothing stage.
	SmoothTrajectory bool `json:"smoothTrajectory" mapstructure:"smooth-trajectory"`

	// SmoothingWindow is the centered smoothing window size. Must be odd and >= 1.
	SmoothingWindow int `json:"smoothingWindow" mapstructure:"smoothing-window"`

	// FPS is the nominal tracker frame rate. The frame interval is 1/FPS.
	FPS float64 `json:"fps" mapstructure:"fps"`

	// Outlier holds the outlier detector thresholds.
	// These were chosen empirically and want recalibration against ground truth trajectories.
	Outlier OutlierConfig `json:"outlier" mapstructure:"outlier"`
}

// OutlierConfig holds the thresholds of the outlier detectors and repair pass.
// Distances are in normalized image units, durations in seconds.
type OutlierConfig struct {
	// Window3VelocityFactor scales MaxVelocity for the 3-frame window velocity detector.
	Window3VelocityFactor float64 `json:"window3VelocityFactor" mapstructure:"window3-velocity-factor"`

	// Window5VelocityFactor scales MaxVelocity for the 5-frame window velocity detector.
	Window5VelocityFactor float64 `json:"window5VelocityFactor" mapstructure:"window5-velocity-factor"`

	// SharpTurnAngle is the turn angle, in degrees, above which a point is a suspicious reversal.
	SharpTurnAngle float64 `json:"sharpTurnAngle" mapstructure:"sharp-turn-angle"`

	// SharpTurnMinSegment is the minimum length of both segments around a sharp turn.
	// Shorter segments are jitter, not reversals.
	SharpTurnMinSegment float64 `json:"sharpTurnMinSegment" mapstructure:"sharp-turn-min-segment"`

	// PingPongRatio flags a point that returns to within this fraction of its last jump
	// of where it was two frames ago.
	PingPongRatio float64 `json:"pingPongRatio" mapstructure:"ping-pong-ratio"`

	// PingPongMinDistance is the minimum one-frame jump for the ping-pong detector.
	PingPongMinDistance float64 `json:"pingPongMinDistance" mapstructure:"ping-pong-min-distance"`

	// DeviationMinWindow is the minimum number of points in a sustained deviation window.
	DeviationMinWindow int `json:"deviationMinWindow" mapstructure:"deviation-min-window"`

	// DeviationDistance is the distance from the window anchor that counts as a deviation.
	DeviationDistance float64 `json:"deviationDistance" mapstructure:"deviation-distance"`

	// DeviationInterval bounds the time from window start within which a deviation counts.
	DeviationInterval float64 `json:"deviationInterval" mapstructure:"deviation-interval"`

	// AdaptiveBaseDistance is the floor of the velocity-adaptive per-frame distance ceiling.
	AdaptiveBaseDistance float64 `json:"adaptiveBaseDistance" mapstructure:"adaptive-base-distance"`

	// AdaptiveVelocityFactor scales local velocity into additional allowed distance.
	AdaptiveVelocityFactor float64 `json:"adaptiveVelocityFactor" mapstructure:"adaptive-velocity-factor"`

	// AdaptiveMaxDistance caps the velocity-adaptive distance ceiling.
	AdaptiveMaxDistance float64 `json:"adaptiveMaxDistance" mapstructure:"adaptive-max-distance"`

	// AdaptiveHistory is the number of prior steps averaged for local velocity.
	AdaptiveHistory int `json:"adaptiveHistory" mapstructure:"adaptive-history"`

	// RepairMidpointRatio keeps a flagged point between two clean neighbors if its distance
	// from their midpoint is under this fraction of the neighbor-to-neighbor distance.
	RepairMidpointRatio float64 `json:"repairMidpointRatio" mapstructure:"repair-midpoint-ratio"`

	// RepairVelocityFactor keeps a flagged point next to one clean neighbor if the speed
	// to that neighbor is under MaxVelocity times this factor.
	RepairVelocityFactor float64 `json:"repairVelocityFactor" mapstructure:"repair-velocity-factor"`
}

// GapIntervalFactor is the multiple of the frame interval beyond which a gap is interpolated.
const GapIntervalFactor = 2.5

// SmoothingFalloff is the per-frame weight falloff of the smoother: w(d) = 1/(1+d*falloff).
const SmoothingFalloff = 0.5

func DefaultOutlierConfig() OutlierConfig {
	return OutlierConfig{
		Window3VelocityFactor:  1.2,
		Window5VelocityFactor:  1.5,
		SharpTurnAngle:         90,
		SharpTurnMinSegment:    0.02,
		PingPongRatio:          0.3,
		PingPongMinDistance:    0.05,
		DeviationMinWindow:     6,
		DeviationDistance:      0.15,
		DeviationInterval:      0.15,
		AdaptiveBaseDistance:   0.03,
		AdaptiveVelocityFactor: 0.08,
		AdaptiveMaxDistance:    0.12,
		AdaptiveHistory:        3,
		RepairMidpointRatio:    0.4,
		RepairVelocityFactor:   0.5,
	}
}

func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		RemoveOutliers:   true,
		MaxVelocity:      0.6,
		InterpolateGaps:  true,
		MaxGapDuration:   0.5,
		SmoothTrajectory: true,
		SmoothingWindow:  3,
		FPS:              30,
		Outlier:          DefaultOutlierConfig(),
	}
}

// FrameInterval is the expected time between samples, 1/FPS.
// It is 0 when FPS is unusable.
func (c *PipelineConfig) FrameInterval() float64 {
	if !(c.FPS > 0) || math.IsInf(c.FPS, 0) {
		return 0
	}
	return 1 / c.FPS
}

// Sanitized returns a copy of c with out-of-range values clamped to something usable.
// Nothing is rejected: a setting that cannot be honored turns its stage into a no-op.
// A nil config yields the defaults.
func (c *PipelineConfig) Sanitized() *PipelineConfig {
	if c == nil {
		return DefaultPipelineConfig()
	}
	out := *c
	def := DefaultPipelineConfig()

	if !usable(out.MaxVelocity) {
		out.MaxVelocity = def.MaxVelocity
	}
	if !usable(out.MaxGapDuration) || out.FrameInterval() == 0 {
		out.InterpolateGaps = false
	}
	if out.SmoothingWindow < 1 || out.SmoothingWindow%2 == 0 {
		out.SmoothTrajectory = false
	}
	out.Outlier = out.Outlier.sanitized()
	return &out
}

// sanitized replaces unusable thresholds with their defaults.
// Zero counts as unset for every threshold but SharpTurnAngle, so a config
// that leaves Outlier out entirely filters exactly like the defaults.
func (c OutlierConfig) sanitized() OutlierConfig {
	def := DefaultOutlierConfig()
	if c == (OutlierConfig{}) {
		return def
	}
	pick := func(v, d float64) float64 {
		if !usable(v) {
			return d
		}
		return v
	}
	c.Window3VelocityFactor = pick(c.Window3VelocityFactor, def.Window3VelocityFactor)
	c.Window5VelocityFactor = pick(c.Window5VelocityFactor, def.Window5VelocityFactor)
	if math.IsNaN(c.SharpTurnAngle) || math.IsInf(c.SharpTurnAngle, 0) || c.SharpTurnAngle < 0 {
		c.SharpTurnAngle = def.SharpTurnAngle
	}
	c.SharpTurnMinSegment = pick(c.SharpTurnMinSegment, def.SharpTurnMinSegment)
	c.PingPongRatio = pick(c.PingPongRatio, def.PingPongRatio)
	c.PingPongMinDistance = pick(c.PingPongMinDistance, def.PingPongMinDistance)
	c.DeviationDistance = pick(c.DeviationDistance, def.DeviationDistance)
	c.DeviationInterval = pick(c.DeviationInterval, def.DeviationInterval)
	c.AdaptiveBaseDistance = pick(c.AdaptiveBaseDistance, def.AdaptiveBaseDistance)
	c.AdaptiveVelocityFactor = pick(c.AdaptiveVelocityFactor, def.AdaptiveVelocityFactor)
	c.AdaptiveMaxDistance = pick(c.AdaptiveMaxDistance, def.AdaptiveMaxDistance)
	c.RepairMidpointRatio = pick(c.RepairMidpointRatio, def.RepairMidpointRatio)
	c.RepairVelocityFactor = pick(c.RepairVelocityFactor, def.RepairVelocityFactor)
	if c.DeviationMinWindow < 3 {
		c.DeviationMinWindow = def.DeviationMinWindow
	}
	if c.AdaptiveHistory < 1 {
		c.AdaptiveHistory = def.AdaptiveHistory
	}
	if c.AdaptiveMaxDistance < c.AdaptiveBaseDistance {
		c.AdaptiveMaxDistance = c.AdaptiveBaseDistance
	}
	return c
}

func usable(f float64) bool {
	return f > 0 && !math.IsInf(f, 0)
}
