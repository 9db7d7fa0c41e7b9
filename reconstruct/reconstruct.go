/*
Package reconstruct turns a raw tracker stream into a smooth, physically plausible trajectory.

The pipeline validates and sorts its input, then runs three stages in a fixed order:

	outlier removal -> gap interpolation -> jitter smoothing

A disabled stage is the identity. Every call is a pure function of its input and config:
nothing is retained between calls and the input slice is never modified.
*/
package reconstruct

import (
	"log/slog"

	"github.com/rotblauer/trajd/geo/gap"
	"github.com/rotblauer/trajd/geo/outlier"
	"github.com/rotblauer/trajd/geo/smooth"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/types/position"
)

// Stats summarizes one reconstruction.
// FinalCount == OriginalCount - RemovedOutliers + InterpolatedPoints always holds.
type Stats struct {
	// OriginalCount is the number of valid input observations.
	OriginalCount int `json:"originalCount"`
	// RemovedOutliers is the number of observations dropped by the outlier filter.
	RemovedOutliers int `json:"removedOutliers"`
	// InterpolatedPoints is the number of samples synthesized in gaps.
	InterpolatedPoints int `json:"interpolatedPoints"`
	// FinalCount is the length of the reconstructed trajectory.
	FinalCount int `json:"finalCount"`
	// InvalidDropped is the number of input observations with non-finite fields.
	// They are not part of OriginalCount.
	InvalidDropped int `json:"invalidDropped"`
}

// Result is the output handed to rendering and statistics consumers.
type Result struct {
	FilteredPositions []position.Reconstructed `json:"filteredPositions"`
	Stats             Stats                    `json:"stats"`
}

// Pipeline is a configured set of stages. It holds no per-call state,
// so one Pipeline may serve concurrent calls.
type Pipeline struct {
	Config *params.PipelineConfig

	filter       *outlier.Filter
	interpolator *gap.Interpolator
	smoother     *smooth.Smoother
	logger       *slog.Logger
}

// NewPipeline builds a pipeline for c. A nil config yields the defaults;
// unusable settings disable their stage.
func NewPipeline(c *params.PipelineConfig) *Pipeline {
	c = c.Sanitized()
	return &Pipeline{
		Config:       c,
		filter:       outlier.NewFilter(c),
		interpolator: gap.NewInterpolator(c),
		smoother:     smooth.NewSmoother(c),
		logger:       slog.With("d", "reconstruct"),
	}
}

// Reconstruct runs a pipeline configured by c over in.
func Reconstruct(in []position.Position, c *params.PipelineConfig) Result {
	return NewPipeline(c).Run(in)
}

// Run reconstructs in. It never fails: invalid points are dropped and
// degenerate input passes through.
func (p *Pipeline) Run(in []position.Position) Result {
	seq, invalid := position.Sanitize(in)
	// A single point is counted like any other: OriginalCount = FinalCount = 1, not 0.
	stats := Stats{
		OriginalCount:  len(seq),
		InvalidDropped: invalid,
	}

	if p.Config.RemoveOutliers {
		res := p.filter.Apply(seq)
		seq = res.Kept
		stats.RemovedOutliers = res.Removed
	}
	if p.Config.InterpolateGaps {
		var inserted int
		seq, inserted = p.interpolator.Apply(seq)
		stats.InterpolatedPoints = inserted
	}
	if p.Config.SmoothTrajectory {
		seq = p.smoother.Apply(seq)
	}

	if seq == nil {
		seq = []position.Reconstructed{}
	}
	stats.FinalCount = len(seq)

	p.logger.Debug("Reconstructed trajectory",
		"original", stats.OriginalCount,
		"invalid", stats.InvalidDropped,
		"removed", stats.RemovedOutliers,
		"interpolated", stats.InterpolatedPoints,
		"final", stats.FinalCount)

	return Result{FilteredPositions: seq, Stats: stats}
}
