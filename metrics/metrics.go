// Package metrics keeps process-wide counters of reconstruction work.
package metrics

import (
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/trajd/reconstruct"
)

// Pipeline counts reconstructions and the points flowing through them.
type Pipeline struct {
	Runs         metrics.Counter
	CacheHits    metrics.Counter
	Original     metrics.Counter
	Invalid      metrics.Counter
	Removed      metrics.Counter
	Interpolated metrics.Counter
	Final        metrics.Counter
	// Points meters original points per second.
	Points metrics.Meter
}

// Default is registered in the go-ethereum default registry.
var Default = NewPipeline(metrics.DefaultRegistry)

// NewPipeline registers a fresh set of pipeline meters in reg.
func NewPipeline(reg metrics.Registry) *Pipeline {
	// Meters constructed while disabled are no-ops.
	metrics.Enabled = true
	return &Pipeline{
		Runs:         metrics.NewRegisteredCounter("reconstruct/runs", reg),
		CacheHits:    metrics.NewRegisteredCounter("reconstruct/cache_hits", reg),
		Original:     metrics.NewRegisteredCounter("reconstruct/points/original", reg),
		Invalid:      metrics.NewRegisteredCounter("reconstruct/points/invalid", reg),
		Removed:      metrics.NewRegisteredCounter("reconstruct/points/removed", reg),
		Interpolated: metrics.NewRegisteredCounter("reconstruct/points/interpolated", reg),
		Final:        metrics.NewRegisteredCounter("reconstruct/points/final", reg),
		Points:       metrics.NewRegisteredMeter("reconstruct/points/rate", reg),
	}
}

// Observe records one reconstruction.
func (p *Pipeline) Observe(s reconstruct.Stats, cached bool) {
	p.Runs.Inc(1)
	if cached {
		p.CacheHits.Inc(1)
	}
	p.Original.Inc(int64(s.OriginalCount))
	p.Invalid.Inc(int64(s.InvalidDropped))
	p.Removed.Inc(int64(s.RemovedOutliers))
	p.Interpolated.Inc(int64(s.InterpolatedPoints))
	p.Final.Inc(int64(s.FinalCount))
	p.Points.Mark(int64(s.OriginalCount))
}

// Totals is a point-in-time copy of the counters.
type Totals struct {
	Runs         int64   `json:"runs"`
	CacheHits    int64   `json:"cacheHits"`
	Original     int64   `json:"original"`
	Invalid      int64   `json:"invalid"`
	Removed      int64   `json:"removed"`
	Interpolated int64   `json:"interpolated"`
	Final        int64   `json:"final"`
	PointsRate1  float64 `json:"pointsRate1"`
}

func (p *Pipeline) Totals() Totals {
	return Totals{
		Runs:         p.Runs.Snapshot().Count(),
		CacheHits:    p.CacheHits.Snapshot().Count(),
		Original:     p.Original.Snapshot().Count(),
		Invalid:      p.Invalid.Snapshot().Count(),
		Removed:      p.Removed.Snapshot().Count(),
		Interpolated: p.Interpolated.Snapshot().Count(),
		Final:        p.Final.Snapshot().Count(),
		PointsRate1:  p.Points.Snapshot().Rate1(),
	}
}
