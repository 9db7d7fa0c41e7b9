package metrics

import (
	"testing"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/trajd/reconstruct"
)

func TestPipeline_Observe(t *testing.T) {
	reg := metrics.NewRegistry()
	p := NewPipeline(reg)
	p.Observe(reconstruct.Stats{OriginalCount: 10, RemovedOutliers: 2, InterpolatedPoints: 3, FinalCount: 11, InvalidDropped: 1}, false)
	p.Observe(reconstruct.Stats{OriginalCount: 10, RemovedOutliers: 2, InterpolatedPoints: 3, FinalCount: 11, InvalidDropped: 1}, true)

	got := p.Totals()
	want := Totals{Runs: 2, CacheHits: 1, Original: 20, Invalid: 2, Removed: 4, Interpolated: 6, Final: 22}
	got.PointsRate1 = 0
	if got != want {
		t.Errorf("Totals = %+v, want %+v", got, want)
	}
	if v := p.Points.Snapshot().Count(); v != 20 {
		t.Errorf("points meter count = %d, want 20", v)
	}

	n := 0
	reg.Each(func(string, interface{}) { n++ })
	if n != 8 {
		t.Errorf("registered %d metrics, want 8", n)
	}
}
