package gap

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/types/position"
)

const frame = 1.0 / 30

func sequence(ps ...position.Position) []position.Reconstructed {
	out := make([]position.Reconstructed, len(ps))
	for i, p := range ps {
		out[i] = position.FromSource(p, i)
	}
	return out
}

func defaultInterpolator() *Interpolator {
	return NewInterpolator(params.DefaultPipelineConfig().Sanitized())
}

func originals(rs []position.Reconstructed) []position.Reconstructed {
	var out []position.Reconstructed
	for _, r := range rs {
		if !r.IsInterpolated {
			out = append(out, r)
		}
	}
	return out
}

func TestApply_BridgesGap(t *testing.T) {
	in := sequence(
		position.Position{Timestamp: 0, X: 0.2, Y: 0.3},
		position.Position{Timestamp: 0.2, X: 0.5, Y: 0.6},
	)
	out, inserted := defaultInterpolator().Apply(in)
	if inserted != 5 {
		t.Fatalf("inserted = %d, want 5", inserted)
	}
	if len(out) != 7 {
		t.Fatalf("len(out) = %d, want 7", len(out))
	}
	for i, r := range out[1:6] {
		if !r.IsInterpolated {
			t.Errorf("out[%d] not tagged as interpolated", i+1)
		}
		if r.SourceIndex != nil {
			t.Errorf("out[%d] has a source index", i+1)
		}
		if !(r.Timestamp > 0 && r.Timestamp < 0.2) {
			t.Errorf("out[%d].Timestamp = %v, want strictly inside the gap", i+1, r.Timestamp)
		}
	}

	// With no outer context the spline is symmetric, so the middle sample is the midpoint.
	mid := out[3]
	if math.Abs(mid.X-0.35) > 1e-9 || math.Abs(mid.Y-0.45) > 1e-9 || math.Abs(mid.Timestamp-0.1) > 1e-9 {
		t.Errorf("middle sample = %+v, want (0.1, 0.35, 0.45)", mid.Position)
	}
}

func TestApply_DoesNotBridgeDiscontinuity(t *testing.T) {
	in := sequence(
		position.Position{Timestamp: 0, X: 0.2, Y: 0.3},
		position.Position{Timestamp: 1.0, X: 0.5, Y: 0.6},
	)
	out, inserted := defaultInterpolator().Apply(in)
	if inserted != 0 {
		t.Errorf("inserted = %d, want 0", inserted)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_NormalSpacing(t *testing.T) {
	in := sequence(
		position.Position{Timestamp: 0, X: 0.1, Y: 0.1},
		position.Position{Timestamp: frame, X: 0.11, Y: 0.1},
		position.Position{Timestamp: 2 * frame, X: 0.12, Y: 0.1},
		position.Position{Timestamp: 4 * frame, X: 0.14, Y: 0.1},
	)
	_, inserted := defaultInterpolator().Apply(in)
	if inserted != 0 {
		t.Errorf("inserted = %d, want 0", inserted)
	}
}

func TestApply_PassthroughAndOrder(t *testing.T) {
	in := sequence(
		position.Position{Timestamp: 0, X: 0.1, Y: 0.1},
		position.Position{Timestamp: frame, X: 0.12, Y: 0.11},
		position.Position{Timestamp: 5 * frame, X: 0.2, Y: 0.15},
		position.Position{Timestamp: 6 * frame, X: 0.22, Y: 0.16},
		position.Position{Timestamp: 2, X: 0.9, Y: 0.9},
		position.Position{Timestamp: 2 + 3*frame, X: 0.95, Y: 0.95},
	)
	out, inserted := defaultInterpolator().Apply(in)
	if want := 3 + 2; inserted != want {
		t.Errorf("inserted = %d, want %d", inserted, want)
	}
	if len(out) != len(in)+inserted {
		t.Errorf("len(out) = %d, want %d", len(out), len(in)+inserted)
	}
	if diff := cmp.Diff(in, originals(out)); diff != "" {
		t.Errorf("passthrough mismatch (-want +got):\n%s", diff)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Timestamp < out[i-1].Timestamp {
			t.Fatalf("timestamps decrease at %d", i)
		}
	}
	for i, r := range out {
		if r.X < 0 || r.X > 1 || r.Y < 0 || r.Y > 1 {
			t.Errorf("out[%d] = %+v left the frame", i, r.Position)
		}
	}
}

func TestApply_Degenerate(t *testing.T) {
	ip := defaultInterpolator()
	for n := 0; n < 2; n++ {
		in := sequence(make([]position.Position, n)...)
		out, inserted := ip.Apply(in)
		if inserted != 0 || len(out) != n {
			t.Errorf("n=%d: inserted=%d len=%d", n, inserted, len(out))
		}
	}

	c := params.DefaultPipelineConfig()
	c.FPS = 0
	ip = NewInterpolator(c)
	in := sequence(
		position.Position{Timestamp: 0, X: 0.2, Y: 0.3},
		position.Position{Timestamp: 0.2, X: 0.5, Y: 0.6},
	)
	if _, inserted := ip.Apply(in); inserted != 0 {
		t.Errorf("fps=0: inserted = %d, want 0", inserted)
	}
}

func TestMissing(t *testing.T) {
	ip := defaultInterpolator()
	cases := []struct {
		dt   float64
		want int
	}{
		{frame, 0},
		{2 * frame, 0},
		{3 * frame, 2},
		{0.2, 5},
		{0.5, 14},
		{0.51, 0},
		{-1, 0},
	}
	for _, c := range cases {
		if got := ip.Missing(c.dt); got != c.want {
			t.Errorf("Missing(%v) = %d, want %d", c.dt, got, c.want)
		}
	}
}
