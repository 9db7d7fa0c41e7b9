package smooth

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/types/position"
)

const frame = 1.0 / 30

// spiked is five collinear points along y=0.5 with the middle one raised by 0.1.
func spiked() []position.Reconstructed {
	out := make([]position.Reconstructed, 5)
	for i := range out {
		p := position.Position{Timestamp: float64(i) * frame, X: 0.1 + float64(i)*0.01, Y: 0.5}
		if i == 2 {
			p.Y += 0.1
		}
		out[i] = position.FromSource(p, i)
	}
	return out
}

func TestApply_SmoothsSpike(t *testing.T) {
	in := spiked()
	out := NewSmoother(params.DefaultPipelineConfig()).Apply(in)

	// (0.6 + 2*(0.5/1.5)) / (1 + 2/1.5)
	want := 0.6*3/7 + 0.5*4/7
	if math.Abs(out[2].Y-want) > 1e-9 {
		t.Errorf("spike y = %v, want %v", out[2].Y, want)
	}
	if !(out[2].Y < in[2].Y) {
		t.Errorf("spike did not move toward its neighbors")
	}
	for _, i := range []int{0, 4} {
		if math.Abs(out[i].Y-in[i].Y) > 1e-12 {
			t.Errorf("endpoint %d y moved: %v -> %v", i, in[i].Y, out[i].Y)
		}
		if math.Abs(out[i].X-in[i].X) > 0.005 {
			t.Errorf("endpoint %d x moved too far: %v -> %v", i, in[i].X, out[i].X)
		}
	}
	if in[2].Y != 0.6 {
		t.Error("input was modified")
	}
}

func TestApply_PreservesTimestampsAndProvenance(t *testing.T) {
	in := spiked()
	in[3] = position.Synthesized(in[3].Position)
	out := NewSmoother(&params.PipelineConfig{SmoothingWindow: 5}).Apply(in)
	for i := range in {
		if out[i].Timestamp != in[i].Timestamp {
			t.Errorf("out[%d].Timestamp = %v, want %v", i, out[i].Timestamp, in[i].Timestamp)
		}
		if out[i].IsInterpolated != in[i].IsInterpolated {
			t.Errorf("out[%d].IsInterpolated changed", i)
		}
		if diff := cmp.Diff(in[i].SourceIndex, out[i].SourceIndex); diff != "" {
			t.Errorf("out[%d].SourceIndex mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestApply_Noop(t *testing.T) {
	in := spiked()
	cases := []struct {
		name   string
		window int
		in     []position.Reconstructed
	}{
		{"even window", 4, in},
		{"zero window", 0, in},
		{"negative window", -3, in},
		{"window of one", 1, in},
		{"shorter than window", 7, in},
		{"empty", 3, nil},
		{"single", 3, in[:1]},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := NewSmoother(params.DefaultPipelineConfig())
			s.Window = c.window
			got := s.Apply(c.in)
			if len(c.in) == 0 {
				if len(got) != 0 {
					t.Errorf("len = %d, want 0", len(got))
				}
				return
			}
			if diff := cmp.Diff(c.in, got); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWeight(t *testing.T) {
	s := NewSmoother(params.DefaultPipelineConfig())
	for d, want := range map[int]float64{0: 1, 1: 1 / 1.5, -1: 1 / 1.5, 2: 0.5} {
		if got := s.Weight(d); math.Abs(got-want) > 1e-12 {
			t.Errorf("Weight(%d) = %v, want %v", d, got, want)
		}
	}
}
