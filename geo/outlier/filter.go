package outlier

import (
	"log/slog"

	"github.com/rotblauer/trajd/geo/kinematics"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/types/position"
)

// MinPoints is the shortest sequence the filter will touch.
const MinPoints = 3

// Filter runs a detector set over a sequence and repairs the union of their flags.
type Filter struct {
	Detectors []Detector

	MaxVelocity          float64
	RepairMidpointRatio  float64
	RepairVelocityFactor float64

	logger *slog.Logger
}

// NewFilter builds the standard filter for a (sanitized) pipeline config.
func NewFilter(c *params.PipelineConfig) *Filter {
	return &Filter{
		Detectors:            Detectors(c),
		MaxVelocity:          c.MaxVelocity,
		RepairMidpointRatio:  c.Outlier.RepairMidpointRatio,
		RepairVelocityFactor: c.Outlier.RepairVelocityFactor,
		logger:               slog.With("stage", "outlier"),
	}
}

// Result is the outcome of filtering one sequence.
type Result struct {
	// Kept is the order-preserving subsequence of surviving input points.
	Kept []position.Reconstructed
	// Removed is the number of dropped points.
	Removed int
	// Passes is the number of flag and repair passes run.
	Passes int
	// Flagged holds the indices (into the input) that any detector flagged in any pass.
	Flagged IndexSet
	// ByDetector holds each detector's own flags, keyed by detector name.
	ByDetector map[string]IndexSet
}

// Flag runs every detector over the table and unions their flags.
func Flag(tab *kinematics.Table, detectors []Detector) (union IndexSet, byDetector map[string]IndexSet) {
	byDetector = make(map[string]IndexSet, len(detectors))
	sets := make([]IndexSet, 0, len(detectors))
	for _, d := range detectors {
		s := d.Flag(tab)
		byDetector[d.Name()] = s
		sets = append(sets, s)
	}
	return Union(sets...), byDetector
}

// Apply filters in, which must be sorted by timestamp. The input is not modified.
// Sequences shorter than MinPoints pass through untouched.
//
// Removing a point changes the kinematics of its neighbors, so flag and repair
// passes repeat over the survivors until a pass removes nothing.
// Filtering the output again therefore removes nothing.
func (f *Filter) Apply(in []position.Reconstructed) Result {
	res := Result{
		Flagged:    IndexSet{},
		ByDetector: map[string]IndexSet{},
	}

	// kept holds indices into in.
	kept := make([]int, len(in))
	for i := range kept {
		kept[i] = i
	}
	for len(kept) >= MinPoints {
		seq := make([]position.Position, len(kept))
		for i, k := range kept {
			seq[i] = in[k].Position
		}
		tab := kinematics.NewTable(seq)
		flagged, byDetector := Flag(tab, f.Detectors)
		res.Passes++

		for i := range flagged {
			res.Flagged[kept[i]] = struct{}{}
		}
		for name, set := range byDetector {
			acc, ok := res.ByDetector[name]
			if !ok {
				acc = IndexSet{}
				res.ByDetector[name] = acc
			}
			for i := range set {
				acc[kept[i]] = struct{}{}
			}
		}

		next := make([]int, 0, len(kept))
		for i, k := range kept {
			if !flagged.Has(i) || f.repairable(tab, flagged, i) {
				next = append(next, k)
			}
		}
		if len(next) == len(kept) {
			break
		}
		kept = next
	}

	res.Kept = make([]position.Reconstructed, len(kept))
	for i, k := range kept {
		res.Kept[i] = in[k]
	}
	res.Removed = len(in) - len(kept)
	if res.Removed > 0 {
		f.logger.Debug("Removed outliers", "in", len(in), "flagged", len(res.Flagged),
			"removed", res.Removed, "passes", res.Passes)
	}
	return res
}

// repairable decides whether flagged index i is kept after all.
//
// With both neighbors clean, i is kept if it sits close to their midpoint:
// the flag was probably collateral from genuinely fast, straight motion.
// With exactly one clean neighbor, i is kept if the step to it is slow.
// With no clean neighbor, the nearest clean point on either side stands in for one.
// An endpoint with no clean point anywhere is kept as an anchor; an interior point is not.
func (f *Filter) repairable(tab *kinematics.Table, flagged IndexSet, i int) bool {
	n := tab.Len()
	slow := f.MaxVelocity * f.RepairVelocityFactor

	prevClean := i > 0 && !flagged.Has(i-1)
	nextClean := i < n-1 && !flagged.Has(i+1)
	switch {
	case prevClean && nextClean:
		prev, next := tab.At(i-1), tab.At(i+1)
		deviation := kinematics.Distance(tab.At(i), kinematics.Midpoint(prev, next))
		return deviation < f.RepairMidpointRatio*kinematics.Distance(prev, next)
	case prevClean:
		return pairVelocity(tab, i-1, i) < slow
	case nextClean:
		return pairVelocity(tab, i, i+1) < slow
	}

	j, ok := nearestClean(flagged, n, i)
	if !ok {
		return i == 0 || i == n-1
	}
	return pairVelocity(tab, i, j) < slow
}

// nearestClean returns the unflagged index closest to i, preferring the earlier one on a tie.
func nearestClean(flagged IndexSet, n, i int) (int, bool) {
	for d := 1; i-d >= 0 || i+d < n; d++ {
		if j := i - d; j >= 0 && !flagged.Has(j) {
			return j, true
		}
		if j := i + d; j < n && !flagged.Has(j) {
			return j, true
		}
	}
	return 0, false
}

func pairVelocity(tab *kinematics.Table, i, j int) float64 {
	if j < i {
		i, j = j, i
	}
	return kinematics.Velocity(tab.At(i), tab.At(j))
}
