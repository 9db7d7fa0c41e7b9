/*
Package outlier removes observations that cannot correspond to real ball motion.

Each Detector independently flags suspicious indices of a sequence. The flags are
unioned, and a repair pass decides which flagged points are kept after all.
Passes repeat over the survivors until one removes nothing.
Detectors share one precomputed kinematics.Table and never see each other's output.
*/
package outlier

import (
	"sort"

	"github.com/rotblauer/trajd/geo/kinematics"
)

// IndexSet is a set of sequence indices.
type IndexSet map[int]struct{}

func NewIndexSet(indices ...int) IndexSet {
	s := make(IndexSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

func (s IndexSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Sorted returns the indices in ascending order.
func (s IndexSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Union returns a new set holding every index of every given set.
// The inputs are not modified.
func Union(sets ...IndexSet) IndexSet {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	out := make(IndexSet, n)
	for _, s := range sets {
		for i := range s {
			out[i] = struct{}{}
		}
	}
	return out
}

// Detector flags indices of a sequence that look physically implausible.
type Detector interface {
	// Name identifies the detector in logs and flag reports.
	Name() string
	// Flag returns the suspicious indices. It must not retain or mutate the table.
	Flag(tab *kinematics.Table) IndexSet
}
