package position

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/tidwall/gjson"
)

var ErrMalformed = errors.New("malformed position")

// Position is a single ball observation reported by the tracker.
// X and Y are normalized image-plane coordinates, nominally within [0,1].
// Timestamp is in seconds, relative to any fixed origin (usually the start of the video).
type Position struct {
	Timestamp float64 `json:"timestamp"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// Point returns the position as a planar orb.Point.
func (p Position) Point() orb.Point {
	return orb.Point{p.X, p.Y}
}

// IsValid reports whether all fields are finite numbers.
// Out-of-frame (but finite) coordinates are valid; the tracker is allowed to extrapolate.
func (p Position) IsValid() bool {
	return isFinite(p.Timestamp) && isFinite(p.X) && isFinite(p.Y)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// UnmarshalJSON is a tolerant unmarshaler for Position.
// A missing, null or non-numeric field decodes as NaN, so the point is later dropped
// by validation instead of failing the whole input or landing at the image origin.
// Only malformed JSON or a non-object is an error.
func (p *Position) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return ErrMalformed
	}
	obj := gjson.ParseBytes(data)
	if !obj.IsObject() {
		return fmt.Errorf("%w: %s is not an object", ErrMalformed, obj.Type)
	}
	number := func(key string) float64 {
		v := obj.Get(key)
		if v.Type != gjson.Number {
			return math.NaN()
		}
		return v.Float()
	}
	p.Timestamp = number("timestamp")
	p.X = number("x")
	p.Y = number("y")
	return nil
}

// Reconstructed is a position in a reconstructed trajectory.
// SourceIndex references the observation's index in the original input;
// it is nil for samples synthesized by gap interpolation.
type Reconstructed struct {
	Position
	IsInterpolated bool `json:"isInterpolated"`
	SourceIndex    *int `json:"sourceIndex,omitempty"`
}

// UnmarshalJSON shadows the promoted Position.UnmarshalJSON,
// which would otherwise drop the provenance fields.
func (r *Reconstructed) UnmarshalJSON(data []byte) error {
	if err := r.Position.UnmarshalJSON(data); err != nil {
		return err
	}
	aux := struct {
		IsInterpolated bool `json:"isInterpolated"`
		SourceIndex    *int `json:"sourceIndex"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.IsInterpolated = aux.IsInterpolated
	r.SourceIndex = aux.SourceIndex
	return nil
}

// FromSource wraps an original observation at input index i.
func FromSource(p Position, i int) Reconstructed {
	idx := i
	return Reconstructed{Position: p, SourceIndex: &idx}
}

// Synthesized wraps an interpolated sample.
func Synthesized(p Position) Reconstructed {
	return Reconstructed{Position: p, IsInterpolated: true}
}

// WithXY returns a copy of r with its coordinates replaced.
// Timestamp and provenance pass through untouched.
func (r Reconstructed) WithXY(x, y float64) Reconstructed {
	out := r
	out.X, out.Y = x, y
	return out
}

// Positions unwraps the plain positions of a reconstructed sequence.
func Positions(rs []Reconstructed) []Position {
	out := make([]Position, len(rs))
	for i := range rs {
		out[i] = rs[i].Position
	}
	return out
}

// Sanitize drops invalid observations and returns the rest, stably sorted by timestamp,
// tagged with their index in the input. The input slice is not modified.
func Sanitize(in []Position) (out []Reconstructed, dropped int) {
	out = make([]Reconstructed, 0, len(in))
	for i, p := range in {
		if !p.IsValid() {
			dropped++
			continue
		}
		out = append(out, FromSource(p, i))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out, dropped
}

// IsChronological reports whether the sequence is sorted ascending by timestamp.
func IsChronological(rs []Reconstructed) bool {
	return sort.SliceIsSorted(rs, func(i, j int) bool {
		return rs[i].Timestamp < rs[j].Timestamp
	})
}
