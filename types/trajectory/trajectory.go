package trajectory

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"
	"github.com/rotblauer/trajd/reconstruct"
	"github.com/rotblauer/trajd/types/position"
)

// Trajectory is a reconstructed, chronologically sorted sequence of ball positions.
type Trajectory []position.Reconstructed

var ErrNoPoints = errors.New("no point features")

// LineString is the path of the trajectory in image-plane coordinates.
func (t Trajectory) LineString() orb.LineString {
	ls := make(orb.LineString, 0, len(t))
	for _, p := range t {
		ls = append(ls, p.Point())
	}
	return ls
}

// Simplified is a Douglas-Peucker simplification of the path with the given tolerance,
// for lightweight overlays. The trajectory is not modified.
func (t Trajectory) Simplified(threshold float64) orb.LineString {
	ls := t.LineString()
	if len(ls) < 3 {
		return ls
	}
	return simplify.DouglasPeucker(threshold).LineString(ls)
}

// ToFeatureCollection renders a reconstruction as GeoJSON:
// the path as one LineString feature carrying the stats,
// followed by one Point feature per sample.
func ToFeatureCollection(res reconstruct.Result) *geojson.FeatureCollection {
	t := Trajectory(res.FilteredPositions)
	fc := geojson.NewFeatureCollection()

	path := geojson.NewFeature(t.LineString())
	path.Properties["originalCount"] = res.Stats.OriginalCount
	path.Properties["removedOutliers"] = res.Stats.RemovedOutliers
	path.Properties["interpolatedPoints"] = res.Stats.InterpolatedPoints
	path.Properties["finalCount"] = res.Stats.FinalCount
	path.Properties["invalidDropped"] = res.Stats.InvalidDropped
	fc.Append(path)

	for _, p := range t {
		f := geojson.NewFeature(p.Point())
		f.Properties["timestamp"] = p.Timestamp
		f.Properties["isInterpolated"] = p.IsInterpolated
		if p.SourceIndex != nil {
			f.Properties["sourceIndex"] = *p.SourceIndex
		}
		fc.Append(f)
	}
	return fc
}

// FromFeatureCollection reads the Point features of fc as a trajectory.
// Other geometries are skipped. A Point feature without a numeric timestamp property
// yields a sample with a NaN timestamp, which validation later drops.
func FromFeatureCollection(fc *geojson.FeatureCollection) (Trajectory, error) {
	var out Trajectory
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		p := position.Reconstructed{
			Position: position.Position{
				Timestamp: f.Properties.MustFloat64("timestamp", nan),
				X:         pt.X(),
				Y:         pt.Y(),
			},
			IsInterpolated: f.Properties.MustBool("isInterpolated", false),
		}
		if _, ok := f.Properties["sourceIndex"]; ok {
			idx := f.Properties.MustInt("sourceIndex", -1)
			if idx < 0 {
				return nil, fmt.Errorf("feature %d: bad sourceIndex %v", i, f.Properties["sourceIndex"])
			}
			p.SourceIndex = &idx
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, ErrNoPoints
	}
	return out, nil
}
