package track

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/racekit/race-telemetry-go/pkg/model"
)

const DefaultLength = 5000.0 // meters, used when no profile is given

// LoadProfile reads a track profile from a yaml file. Sector thresholds are
// sorted ascending; values outside (0,1) are rejected.
func LoadProfile(path string) (*model.TrackProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading track profile: %w", err)
	}
	var ret model.TrackProfile
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("parsing track profile: %w", err)
	}
	if ret.Length <= 0 {
		return nil, fmt.Errorf("track profile %s: length must be positive", path)
	}
	for _, s := range ret.Sectors {
		if s <= 0 || s >= 1 {
			return nil, fmt.Errorf("track profile %s: sector threshold %f out of range", path, s)
		}
	}
	slices.Sort(ret.Sectors)
	sort.Slice(ret.IdealLine, func(i, j int) bool {
		return ret.IdealLine[i].Fraction < ret.IdealLine[j].Fraction
	})
	return &ret, nil
}

// DefaultProfile returns a profile with n equally spaced sectors and no
// idealized line.
func DefaultProfile(n int) *model.TrackProfile {
	return &model.TrackProfile{
		Name:    "unknown",
		Length:  DefaultLength,
		Sectors: EvenSectors(n),
	}
}

// SectorThresholds returns the profile's sector boundaries, falling back to
// n evenly spaced sectors when the profile carries none.
func SectorThresholds(p *model.TrackProfile, n int) []float64 {
	if p != nil && len(p.Sectors) > 0 {
		return p.Sectors
	}
	return EvenSectors(n)
}

// EvenSectors splits the lap into n equal distance sectors and returns the
// n-1 inner boundaries.
func EvenSectors(n int) []float64 {
	if n < 2 {
		return []float64{}
	}
	ret := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		ret = append(ret, float64(i)/float64(n))
	}
	return ret
}

// IdealLineFunc builds an interpolation function over the profile's ideal
// line control points. Returns nil when the profile carries no line, so the
// caller can fall back to the steering smoothness heuristic.
func IdealLineFunc(p *model.TrackProfile) func(frac float64) float64 {
	if p == nil || len(p.IdealLine) < 2 {
		return nil
	}
	pts := p.IdealLine
	return func(frac float64) float64 {
		if frac <= pts[0].Fraction {
			return pts[0].Offset
		}
		if frac >= pts[len(pts)-1].Fraction {
			return pts[len(pts)-1].Offset
		}
		idx := sort.Search(len(pts), func(i int) bool {
			return pts[i].Fraction >= frac
		})
		a, b := pts[idx-1], pts[idx]
		span := b.Fraction - a.Fraction
		if span <= 0 {
			return a.Offset
		}
		t := (frac - a.Fraction) / span
		return a.Offset + t*(b.Offset-a.Offset)
	}
}
