package spotter

import (
	"math"
	"sort"

	"github.com/racekit/race-telemetry-go/pkg/model"
)

// cars closer than this along the track count as alongside
const alongsideThreshold = 10.0 // meters

// Spot computes the nearby-car entries for the given frame. Distances are
// measured along the track using lap number plus lap distance fraction;
// the wrap-around is resolved to the shortest signed distance. The function
// is pure and keeps no state between frames: a car's track across frames is
// looked up by its identifier, not re-detected.
//
// Cars beyond radius are discarded. The result is sorted ascending by gap,
// ties broken by ascending car identifier. No cars in range yields an empty
// slice, not an error.
func Spot(ego *model.Frame, trackLength, radius, horizon float64) []model.Spot {
	if ego == nil || len(ego.Cars) == 0 {
		return []model.Spot{}
	}
	if trackLength <= 0 {
		trackLength = 1 // degenerate, keeps the math finite
	}
	egoDist := (float64(ego.Lap) + ego.LapDistPct) * trackLength

	ret := make([]model.Spot, 0, len(ego.Cars))
	for i := range ego.Cars {
		car := &ego.Cars[i]
		carDist := (float64(car.Lap) + car.LapDistPct) * trackLength
		relDist := carDist - egoDist
		// shortest signed distance around the loop
		if relDist > trackLength/2 {
			relDist -= trackLength
		} else if relDist < -trackLength/2 {
			relDist += trackLength
		}
		gap := math.Abs(relDist)
		if gap > radius {
			continue
		}
		relSpeed := car.Speed - ego.Speed
		ret = append(ret, model.Spot{
			CarIdx:            car.CarIdx,
			Driver:            car.Driver,
			Distance:          relDist,
			Gap:               gap,
			Speed:             car.Speed,
			RelSpeed:          relSpeed,
			Location:          classify(relDist),
			PredictedDistance: relDist + relSpeed*horizon,
			TimeToConvergence: timeToConvergence(relDist, relSpeed),
		})
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Gap != ret[j].Gap {
			return ret[i].Gap < ret[j].Gap
		}
		return ret[i].CarIdx < ret[j].CarIdx
	})
	return ret
}

func classify(relDist float64) string {
	switch {
	case math.Abs(relDist) <= alongsideThreshold:
		return model.LocationAlongside
	case relDist > 0:
		return model.LocationAhead
	default:
		return model.LocationBehind
	}
}

// timeToConvergence is the closed-form estimate of when the gap reaches
// zero at the current relative speed. 0 when the cars are not converging.
func timeToConvergence(relDist, relSpeed float64) float64 {
	if relDist > 0 && relSpeed < 0 {
		return relDist / -relSpeed
	}
	if relDist < 0 && relSpeed > 0 {
		return -relDist / relSpeed
	}
	return 0
}
