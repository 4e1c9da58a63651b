package telemetry

import (
	"fmt"

	"github.com/racekit/race-telemetry-go/pkg/model"
	"github.com/racekit/race-telemetry-go/pkg/processing/spotter"
)

// Facade is the read side of the cache. Every query works off one snapshot,
// so results are internally consistent even while ingestion keeps running.
type Facade struct {
	cache *Cache
}

func NewFacade(cache *Cache) *Facade {
	return &Facade{cache: cache}
}

// CurrentTelemetry returns the latest snapshot.
func (f *Facade) CurrentTelemetry() (*Snapshot, error) {
	snap := f.cache.Snapshot()
	if snap == nil {
		return nil, ErrInsufficientData
	}
	return snap, nil
}

// SpotNearby recomputes relative car positions with caller-supplied radius
// and horizon. Zero values fall back to the configured defaults.
func (f *Facade) SpotNearby(radius, horizon float64) ([]model.Spot, bool, error) {
	if radius < 0 {
		return nil, false, fmt.Errorf("%w: radius %v", ErrInvalidArgument, radius)
	}
	if horizon < 0 {
		return nil, false, fmt.Errorf("%w: horizon %v", ErrInvalidArgument, horizon)
	}
	if radius == 0 {
		radius = f.cache.radius
	}
	if horizon == 0 {
		horizon = f.cache.horizon
	}
	snap := f.cache.Snapshot()
	if snap == nil {
		return nil, false, ErrInsufficientData
	}
	return spotter.Spot(snap.Frame, f.cache.track.Length, radius, horizon), snap.Stale, nil
}

// AnalyzeLap returns one completed lap compared against the session best.
// lapNo 0 selects the most recent completed lap.
func (f *Facade) AnalyzeLap(lapNo int) (model.LapAnalysis, error) {
	if lapNo < 0 {
		return model.LapAnalysis{}, fmt.Errorf("%w: lap %d", ErrInvalidArgument, lapNo)
	}
	snap := f.cache.Snapshot()
	if snap == nil {
		return model.LapAnalysis{}, ErrInsufficientData
	}
	if len(snap.Laps) == 0 {
		return model.LapAnalysis{}, ErrInsufficientData
	}

	var target *model.LapRecord
	if lapNo == 0 {
		target = &snap.Laps[len(snap.Laps)-1]
	} else {
		for i := range snap.Laps {
			if snap.Laps[i].LapNo == lapNo {
				target = &snap.Laps[i]
				break
			}
		}
	}
	if target == nil {
		return model.LapAnalysis{}, fmt.Errorf("%w: lap %d not completed", ErrInsufficientData, lapNo)
	}

	ret := model.LapAnalysis{
		Lap:              *target,
		BestLapNo:        snap.Session.BestLapNo,
		BestLapTime:      snap.Session.BestLap,
		Consistency:      snap.Session.Consistency,
		ConsistencyValid: snap.Session.ConsistencyValid,
	}
	ret.DeltaToBest = target.LapTime - ret.BestLapTime
	return ret, nil
}

// SessionSummary returns the aggregated session view.
func (f *Facade) SessionSummary() (model.SessionSummary, bool, error) {
	snap := f.cache.Snapshot()
	if snap == nil {
		return model.SessionSummary{}, false, ErrInsufficientData
	}
	return snap.Session, snap.Stale, nil
}

// RecentFrames returns the retained input history, oldest first.
func (f *Facade) RecentFrames() []*model.Frame {
	return f.cache.RecentFrames()
}

// TrackProfile returns the active track profile.
func (f *Facade) TrackProfile() *model.TrackProfile {
	return f.cache.Track()
}
