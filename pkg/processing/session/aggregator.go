package session

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/racekit/race-telemetry-go/pkg/model"
)

const (
	DefaultPaceWindow = 3
	// fuel usage is sampled on this cadence, not per frame
	DefaultFuelSampleInterval = 10.0 // seconds
	// wear fraction per kilometer at the reference corner
	DefaultTireWearCoeff = 0.0005

	// recent laps must be at least this much quicker than the earlier
	// window before the trend label flips
	trendEpsilon = 0.1 // seconds
)

// per-corner load factors for the wear heuristic; the right front works
// hardest on a typical clockwise track
var cornerLoad = model.TireWear{LF: 1.0, RF: 1.25, LR: 0.7, RR: 0.9}

// Aggregator owns the session state: the ordered sequence of finalized
// laps plus the rolling fuel and tire estimates. It is mutated only from
// the ingestion path; readers get value copies via Summary and Laps.
type Aggregator struct {
	sessionID  string
	startWall  float64
	paceWindow int

	laps      []model.LapRecord
	bestIdx   int
	worstIdx  int
	lapTimSum float64

	fuelInterval   float64
	fuelFirstTime  float64
	fuelFirstLevel float64
	fuelLastSample float64 // session time of last cadence sample
	fuelRate       float64
	fuelSeen       bool
	fuelLevel      float64

	wearCoeff float64
	distanceM float64 // meters driven
	wear      model.TireWear

	elapsed   float64
	carCount  int
	flagState string
}

type Option func(a *Aggregator)

func WithPaceWindow(k int) Option {
	return func(a *Aggregator) {
		if k > 0 {
			a.paceWindow = k
		}
	}
}

func WithFuelSampleInterval(seconds float64) Option {
	return func(a *Aggregator) {
		if seconds > 0 {
			a.fuelInterval = seconds
		}
	}
}

func WithTireWearCoeff(perKm float64) Option {
	return func(a *Aggregator) {
		if perKm > 0 {
			a.wearCoeff = perKm
		}
	}
}

func WithStartWall(unixSeconds float64) Option {
	return func(a *Aggregator) {
		a.startWall = unixSeconds
	}
}

func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		sessionID:    uuid.NewString(),
		paceWindow:   DefaultPaceWindow,
		fuelInterval: DefaultFuelSampleInterval,
		wearCoeff:    DefaultTireWearCoeff,
		bestIdx:      -1,
		worstIdx:     -1,
		laps:         make([]model.LapRecord, 0),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OnLapCompleted records a finalized lap and updates best/worst tracking.
// Ties on the best lap keep the earliest occurrence.
func (a *Aggregator) OnLapCompleted(lap model.LapRecord) {
	// copy-on-append so previously published slices stay immutable
	laps := make([]model.LapRecord, len(a.laps), len(a.laps)+1)
	copy(laps, a.laps)
	a.laps = append(laps, lap)

	idx := len(a.laps) - 1
	if a.bestIdx == -1 || lap.LapTime < a.laps[a.bestIdx].LapTime {
		a.bestIdx = idx
	}
	if a.worstIdx == -1 || lap.LapTime > a.laps[a.worstIdx].LapTime {
		a.worstIdx = idx
	}
	a.lapTimSum += lap.LapTime
}

// ObserveFrame updates the continuously sampled fields: elapsed time, fuel
// usage (on the configured cadence) and the tire wear estimate.
func (a *Aggregator) ObserveFrame(prev, curr *model.Frame, dt float64) {
	a.elapsed = curr.SessionTime
	a.carCount = len(curr.Cars)
	a.flagState = curr.FlagState
	a.fuelLevel = curr.FuelLevel

	if !a.fuelSeen {
		a.fuelSeen = true
		a.fuelFirstTime = curr.SessionTime
		a.fuelFirstLevel = curr.FuelLevel
		a.fuelLastSample = curr.SessionTime
	} else if curr.SessionTime-a.fuelLastSample >= a.fuelInterval {
		a.fuelLastSample = curr.SessionTime
		span := curr.SessionTime - a.fuelFirstTime
		if span > 0 {
			consumed := a.fuelFirstLevel - curr.FuelLevel
			if consumed < 0 {
				consumed = 0 // refuel, restart the baseline
				a.fuelFirstTime = curr.SessionTime
				a.fuelFirstLevel = curr.FuelLevel
			}
			a.fuelRate = consumed / span
		}
	}

	if prev != nil && dt > 0 {
		a.distanceM += curr.Speed * dt
		base := a.wearCoeff * a.distanceM / 1000.0
		a.wear = model.TireWear{
			LF: clampWear(base * cornerLoad.LF),
			RF: clampWear(base * cornerLoad.RF),
			LR: clampWear(base * cornerLoad.LR),
			RR: clampWear(base * cornerLoad.RR),
		}
	}
}

// Laps returns the finalized laps. The slice is never mutated afterwards,
// so callers may hold on to it.
func (a *Aggregator) Laps() []model.LapRecord {
	return a.laps
}

// LapByNumber looks up a completed lap by its number.
func (a *Aggregator) LapByNumber(lapNo int) (model.LapRecord, bool) {
	for i := range a.laps {
		if a.laps[i].LapNo == lapNo {
			return a.laps[i], true
		}
	}
	return model.LapRecord{}, false
}

// Consistency is the coefficient of variation of the last K completed lap
// times. Requires at least two completed laps.
func (a *Aggregator) Consistency() (float64, bool) {
	times := a.recentLapTimes()
	if len(times) < 2 {
		return 0, false
	}
	mean := stat.Mean(times, nil)
	if mean <= 0 {
		return 0, false
	}
	return stat.StdDev(times, nil) / mean, true
}

// PaceTrend is the simple moving average of the last K completed lap times.
func (a *Aggregator) PaceTrend() float64 {
	times := a.recentLapTimes()
	if len(times) == 0 {
		return 0
	}
	return stat.Mean(times, nil)
}

func (a *Aggregator) recentLapTimes() []float64 {
	n := len(a.laps)
	k := a.paceWindow
	if k > n {
		k = n
	}
	times := make([]float64, 0, k)
	for _, lap := range a.laps[n-k:] {
		times = append(times, lap.LapTime)
	}
	return times
}

// paceTrendLabel compares the recent window against the window before it.
func (a *Aggregator) paceTrendLabel() string {
	n := len(a.laps)
	k := a.paceWindow
	if n < 2*k {
		return TrendLabelFor(0)
	}
	recent := make([]float64, 0, k)
	earlier := make([]float64, 0, k)
	for _, lap := range a.laps[n-k:] {
		recent = append(recent, lap.LapTime)
	}
	for _, lap := range a.laps[n-2*k : n-k] {
		earlier = append(earlier, lap.LapTime)
	}
	return TrendLabelFor(stat.Mean(earlier, nil) - stat.Mean(recent, nil))
}

// TrendLabelFor maps a lap time improvement (earlier minus recent mean) to
// the trend label.
func TrendLabelFor(improvement float64) string {
	switch {
	case improvement > trendEpsilon:
		return model.TrendImproving
	case improvement < -trendEpsilon:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

// Summary composes the aggregated session view.
func (a *Aggregator) Summary() model.SessionSummary {
	ret := model.SessionSummary{
		SessionID:      a.sessionID,
		StartTime:      a.startWall,
		Elapsed:        a.elapsed,
		TotalLaps:      len(a.laps),
		BestLapNo:      0,
		PaceTrend:      a.PaceTrend(),
		PaceTrendLabel: a.paceTrendLabel(),
		FuelRate:       a.fuelRate,
		FuelLevel:      a.fuelLevel,
		TireWear:       a.wear,
		CarCount:       a.carCount,
		FlagState:      a.flagState,
	}
	if a.bestIdx >= 0 {
		ret.BestLapNo = a.laps[a.bestIdx].LapNo
		ret.BestLap = a.laps[a.bestIdx].LapTime
		ret.WorstLap = a.laps[a.worstIdx].LapTime
		ret.AvgLap = a.lapTimSum / float64(len(a.laps))
	}
	if cv, ok := a.Consistency(); ok {
		ret.Consistency = cv
		ret.ConsistencyValid = true
	}
	return ret
}

func clampWear(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
