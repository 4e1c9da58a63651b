//nolint:thelper,funlen // ok for tests
package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/racekit/race-telemetry-go/pkg/model"
)

func completedLap(no int, lapTime float64) model.LapRecord {
	return model.LapRecord{
		LapNo:     no,
		LapTime:   lapTime,
		Completed: true,
	}
}

func feedLaps(a *Aggregator, times ...float64) {
	for i, lt := range times {
		a.OnLapCompleted(completedLap(i+1, lt))
	}
}

func TestAggregator_BestWorstAvg(t *testing.T) {
	a := NewAggregator()
	feedLaps(a, 90.0, 88.5, 89.0, 91.0, 88.0)

	summary := a.Summary()
	assert.Equal(t, 5, summary.TotalLaps)
	assert.Equal(t, 5, summary.BestLapNo)
	assert.InDelta(t, 88.0, summary.BestLap, 1e-9)
	assert.InDelta(t, 91.0, summary.WorstLap, 1e-9)
	assert.InDelta(t, 89.3, summary.AvgLap, 1e-9)
}

func TestAggregator_BestLapTieKeepsEarliest(t *testing.T) {
	a := NewAggregator()
	feedLaps(a, 90.0, 88.0, 89.0, 88.0)

	summary := a.Summary()
	assert.Equal(t, 2, summary.BestLapNo)
}

func TestAggregator_PaceTrendWindow(t *testing.T) {
	a := NewAggregator(WithPaceWindow(3))
	feedLaps(a, 90.0, 88.5, 89.0, 91.0, 88.0)

	// mean of the last three completed laps
	assert.InDelta(t, (89.0+91.0+88.0)/3, a.PaceTrend(), 1e-9)
}

func TestAggregator_PaceTrendWithFewerLapsThanWindow(t *testing.T) {
	a := NewAggregator(WithPaceWindow(3))
	feedLaps(a, 90.0, 88.0)
	assert.InDelta(t, 89.0, a.PaceTrend(), 1e-9)
}

func TestAggregator_ConsistencyNeedsTwoLaps(t *testing.T) {
	a := NewAggregator()
	_, ok := a.Consistency()
	assert.False(t, ok)

	a.OnLapCompleted(completedLap(1, 90.0))
	_, ok = a.Consistency()
	assert.False(t, ok)

	a.OnLapCompleted(completedLap(2, 90.0))
	cv, ok := a.Consistency()
	assert.True(t, ok)
	assert.InDelta(t, 0.0, cv, 1e-9)
}

func TestAggregator_ConsistencyIsCoV(t *testing.T) {
	a := NewAggregator(WithPaceWindow(2))
	feedLaps(a, 88.0, 92.0)

	// mean 90, sample stddev sqrt(8)
	cv, ok := a.Consistency()
	assert.True(t, ok)
	assert.InDelta(t, 2.8284271247/90.0, cv, 1e-6)
}

func TestAggregator_TrendLabel(t *testing.T) {
	assert.Equal(t, model.TrendImproving, TrendLabelFor(1.0))
	assert.Equal(t, model.TrendDeclining, TrendLabelFor(-1.0))
	assert.Equal(t, model.TrendStable, TrendLabelFor(0.05))

	// recent window clearly faster than the one before it
	a := NewAggregator(WithPaceWindow(2))
	feedLaps(a, 95.0, 95.0, 90.0, 90.0)
	assert.Equal(t, model.TrendImproving, a.Summary().PaceTrendLabel)
}

func observe(a *Aggregator, sessionTime, speed, fuel float64) {
	prev := &model.Frame{}
	a.ObserveFrame(prev, &model.Frame{
		SessionTime: sessionTime,
		Speed:       speed,
		FuelLevel:   fuel,
	}, 1.0)
}

func TestAggregator_FuelRateOnCadence(t *testing.T) {
	a := NewAggregator(WithFuelSampleInterval(10))

	observe(a, 0, 50, 18.0)
	// before the cadence elapses the rate stays untouched
	observe(a, 5, 50, 17.9)
	assert.InDelta(t, 0.0, a.Summary().FuelRate, 1e-9)

	observe(a, 10, 50, 17.8)
	// 0.2 units over 10 seconds
	assert.InDelta(t, 0.02, a.Summary().FuelRate, 1e-9)
	assert.InDelta(t, 17.8, a.Summary().FuelLevel, 1e-9)
}

func TestAggregator_TireWearMonotonic(t *testing.T) {
	a := NewAggregator()
	var last model.TireWear
	for i := 1; i <= 100; i++ {
		observe(a, float64(i), 50, 18.0)
		wear := a.Summary().TireWear
		assert.GreaterOrEqual(t, wear.LF, last.LF)
		assert.GreaterOrEqual(t, wear.RF, last.RF)
		assert.GreaterOrEqual(t, wear.LR, last.LR)
		assert.GreaterOrEqual(t, wear.RR, last.RR)
		last = wear
	}
	// the right front carries the most load
	assert.Greater(t, last.RF, last.LF)
	assert.Greater(t, last.LF, last.LR)
	assert.Greater(t, last.RF, 0.0)
}

func TestAggregator_LapsSliceImmutable(t *testing.T) {
	a := NewAggregator()
	a.OnLapCompleted(completedLap(1, 90.0))
	published := a.Laps()
	a.OnLapCompleted(completedLap(2, 88.0))

	assert.Len(t, published, 1)
	assert.Len(t, a.Laps(), 2)
}

func TestAggregator_LapByNumber(t *testing.T) {
	a := NewAggregator()
	feedLaps(a, 90.0, 88.0)

	lap, ok := a.LapByNumber(2)
	assert.True(t, ok)
	assert.InDelta(t, 88.0, lap.LapTime, 1e-9)

	_, ok = a.LapByNumber(5)
	assert.False(t, ok)
}

func TestAggregator_SessionIDAssigned(t *testing.T) {
	a := NewAggregator()
	b := NewAggregator()
	assert.NotEmpty(t, a.Summary().SessionID)
	assert.NotEqual(t, a.Summary().SessionID, b.Summary().SessionID)
}
