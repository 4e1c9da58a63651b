//nolint:thelper,funlen // ok for tests
package generate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/racekit/race-telemetry-go/pkg/model"
	"github.com/racekit/race-telemetry-go/pkg/telemetry"
)

func TestGenerator_FramesAreValidAndMonotonic(t *testing.T) {
	g := NewGenerator(WithSeed(42))
	last := 0.0
	for i := 0; i < 1000; i++ {
		f := g.Step(0.1)
		assert.NoError(t, telemetry.Validate(f))
		assert.Greater(t, f.SessionTime, last)
		assert.LessOrEqual(t, f.Speed, 80.0)
		assert.GreaterOrEqual(t, f.Speed, 0.0)
		assert.GreaterOrEqual(t, f.Throttle, 0.0)
		assert.LessOrEqual(t, f.Throttle, 1.0)
		assert.GreaterOrEqual(t, f.Gear, 1)
		assert.LessOrEqual(t, f.Gear, 6)
		assert.LessOrEqual(t, f.RPM, 9000.0)
		last = f.SessionTime
	}
}

func TestGenerator_SeededStreamIsReproducible(t *testing.T) {
	a := NewGenerator(WithSeed(7), WithCarCount(2))
	b := NewGenerator(WithSeed(7), WithCarCount(2))
	for i := 0; i < 100; i++ {
		fa := a.Step(0.1)
		fb := b.Step(0.1)
		assert.Equal(t, fa.Speed, fb.Speed)
		assert.Equal(t, fa.Throttle, fb.Throttle)
		assert.Equal(t, fa.LapDistPct, fb.LapDistPct)
		if diff := cmp.Diff(fa.Cars, fb.Cars); diff != "" {
			t.Fatalf("opponent state differs between seeded runs (-a +b):\n%s", diff)
		}
	}
}

func TestGenerator_LapWraps(t *testing.T) {
	g := NewGenerator(WithSeed(1), WithTrackLength(500))
	sawWrap := false
	prevFrac := 0.0
	for i := 0; i < 5000; i++ {
		f := g.Step(0.1)
		if f.LapDistPct < prevFrac {
			sawWrap = true
			assert.Greater(t, f.Lap, 1)
		}
		prevFrac = f.LapDistPct
	}
	assert.True(t, sawWrap, "expected at least one lap wrap on a short track")
}

func TestGenerator_OpponentCarsProgress(t *testing.T) {
	g := NewGenerator(WithSeed(3), WithCarCount(3))
	first := g.Step(0.1)
	assert.Len(t, first.Cars, 3)

	var last *model.Frame
	for i := 0; i < 100; i++ {
		last = g.Step(0.1)
	}
	for i, c := range last.Cars {
		assert.Equal(t, first.Cars[i].CarIdx, c.CarIdx)
		progressed := c.Lap > first.Cars[i].Lap ||
			(c.Lap == first.Cars[i].Lap && c.LapDistPct > first.Cars[i].LapDistPct)
		assert.True(t, progressed, "car %d did not move", c.CarIdx)
	}
}

func TestGenerator_FlagCycle(t *testing.T) {
	g := NewGenerator(WithSeed(9))
	seen := map[string]bool{}
	for i := 0; i < 700; i++ { // 70 simulated seconds
		f := g.Step(0.1)
		seen[f.FlagState] = true
	}
	assert.True(t, seen[model.FlagYellow])
	assert.True(t, seen[model.FlagRed])
	assert.True(t, seen[model.FlagGreen])
	assert.True(t, seen[model.FlagCheckered])
}

func TestGenerator_OffTrackEpisodes(t *testing.T) {
	g := NewGenerator(WithSeed(9))
	offSeen := false
	for i := 0; i < 500; i++ { // 50 simulated seconds
		if !g.Step(0.1).OnTrack {
			offSeen = true
		}
	}
	assert.True(t, offSeen)
}

func TestGenerator_FuelBurnsDown(t *testing.T) {
	g := NewGenerator(WithSeed(5))
	first := g.Step(0.1)
	var last *model.Frame
	for i := 0; i < 2000; i++ {
		last = g.Step(0.1)
	}
	assert.Less(t, last.FuelLevel, first.FuelLevel)
	assert.GreaterOrEqual(t, last.FuelLevel, 0.0)
}
