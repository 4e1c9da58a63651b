package generate

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/racekit/race-telemetry-go/pkg/model"
)

const (
	DefaultTrackLength = 5000.0
	DefaultTickRate    = 10.0
	DefaultCarCount    = 4

	maxSpeed    = 80.0 // m/s, roughly 180 mph
	maxRPM      = 9000.0
	initialFuel = 18.0
)

// per-gear ratios used to derive RPM from speed; index 0 is neutral
var gearRatios = []float64{0, 3.2, 2.1, 1.5, 1.2, 1.0, 0.85}

// Generator produces a deterministic pseudo-random telemetry stream that
// behaves like a car lapping a circuit: throttle and brake wander, speed
// integrates from them, gears follow speed bands and the lap counter wraps
// at the track length. A fixed seed yields a reproducible stream.
type Generator struct {
	rng         *rand.Rand
	trackLength float64
	tickRate    float64
	carCount    int
	startWall   float64

	sessionTime float64
	lap         int
	lapDist     float64
	speed       float64
	throttle    float64
	brake       float64
	steering    float64
	gear        int
	rpm         float64
	fuel        float64
	trackTemp   float64
	airTemp     float64

	cars []opponent
}

// opponent is a simple constant-pace car with some jitter.
type opponent struct {
	carIdx    int
	driver    string
	baseSpeed float64
	lap       int
	lapDist   float64
	speed     float64
}

type Option func(g *Generator)

func WithTrackLength(meters float64) Option {
	return func(g *Generator) {
		if meters > 0 {
			g.trackLength = meters
		}
	}
}

func WithTickRate(hz float64) Option {
	return func(g *Generator) {
		if hz > 0 {
			g.tickRate = hz
		}
	}
}

func WithCarCount(n int) Option {
	return func(g *Generator) {
		if n >= 0 {
			g.carCount = n
		}
	}
}

func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // simulation only
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // simulation only
		trackLength: DefaultTrackLength,
		tickRate:    DefaultTickRate,
		carCount:    DefaultCarCount,
		startWall:   float64(time.Now().UnixNano()) / float64(time.Second),
		lap:         1,
		fuel:        initialFuel,
		trackTemp:   29.0,
		airTemp:     22.0,
	}
	for _, opt := range opts {
		opt(g)
	}
	for i := 0; i < g.carCount; i++ {
		g.cars = append(g.cars, opponent{
			carIdx:    i + 1,
			driver:    fmt.Sprintf("Car #%d", i+1),
			baseSpeed: 40 + g.rng.Float64()*25,
			lap:       1,
			// spread the field around the circuit
			lapDist: g.trackLength * float64(i+1) / float64(g.carCount+1),
		})
	}
	return g
}

// Step advances the simulation by dt seconds and returns the new frame.
func (g *Generator) Step(dt float64) *model.Frame {
	g.sessionTime += dt

	if g.rng.Float64() < 0.1 {
		g.throttle = clamp01(g.throttle + g.rng.Float64()*0.6 - 0.3)
	}
	if g.rng.Float64() < 0.05 {
		g.brake = g.rng.Float64()
	} else {
		g.brake = math.Max(0, g.brake-0.1)
	}

	accel := (g.throttle - g.brake) * 5.0
	g.speed = math.Min(maxSpeed, math.Max(0, g.speed+accel*dt))

	speedMph := g.speed * 2.23694
	g.gear = min(6, max(1, int(speedMph/30)+1))
	g.rpm = math.Min(maxRPM, speedMph*gearRatios[g.gear]*50+g.rng.Float64()*100-50)

	g.steering = math.Sin(g.sessionTime*0.5)*0.2 + g.rng.Float64()*0.04 - 0.02

	g.lapDist += g.speed * dt
	if g.lapDist >= g.trackLength {
		g.lap++
		g.lapDist -= g.trackLength
	}

	g.fuel = math.Max(0, g.fuel-g.speed*dt*0.0005)

	for i := range g.cars {
		c := &g.cars[i]
		c.speed = c.baseSpeed + g.rng.Float64()*4 - 2
		c.lapDist += c.speed * dt
		if c.lapDist >= g.trackLength {
			c.lap++
			c.lapDist -= g.trackLength
		}
	}

	return g.frame()
}

func (g *Generator) frame() *model.Frame {
	f := &model.Frame{
		Timestamp:   g.startWall + g.sessionTime,
		SessionTime: g.sessionTime,
		Velocity:    model.Vec3{X: g.speed},
		Throttle:    g.throttle,
		Brake:       g.brake,
		Steering:    g.steering,
		Gear:        g.gear,
		RPM:         g.rpm,
		Speed:       g.speed,
		Lap:         g.lap,
		LapDistPct:  g.lapDist / g.trackLength,
		FuelLevel:   g.fuel,
		TrackTemp:   g.trackTemp,
		AirTemp:     g.airTemp,
		OnTrack:     g.onTrack(),
		FlagState:   g.flagState(),
	}
	for _, c := range g.cars {
		f.Cars = append(f.Cars, model.CarPosition{
			CarIdx:     c.carIdx,
			Driver:     c.driver,
			Lap:        c.lap,
			LapDistPct: c.lapDist / g.trackLength,
			Speed:      c.speed,
			Velocity:   model.Vec3{X: c.speed},
		})
	}
	return f
}

// flags cycle on a fixed one minute schedule
func (g *Generator) flagState() string {
	cycle := math.Mod(g.sessionTime, 60)
	switch {
	case cycle < 5:
		return model.FlagYellow
	case cycle < 8:
		return model.FlagRed
	case cycle < 55:
		return model.FlagGreen
	default:
		return model.FlagCheckered
	}
}

// the car drops off the track for three seconds every 45 seconds
func (g *Generator) onTrack() bool {
	cycle := math.Mod(g.sessionTime, 45)
	return cycle < 42
}

// Next implements source.Source: it paces Step calls at the tick rate so
// the generator can stand in for a live feed in-process.
func (g *Generator) Next(ctx context.Context) (*model.Frame, error) {
	interval := time.Duration(float64(time.Second) / g.tickRate)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(interval):
		return g.Step(1 / g.tickRate), nil
	}
}

func (g *Generator) Close() error {
	return nil
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
